package satellite

import (
	"reflect"
	"testing"
)

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "plain words",
			input: "python3 startup.py mycage",
			want:  []string{"python3", "startup.py", "mycage"},
		},
		{
			name:  "double quotes keep spaces",
			input: `runner "a b" c`,
			want:  []string{"runner", "a b", "c"},
		},
		{
			name:  "single quotes",
			input: `sh -c 'echo hi'`,
			want:  []string{"sh", "-c", "echo hi"},
		},
		{
			name:  "escaped space",
			input: `run a\ b`,
			want:  []string{"run", "a b"},
		},
		{
			name:  "surrounding whitespace",
			input: "  echo hello  ",
			want:  []string{"echo", "hello"},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:    "unclosed quote",
			input:   `echo "unterminated`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitCommandLine(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitCommandLine(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitCommandLine(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestJoinCommandRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "plain words",
			args: []string{"python3", "startup.py", "mycage"},
			want: "python3 startup.py mycage",
		},
		{
			name: "argument with space",
			args: []string{"sh", "-c", "echo hi"},
			want: `sh -c "echo hi"`,
		},
		{
			name: "argument with quote",
			args: []string{"echo", `say "hi"`},
			want: `echo "say \"hi\""`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JoinCommand(tt.args)
			if got != tt.want {
				t.Fatalf("JoinCommand(%v) = %q, want %q", tt.args, got, tt.want)
			}
			back, err := splitCommandLine(got)
			if err != nil {
				t.Fatalf("splitCommandLine(%q) failed: %v", got, err)
			}
			if !reflect.DeepEqual(back, tt.args) {
				t.Errorf("round trip = %v, want %v", back, tt.args)
			}
		})
	}
}
