package cmd

import (
	"reflect"
	"testing"
	"time"

	"github.com/smazurov/cagesvc/internal/service"
	"github.com/spf13/cobra"
)

func parsedCommand(t *testing.T, argv []string) (*cobra.Command, []string) {
	t.Helper()
	c := &cobra.Command{}
	if err := c.Flags().Parse(argv); err != nil {
		t.Fatal(err)
	}
	return c, c.Flags().Args()
}

func TestSplitRunArgs(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		wantCage string
		wantCmd  []string
		wantErr  bool
	}{
		{
			name:     "with dash marker",
			argv:     []string{"mycage", "--", "sleep", "30"},
			wantCage: "mycage",
			wantCmd:  []string{"sleep", "30"},
		},
		{
			name:     "without marker",
			argv:     []string{"mycage", "sleep", "30"},
			wantCage: "mycage",
			wantCmd:  []string{"sleep", "30"},
		},
		{
			name:    "two names before marker",
			argv:    []string{"a", "b", "--", "sleep"},
			wantErr: true,
		},
		{
			name:    "no command",
			argv:    []string{"mycage", "--"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, args := parsedCommand(t, tt.argv)
			cage, command, err := splitRunArgs(c, args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cage != tt.wantCage {
				t.Errorf("cage = %q, want %q", cage, tt.wantCage)
			}
			if !reflect.DeepEqual(command, tt.wantCmd) {
				t.Errorf("command = %v, want %v", command, tt.wantCmd)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	if got := parseDuration("3s", service.DefaultSettleDelay); got != 3*time.Second {
		t.Errorf("parseDuration(3s) = %v", got)
	}
	if got := parseDuration("", service.DefaultSettleDelay); got != service.DefaultSettleDelay {
		t.Errorf("empty value should fall back, got %v", got)
	}
	if got := parseDuration("bogus", service.DefaultStopBudget); got != service.DefaultStopBudget {
		t.Errorf("malformed value should fall back, got %v", got)
	}
}
