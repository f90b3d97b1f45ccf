package satellite

import (
	"fmt"
	"os"
)

// streamKind identifies which standard stream a pipe channel replaces.
type streamKind int

const (
	streamStdin streamKind = iota
	streamStdout
	streamStderr
)

func (k streamKind) String() string {
	switch k {
	case streamStdin:
		return "stdin"
	case streamStdout:
		return "stdout"
	default:
		return "stderr"
	}
}

// stdBinding returns the process-wide standard stream binding for kind.
func stdBinding(k streamKind) **os.File {
	switch k {
	case streamStdin:
		return &os.Stdin
	case streamStdout:
		return &os.Stdout
	default:
		return &os.Stderr
	}
}

// pipeChannel substitutes one end of a fresh pipe for a standard stream
// binding for the duration of child creation. The child-facing end becomes
// the current binding; the parent keeps the other end, which outlives the
// channel and is handed to the Satellite. os.Pipe marks both descriptors
// close-on-exec, so the parent end never leaks into the child.
type pipeChannel struct {
	kind      streamKind
	saved     *os.File // previous binding, restored on release
	childEnd  *os.File // installed as the binding, closed on release
	parentEnd *os.File // survives the channel
	released  bool
}

// newPipeChannel creates the pipe for kind and installs the child-facing end
// as the current standard stream binding. For stdin the parent keeps the
// write end, for stdout/stderr the read end. On error nothing is swapped and
// nothing is left open.
func newPipeChannel(kind streamKind) (*pipeChannel, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create %s pipe: %w", kind, err)
	}

	ch := &pipeChannel{kind: kind}
	if kind == streamStdin {
		ch.childEnd, ch.parentEnd = r, w
	} else {
		ch.childEnd, ch.parentEnd = w, r
	}

	binding := stdBinding(kind)
	ch.saved = *binding
	*binding = ch.childEnd
	return ch, nil
}

// release restores the previous standard stream binding and closes the end
// that was substituted in. Only the first call does anything; the parent end
// is not touched.
func (c *pipeChannel) release() {
	if c.released {
		return
	}
	c.released = true
	*stdBinding(c.kind) = c.saved
	c.childEnd.Close()
}
