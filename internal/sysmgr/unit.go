package sysmgr

import (
	"fmt"
	"strings"
)

const (
	// unitPrefix namespaces every cage unit this tool manages.
	unitPrefix = "cagesvc-"

	// DefaultUnitDir is where rendered unit files are written.
	DefaultUnitDir = "/etc/systemd/system"
)

// UnitName returns the systemd unit name for a cage.
func UnitName(cage string) string {
	return unitPrefix + cage + ".service"
}

// DisplayName returns the human-readable service name for a cage.
func DisplayName(cage string) string {
	return "cagesvc cage " + cage
}

// renderUnit produces the Type=notify unit file for a cage. ExecStart
// re-invokes this binary with the run verb; readiness and stopping are
// reported over sd_notify by the controller.
func renderUnit(cage, binary string, command []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Unit]\n")
	fmt.Fprintf(&b, "Description=%s\n", DisplayName(cage))
	fmt.Fprintf(&b, "After=network.target\n")
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "[Service]\n")
	fmt.Fprintf(&b, "Type=notify\n")
	fmt.Fprintf(&b, "NotifyAccess=main\n")
	fmt.Fprintf(&b, "ExecStart=%s run %s -- %s\n", quoteArg(binary), quoteArg(cage), quoteArgs(command))
	fmt.Fprintf(&b, "TimeoutStartSec=90\n")
	fmt.Fprintf(&b, "TimeoutStopSec=90\n")
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "[Install]\n")
	fmt.Fprintf(&b, "WantedBy=multi-user.target\n")
	return b.String()
}

// quoteArg quotes a single argument for a systemd ExecStart line when it
// contains whitespace or quotes.
func quoteArg(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\"'") {
		return arg
	}
	return "\"" + strings.ReplaceAll(arg, "\"", "\\\"") + "\""
}

func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = quoteArg(arg)
	}
	return strings.Join(quoted, " ")
}
