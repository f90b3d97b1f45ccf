package service

import (
	"bytes"
	"strings"
)

// pumpOutput drains one satellite output pipe into the log until the pipe
// closes, splitting the raw chunks into lines. Runs on its own goroutine;
// a zero-length read means the child end is gone and the pump is done.
func (c *Controller) pumpOutput(read func() ([]byte, error), source string) {
	defer c.pumps.Done()

	var carry []byte
	for {
		chunk, err := read()
		if err != nil {
			c.opts.Logger.Warn("Error reading satellite output", "source", source, "error", err)
			return
		}
		if len(chunk) == 0 {
			if len(carry) > 0 {
				c.logLine(source, string(carry))
			}
			return
		}

		if c.opts.Metrics != nil {
			c.opts.Metrics.AddBytesRead(source, len(chunk))
		}

		carry = append(carry, chunk...)
		for {
			i := bytes.IndexByte(carry, '\n')
			if i < 0 {
				break
			}
			c.logLine(source, string(carry[:i]))
			carry = carry[i+1:]
		}
	}
}

// logLine forwards one line of child output. Stderr lines are logged at
// warn, everything else at info.
func (c *Controller) logLine(source, line string) {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return
	}
	if source == "stderr" {
		c.opts.SatelliteLogger.Warn(line, "source", source)
	} else {
		c.opts.SatelliteLogger.Info(line, "source", source)
	}
}
