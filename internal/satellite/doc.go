// Package satellite owns the single child process a cage service exists to
// host: spawning it with all three standard streams redirected through pipes,
// synchronous byte-level Read/Write on those pipes, and a timeout-bounded
// wait-then-kill teardown.
//
// The spawn path goes through pipe channels: each channel temporarily
// substitutes one end of a fresh pipe for the process-wide standard stream
// binding so the child inherits it, then restores the previous binding once
// the child is running. The parent keeps the private end of each pipe for
// the lifetime of the Satellite.
//
// Example:
//
//	sat, err := satellite.Start("python3 startup.py mycage")
//	if err != nil {
//	    return err
//	}
//	defer sat.Close()
//	out, _ := sat.Read()
//	res := sat.WaitForCompletion(satellite.DefaultWaitTimeout)
package satellite
