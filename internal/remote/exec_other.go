//go:build !unix

package remote

import "os/exec"

// setProcessGroup keeps the default cancellation, which kills only the
// direct child. WaitDelay bounds how long its children can hold the pipes.
func setProcessGroup(*exec.Cmd) {}
