// Package remote runs the external processes a backup depends on: the ssh
// reachability probe and one rsync invocation per transferred path.
//
// Processes are started through an [Executor] with an explicit argument
// vector. No shell is involved, so configured paths and flags are never
// re-interpreted. Tests substitute a fake Executor.
package remote
