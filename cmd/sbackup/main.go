// Package main is the entry point for the sbackup CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/thoreinstein/sbackup/cmd/sbackup/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Execute(ctx)
	stop()
	os.Exit(code)
}
