package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"plexmaint/internal/console"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err, os.Stdout, os.Stderr))
}

// exitCode prints the closing message for err and returns the process status.
// Interruptions are a normal way to leave the menu.
func exitCode(err error, stdout, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, console.ErrInterrupted) || errors.Is(err, context.Canceled) {
		console.NewPrinter(stdout).Failure("\nUser interrupted the process with Ctrl+C. Goodbye!")
		return 0
	}
	fmt.Fprintf(stderr, "A fatal error occurred: %v\nSee logs for details. Exiting now.\n", err)
	return 1
}
