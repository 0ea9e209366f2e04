// Command yttranscript extracts transcripts from YouTube videos.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		newSource: defaultSource,
	}
	code := a.execute(ctx, os.Args[1:])

	stop()
	os.Exit(code)
}
