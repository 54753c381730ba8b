// Package main provides the murmur CLI process entrypoint.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rbright/murmur/internal/app"
)

// run wires process signal handling to the application runner.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
