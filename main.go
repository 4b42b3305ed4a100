// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"talksync/cmd"
	"talksync/internal/log"
	"talksync/pkg/build"
)

func main() {
	// Development builds run without ldflags.
	if err := build.Initialize(); err != nil {
		log.Debugf("build: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		log.Fatalf("%v", err)
	}
}
