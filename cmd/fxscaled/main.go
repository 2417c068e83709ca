// Command fxscaled runs the effects scalability manager over a simulated
// effect population and persists per-tick cull statistics.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

const (
	DefaultConfigPath = "config/fxscaled.yaml"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}
