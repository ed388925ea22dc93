// Command server runs the participation engine: the HTTP API plus the
// in-process notification sweep workers.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/openagora/agora-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}
