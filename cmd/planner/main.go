// Package main is the entry point for the Convivio planning engine
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/convivio/convivio/internal/infrastructure/container"
	"github.com/convivio/convivio/internal/ports/inbound"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.NopLogger,
		container.Module,
		fx.Invoke(func(svc inbound.PlannerService) {
			// Resolving the service forces the whole pipeline to wire:
			// ontology, embeddings, case base, adapter, retention.
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("failed to start application: %v", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Fatalf("failed to stop application: %v", err)
	}
}
