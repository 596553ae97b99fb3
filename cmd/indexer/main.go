package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/duality-labs/dex-indexer/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := app.Initialize(ctx)

	if err := app.NewServer(a); err != nil {
		a.Logger.Fatal("Unable to initialize server", zap.Error(err))
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.Driver.Run(groupCtx)
	})

	group.Go(func() error {
		a.Start(groupCtx)
		return nil
	})

	if err := group.Wait(); err != nil {
		a.Logger.Fatal("Indexer exited", zap.Error(err))
	}
}
