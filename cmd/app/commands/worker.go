package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// OutboxDispatcher is the part of the dispatcher the worker command drives.
type OutboxDispatcher interface {
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) error
}

// RunWorker runs the outbox dispatcher until ctx is cancelled. With once set it runs a single
// tick and returns its error.
func RunWorker(ctx context.Context, dispatcher OutboxDispatcher, logger *slog.Logger, once bool) error {
	if once {
		logger.Info("running a single outbox dispatcher tick")
		if err := dispatcher.ProcessEvents(ctx); err != nil {
			return fmt.Errorf("failed to process outbox events: %w", err)
		}
		return nil
	}

	logger.Info("starting outbox worker")
	if err := dispatcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("outbox dispatcher error: %w", err)
	}
	logger.Info("outbox worker stopped")
	return nil
}
