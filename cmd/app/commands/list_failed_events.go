package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/credits/internal/httputil"
	outboxDomain "github.com/allisson/credits/internal/outbox/domain"
	"github.com/allisson/credits/internal/outbox/http/dto"
)

// FailedEventLister lists outbox events that exhausted their delivery attempts.
type FailedEventLister interface {
	ListFailed(ctx context.Context, offset, limit int) ([]*outboxDomain.OutboxEvent, error)
}

// RunListFailedEvents prints failed outbox events in text or JSON format.
func RunListFailedEvents(
	ctx context.Context,
	lister FailedEventLister,
	logger *slog.Logger,
	writer io.Writer,
	offset, limit int,
	format string,
) error {
	if err := httputil.ValidatePage(offset, limit); err != nil {
		return err
	}

	events, err := lister.ListFailed(ctx, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to list failed outbox events: %w", err)
	}

	logger.Info("listed failed outbox events", slog.Int("count", len(events)))

	if format == "json" {
		return outputFailedEventsJSON(writer, events)
	}
	outputFailedEventsText(writer, events)
	return nil
}

func outputFailedEventsText(writer io.Writer, events []*outboxDomain.OutboxEvent) {
	if len(events) == 0 {
		_, _ = fmt.Fprintln(writer, "No failed outbox events")
		return
	}

	for _, event := range events {
		lastError := ""
		if event.LastError != nil {
			lastError = *event.LastError
		}
		_, _ = fmt.Fprintf(writer, "%s\t%s\tattempts=%d\tupdated_at=%s\terror=%s\n",
			event.ID,
			event.EventType,
			event.Attempts,
			event.UpdatedAt.Format("2006-01-02 15:04:05"),
			lastError,
		)
	}
}

func outputFailedEventsJSON(writer io.Writer, events []*outboxDomain.OutboxEvent) error {
	return writeJSON(writer, dto.MapOutboxEventsToListResponse(events))
}
