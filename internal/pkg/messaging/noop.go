package messaging

import (
	"context"
	"log/slog"
	"time"
)

// Noop drops every message after logging it at debug level.
type Noop struct{}

// NewNoop returns a publisher that discards messages.
func NewNoop() *Noop {
	return &Noop{}
}

// Publish logs the destination and reports success.
func (*Noop) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}

	slog.DebugContext(ctx, "message discarded", "destination", destination, "bytes", len(msg.Body))
	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

func (*Noop) Close() error {
	return nil
}
