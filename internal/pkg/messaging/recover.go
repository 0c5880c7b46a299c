package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/emunotify/internal/pkg/stacktrace"
)

// dispatch runs handler under the producer's trace context with panic
// recovery, and applies auto-ack.
func dispatch(ctx context.Context, broker string, handler Handler, msg Message, autoAck bool, responded func() bool) (err error) {
	ctx = extractTrace(ctx, msg.Headers())

	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic in messaging handler",
				"broker", broker, "source", msg.Source(), "panic", rvr, "stack", stacktrace.InternalPaths(debug.Stack()))
			err = fmt.Errorf("messaging: panic in %s handler: %v", broker, rvr)
		}

		if !autoAck || responded() {
			return
		}
		if err == nil {
			err = msg.Ack(ctx)
			return
		}
		if nerr := msg.Nack(ctx); nerr != nil {
			slog.WarnContext(ctx, "failed to nack message", "broker", broker, "message_id", msg.ID(), "error", nerr)
		}
	}()

	return handler(ctx, msg)
}
