package workers

import (
	"context"
	"log/slog"

	"hubchat/domain"
	"hubchat/observability"
)

// TelemetryWorker drains the dispatcher's lossy telemetry channel and
// feeds each message to the registered handlers.
type TelemetryWorker struct {
	log       *slog.Logger
	telemetry chan domain.Message
	handlers  []observability.Handler
}

func NewTelemetryWorker(log *slog.Logger, telemetry chan domain.Message,
	handlers []observability.Handler) *TelemetryWorker {
	return &TelemetryWorker{log: log, telemetry: telemetry, handlers: handlers}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping telemetry worker")
			return ctx.Err()
		case msg, ok := <-w.telemetry:
			if !ok {
				return nil
			}
			for _, h := range w.handlers {
				h.Handle(msg)
			}
		}
	}
}
