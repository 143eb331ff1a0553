package app

import (
	"context"

	"github.com/specialistvlad/evalgrid/internal/ctxlog"
	"github.com/specialistvlad/evalgrid/internal/events"
)

// eventSink fans events out to the metrics collector and, when configured,
// a socket.io server. A publisher that cannot connect is logged and left
// out; it never blocks the run.
func (app *App) eventSink(ctx context.Context) (events.Sink, func()) {
	logger := ctxlog.FromContext(ctx)
	sinks := events.Fanout{app.metrics}
	if app.config.EventsURL == "" {
		return sinks, func() {}
	}

	sio, err := events.DialSocketIO(ctx, events.SocketIOOptions{URL: app.config.EventsURL})
	if err != nil {
		logger.Warn("📡 Event publisher unavailable, continuing without it.", "url", app.config.EventsURL, "error", err)
		return sinks, func() {}
	}
	logger.Info("📡 Publishing run events.", "url", app.config.EventsURL)
	return append(sinks, sio), func() {
		if err := sio.Close(); err != nil {
			logger.Warn("Closing event publisher failed.", "error", err)
		}
	}
}
