package amqp

import (
	"io"
	"log/slog"

	applog "asesor/internal/log"
)

func testLogger() *applog.Logger {
	return applog.Wrap(slog.New(slog.NewTextHandler(io.Discard, nil)), applog.ComponentAMQP)
}
