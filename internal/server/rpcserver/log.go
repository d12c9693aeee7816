package rpcserver

import (
	"log"
	"log/slog"

	"github.com/yndnr/mixrelay-go/internal/telemetry/logger"
)

// slogErrorLog routes net/http's internal errors into the structured log.
func slogErrorLog(l logger.Logger) *log.Logger {
	return slog.NewLogLogger(logger.Slog(l).Handler(), slog.LevelWarn)
}
