package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one line per request through logger. The client
// address is never logged: anonymous senders must not be traceable.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return chimw.RequestLogger(&logFormatter{logger: logger})
}

type logFormatter struct {
	logger *slog.Logger
}

func (f *logFormatter) NewLogEntry(r *http.Request) chimw.LogEntry {
	return &logEntry{
		logger: f.logger.With(
			slog.String("request_id", chimw.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		),
	}
}

type logEntry struct {
	logger *slog.Logger
}

func (e *logEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	e.logger.Info("request",
		slog.Int("status", status),
		slog.Int("bytes", bytes),
		slog.Duration("elapsed", elapsed))
}

func (e *logEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error("panic",
		slog.Any("panic", v),
		slog.String("stack", string(stack)))
}
