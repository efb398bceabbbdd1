package logging

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	// RequestIDKey is the key used to store request IDs in context
	RequestIDKey contextKey = "request_id"
)

// Config defines logging configuration
type Config struct {
	// Level is the logging level (debug, info, warn, error)
	Level string
	// Pretty determines if logs should be formatted for human readability
	Pretty bool
	// Output is where logs are written (defaults to os.Stdout)
	Output io.Writer
}

// DefaultConfig returns the default logging configuration
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Pretty: false,
		Output: os.Stdout,
	}
}

// Setup configures global logging based on the provided config
func Setup(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// FromContext extracts a logger with request context
func FromContext(ctx context.Context) zerolog.Logger {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return log.With().Str("request_id", requestID).Logger()
	}
	return log.Logger
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware returns an HTTP middleware that logs each request and threads
// the X-Request-ID header through the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger := log.With().
			Str("http.method", r.Method).
			Str("http.path", r.URL.Path).
			Logger()

		ctx := r.Context()
		if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
			logger = logger.With().Str("request_id", requestID).Logger()
			ctx = context.WithValue(ctx, RequestIDKey, requestID)
		}

		logger.Debug().Msg("Request received")

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r.WithContext(ctx))

		duration := time.Since(start)

		logEvent := logger.Info()
		if recorder.status >= http.StatusInternalServerError {
			logEvent = logger.Error()
		}

		logEvent.Dur("duration", duration).
			Int("http.status", recorder.status).
			Msg("Request completed")
	})
}
