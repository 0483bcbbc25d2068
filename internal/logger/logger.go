package logger

import (
	"context"
	"io"
	"os"
	"time"

	appCtx "github.com/chat-ops/chat-relay/internal/pkg/context"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var Log zerolog.Logger

func Init() {
	InitWithWriter(os.Stdout)
}

func InitWithWriter(w io.Writer) {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	format := os.Getenv("LOG_FORMAT") // "json" or "console"
	if format == "" {
		format = "json"
	}

	var l zerolog.Logger
	if format == "console" {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger().Level(level)
	} else {
		l = zerolog.New(w).With().Timestamp().Logger().Level(level)
	}

	Log = l
	zlog.Logger = l
}

// Ctx returns a logger carrying whatever correlation identifiers the context
// holds: request id, trace id, and (once the placeholder exists) the
// correlation id tying the inbound turn to the later callback turn.
func Ctx(ctx context.Context) *zerolog.Logger {
	lc := Log.With()
	if reqID := appCtx.GetRequestID(ctx); reqID != "" {
		lc = lc.Str("request_id", reqID)
	}
	if traceID := appCtx.GetTraceID(ctx); traceID != "" {
		lc = lc.Str("trace_id", traceID)
	}
	if corrID := appCtx.GetCorrelationID(ctx); corrID != "" {
		lc = lc.Str("correlation_id", corrID)
	}
	l := lc.Logger()
	return &l
}
