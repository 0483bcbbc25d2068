package rest

import (
	"net/http"
	"strings"

	appCtx "github.com/chat-ops/chat-relay/internal/pkg/context"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	traceHeader     = "X-Cloud-Trace-Context"
)

// RequestID injects a request id into context and response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, rid)

		ctx := appCtx.WithRequestID(r.Context(), rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TraceContext extracts the trace id from the transport trace header. The
// header shape is "TRACE_ID/SPAN_ID;o=1"; only the first segment is kept.
// Falls back to the request id so every turn has some trace identity.
func TraceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if i := strings.IndexByte(traceID, '/'); i >= 0 {
			traceID = traceID[:i]
		}
		if traceID == "" {
			traceID = appCtx.GetRequestID(r.Context())
		}

		ctx := appCtx.WithTraceID(r.Context(), traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
