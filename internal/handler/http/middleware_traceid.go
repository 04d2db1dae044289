package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// traceIDHeader carries the request's trace id in both directions.
// Sync clients echo it back on retries so related attempts can be
// correlated in the server logs.
const traceIDHeader = "X-Trace-ID"

// withTraceID tags every request with a trace id. A client-supplied
// X-Trace-ID is honored, otherwise a fresh UUID is minted. The id is
// bound to the request-scoped logger as the "trace_id" field and echoed
// in the response header so clients can report it.
func (h *Handler) withTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		l := h.logger.GetChildLogger()
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("trace_id", traceID)
		})
		r = r.WithContext(l.WithContext(r.Context()))

		w.Header().Set(traceIDHeader, traceID)
		next.ServeHTTP(w, r)
	})
}
