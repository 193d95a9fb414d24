package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = contextKey("requestID")
	requestLogKey   = contextKey("requestLog")
)

// requestLog holds attributes that middleware further down the chain
// attach to the completion line written by logRequest.
type requestLog struct {
	attrs []slog.Attr
}

// addLogAttrs is a no-op when the request did not pass through logRequest.
func addLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	if l, ok := ctx.Value(requestLogKey).(*requestLog); ok {
		l.attrs = append(l.attrs, attrs...)
	}
}

// logRequest writes one line per request once the handler has finished, when
// the chi route pattern and the response status are known. Server errors are
// logged at error level.
func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := &requestLog{}
		wrapper := newResponseWriterWrapper(w)
		start := time.Now()

		next.ServeHTTP(wrapper, r.WithContext(context.WithValue(r.Context(), requestLogKey, entry)))

		attrs := []slog.Attr{
			slog.String("request_id", getRequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("route", routeLabel(r)),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapper.statusCode),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", r.RemoteAddr),
		}
		attrs = append(attrs, entry.attrs...)

		level := slog.LevelInfo
		if wrapper.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		s.log.LogAttrs(r.Context(), level, "request completed", attrs...)
	})
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)))
	})
}

func getRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		return reqID
	}

	return ""
}
