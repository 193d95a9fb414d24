package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

const sessionIDKey = contextKey("sessionID")

// editSession ties moderation and response forms to a browser session so that
// the version a form was rendered with can be checked when it is submitted.
func (s *Server) editSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string

		if c, err := r.Cookie(s.session.CookieName); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sessionID = c.Value
			}
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		http.SetCookie(w, &http.Cookie{
			Name:     s.session.CookieName,
			Value:    sessionID,
			Path:     "/",
			MaxAge:   int(s.session.MaxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		addLogAttrs(r.Context(), slog.String("session_id", sessionID))

		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}

	return ""
}
