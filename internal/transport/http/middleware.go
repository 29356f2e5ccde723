package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	userHeader = "X-User-ID"
	userCookie = "esq_uid"
	cookieAge  = 365 * 24 * time.Hour
	maxUserID  = 128
)

type userKey struct{}

// UserID returns the caller identity resolved by the identity middleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// identity resolves the caller from the X-User-ID header, then the esq_uid cookie,
// and otherwise mints a uuid and sets it as a cookie.
func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(userHeader))
		if id == "" {
			if c, err := r.Cookie(userCookie); err == nil {
				id = strings.TrimSpace(c.Value)
			}
		}
		if id == "" || len(id) > maxUserID {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     userCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cookieAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, id)))
	})
}

// accessLog writes one entry per request with the matched route pattern.
func accessLog(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			log.WithFields(logrus.Fields{
				"method":      r.Method,
				"route":       route,
				"status":      ww.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			}).Info("http request")
		})
	}
}
