package i18n

import "net/http"

// Middleware stores a localizer matching the Accept-Language header in every request context.
func (c *Catalog) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc := c.Localizer(r.Header.Get("Accept-Language"))
		next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), loc)))
	})
}
