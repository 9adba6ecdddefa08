package auth

import (
	"net/http"
)

// RequireAdmin gates operator routes. A missing or invalid marker redirects
// to the login page rather than failing hard; the redirect is a control-flow
// convenience, the marker check is the actual gate.
func (m *Manager) RequireAdmin(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AdminCookie)
			if err != nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			if err := m.VerifyAdminToken(r.Context(), cookie.Value); err != nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HasViewerAccess reports whether the request carries a valid marker for
// (raid, day).
func (m *Manager) HasViewerAccess(r *http.Request, raid, day string) bool {
	cookie, err := r.Cookie(AccessCookieName(raid))
	if err != nil {
		return false
	}
	return m.VerifyViewerToken(cookie.Value, raid, day) == nil
}
