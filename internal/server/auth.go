package server

import (
	"crypto/subtle"
	"net/http"
)

// requireAdmin gates administrative endpoints behind HTTP basic auth.
// Credentials come from configuration; real user management happens
// outside this service.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !credentialsMatch(user, pass, s.cfg.AdminUser, s.cfg.AdminPass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Login Required"`)
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		next(w, r)
	}
}

func credentialsMatch(user, pass, wantUser, wantPass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass)) == 1
	return userOK && passOK
}
