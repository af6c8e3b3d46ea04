package api

import "net/http"

// requireApprovals wraps a handler and returns 503 if manual
// approve/decline is not configured.
func (s *Server) requireApprovals(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Approvals == nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "manual approvals not configured")
			return
		}
		next(w, r)
	}
}
