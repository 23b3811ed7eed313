package api

import "net/http"

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	progress, err := s.ProgressService.GetProgress(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
