package api

import (
	"net/http"

	"github.com/vytor/studyflash/internal/logger"
)

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	user, session, err := s.AuthService.Signup(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		handleError(w, r, err)
		return
	}

	setSessionCookie(w, session, s.CookieSecure)
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	user, session, err := s.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("user logged in: user_id=%d", user.ID)
	setSessionCookie(w, session, s.CookieSecure)
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.AuthService.Logout(r.Context(), cookie.Value); err != nil {
			handleError(w, r, err)
			return
		}
	}
	clearSessionCookie(w, s.CookieSecure)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": userFromContext(r.Context())})
}
