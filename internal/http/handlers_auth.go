package http

import (
	"net/http"
	"time"

	"ledger/internal/core"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Currency string `json:"currency"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(_ http.ResponseWriter, r *http.Request) *ResponseBuilder {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		return s.fail(r, err)
	}
	user, err := s.svc.Registration.Register(r.Context(),
		sanitizeInput(req.Username), sanitizeInput(req.Email), req.Password, sanitizeInput(req.Currency))
	if err != nil {
		return s.fail(r, err)
	}
	return Created(newUserView(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) *ResponseBuilder {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return s.fail(r, err)
	}
	session, err := s.svc.Registration.Login(r.Context(), sanitizeInput(req.Username), req.Password)
	if err != nil {
		return s.fail(r, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return OK(sessionView{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

func (s *Server) handleLogout(r *http.Request, _ core.User) *ResponseBuilder {
	if err := s.svc.Registration.Logout(r.Context(), sessionToken(r)); err != nil {
		return s.fail(r, err)
	}
	// expire the browser cookie as well
	return OK(nil).Header("Set-Cookie", (&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	}).String())
}
