package http

import (
	"net/http"

	"asesor/internal/core"
)

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, "register", err)
		return
	}
	username := sanitizeInput(req.Username)
	if err := s.deps.Accounts.Register(r.Context(), username, req.Password, req.PasswordConfirm); err != nil {
		writeError(w, r, "register", err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(map[string]string{"username": username}).
		Write(w, r)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, "login", err)
		return
	}
	tok, err := s.deps.Accounts.Login(r.Context(), sanitizeInput(req.Username), req.Password)
	if err != nil {
		writeError(w, r, "login", err)
		return
	}
	NewJSONResponse().Body(tok).Write(w, r)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]interface{}{
		"categories": core.Categories,
		"kinds":      []core.Kind{core.Expense, core.Income},
	}).Write(w, r)
}
