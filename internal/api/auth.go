package api

import (
	"net/http"

	"github.com/rustyeddy/tradejournal/users"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		h.respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	token, err := h.auth.GenerateToken(u.ID, u.Email)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.log.Info().Str("user", u.Email).Msg("login")
	h.respondJSON(w, http.StatusOK, LoginResponse{Token: token, User: u})
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, currentUser(r.Context()))
}
