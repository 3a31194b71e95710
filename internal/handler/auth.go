package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/dmarulanda/shoestore/internal/domain/user"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || len(req.Password) < 6 {
		respondError(w, r, http.StatusBadRequest, "INVALID_CREDENTIALS_FORMAT", nil)
		return
	}

	u, err := h.users.Register(r.Context(), user.RegisterRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			respondError(w, r, http.StatusConflict, "EMAIL_TAKEN", nil)
			return
		}
		internalError(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, map[string]any{"user": toUserResponse(u)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	u, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			respondError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", nil)
			return
		}
		internalError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserResponse(u),
	})
}
