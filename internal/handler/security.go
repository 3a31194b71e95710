package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmarulanda/shoestore/internal/domain/user"
)

type claimsKey struct{}

// claimsFrom returns the authenticated claims stored by authed, or nil on
// an unauthenticated request.
func claimsFrom(ctx context.Context) *user.Claims {
	c, _ := ctx.Value(claimsKey{}).(*user.Claims)
	return c
}

// authed verifies the Bearer token and stores the claims in the request
// context before calling next.
func (h *Handler) authed(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" {
			respondError(w, r, http.StatusUnauthorized, "TOKEN_REQUIRED", nil)
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			respondError(w, r, http.StatusUnauthorized, "TOKEN_INVALID_OR_EXPIRED", nil)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next(w, r.WithContext(ctx))
	})
}

// admin verifies the token and additionally requires the ADMIN role.
func (h *Handler) admin(next http.HandlerFunc) http.Handler {
	return h.authed(func(w http.ResponseWriter, r *http.Request) {
		if claimsFrom(r.Context()).Role != user.RoleAdmin {
			respondError(w, r, http.StatusForbidden, "ADMIN_REQUIRED", nil)
			return
		}
		next(w, r)
	})
}
