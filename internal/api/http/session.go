package apihttp

import (
	"net/http"
	"time"

	"power-assets/internal/audit"
	"power-assets/internal/auth"
)

type verifyPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

type verifyPasswordResponse struct {
	Success   bool       `json:"success"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// verifyPassword checks the admin password. With a token secret set, a
// successful check also issues an admin token.
func (h *Handler) verifyPassword(w http.ResponseWriter, r *http.Request) {
	var req verifyPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if !h.deps.Verifier.Verify(req.Password) {
		h.deps.Logger.WithField("client_ip", audit.ClientIP(r)).Warn("admin password rejected")
		h.fail(w, r, auth.ErrUnauthorized)
		return
	}

	resp := verifyPasswordResponse{Success: true}
	if len(h.deps.TokenSecret) > 0 {
		token, expires, err := auth.IssueToken(h.deps.TokenSecret, auth.RoleAdmin, h.deps.TokenTTL, h.now())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		resp.Token = token
		resp.ExpiresAt = &expires
	}
	ctx := auth.WithIdentity(r.Context(), auth.RoleAdmin, auth.MethodPassword)
	h.logAudit(r.WithContext(ctx), audit.ActionLogin, audit.ResourceSession, 0, map[string]bool{"token": resp.Token != ""})
	writeJSON(w, http.StatusOK, resp)
}
