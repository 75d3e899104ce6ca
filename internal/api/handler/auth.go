package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/skypro/simplebanking/internal/api/middleware"
	"github.com/skypro/simplebanking/internal/service"
)

type AuthHandler struct {
	svc  *service.UserService
	auth *middleware.Auth
}

func NewAuthHandler(svc *service.UserService, auth *middleware.Auth) *AuthHandler {
	return &AuthHandler{svc: svc, auth: auth}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/validation-failed", "username and password are required")
		return
	}

	user, err := h.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if status, pType, msg, ok := mapDomainError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("login failed", zap.Error(err), zap.String("username", req.Username))
		RespondError(w, r, http.StatusInternalServerError, "auth/login-failed", "Failed to log in")
		return
	}

	token, err := h.auth.IssueToken(user.ID, user.Role)
	if err != nil {
		zap.L().Error("token signing failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/token-failed", "Failed to sign token")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"token": token})
}
