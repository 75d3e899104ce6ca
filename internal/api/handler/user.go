package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/skypro/simplebanking/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required,min=3,max=64"`
		Password string `json:"password" validate:"required,min=8"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/validation-failed", "username and password are required")
		return
	}

	user, err := h.svc.CreateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		if status, pType, msg, ok := mapDomainError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("create user failed", zap.Error(err), zap.String("username", req.Username))
		RespondError(w, r, http.StatusInternalServerError, "user/create-failed", "Failed to create user")
		return
	}

	RespondJSON(w, http.StatusOK, newUserView(*user))
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		zap.L().Error("list users failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "user/list-failed", "Failed to list users")
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	RespondJSON(w, http.StatusOK, views)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-user-id", "Invalid user id")
		return
	}

	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		if status, pType, msg, ok := mapDomainError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("delete user failed", zap.Error(err), zap.Int64("user_id", id))
		RespondError(w, r, http.StatusInternalServerError, "user/delete-failed", "Failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
