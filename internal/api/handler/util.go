package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/skypro/simplebanking/internal/api/middleware"
	"github.com/skypro/simplebanking/internal/api/problem"
	"github.com/skypro/simplebanking/internal/domain"
	"github.com/skypro/simplebanking/internal/models"
)

var validate = validator.New()

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

func requestActor(r *http.Request) (int64, bool, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return 0, false, errors.New("missing user in auth context")
	}

	actorID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return 0, false, errors.New("invalid user_id in auth context")
	}

	return actorID, middleware.UserRoleFromContext(r.Context()) == domain.RoleAdmin, nil
}

// mapDomainError translates service errors into HTTP problem responses.
// NotFound and ownership misses map to 404, validation failures to 400,
// insufficient funds to 409.
func mapDomainError(err error) (status int, problemType, message string, ok bool) {
	switch {
	case errors.Is(err, models.ErrAccountNotFound):
		return http.StatusNotFound, "account/not-found", "Account not found", true
	case errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound, "user/not-found", "User not found", true
	case errors.Is(err, models.ErrInvalidAmount):
		return http.StatusBadRequest, "account/invalid-amount", "Amount must be positive", true
	case errors.Is(err, models.ErrWrongCurrency):
		return http.StatusBadRequest, "account/wrong-currency", "Account currencies do not match", true
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusConflict, "account/insufficient-funds", "Insufficient funds", true
	case errors.Is(err, models.ErrUsernameTaken):
		return http.StatusConflict, "user/username-taken", "Username already taken", true
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "auth/invalid-credentials", "Invalid username or password", true
	default:
		return 0, "", "", false
	}
}

type accountView struct {
	models.Account
	Display string `json:"display"`
}

func newAccountView(a models.Account) accountView {
	return accountView{
		Account: a,
		Display: domain.NewMoney(a.Balance, a.Currency).String(),
	}
}

func newAccountViews(accounts []models.Account) []accountView {
	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, newAccountView(a))
	}
	return views
}

type userView struct {
	ID        int64         `json:"id"`
	Username  string        `json:"username"`
	Role      string        `json:"role"`
	Accounts  []accountView `json:"accounts"`
	CreatedAt string        `json:"created_at"`
}

func newUserView(u models.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Accounts:  newAccountViews(u.Accounts),
		CreatedAt: u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func pathID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
