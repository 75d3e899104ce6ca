package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skypro/simplebanking/internal/api"
	"github.com/skypro/simplebanking/internal/api/middleware"
	"github.com/skypro/simplebanking/internal/config"
	"github.com/skypro/simplebanking/internal/domain"
	"github.com/skypro/simplebanking/internal/observability"
	"github.com/skypro/simplebanking/internal/repository/memstore"
	"github.com/skypro/simplebanking/internal/service"
)

const (
	testJWTSecret   = "test-secret-0123456789-test-secret"
	testJWTIssuer   = "simplebanking-test"
	testJWTAudience = "banking-api-test"
	testAdminKey    = "SUPER_SECRET_KEY_FROM_ADMIN"
)

func TestMain(m *testing.M) {
	observability.Init()
	os.Exit(m.Run())
}

func setupAPI() http.Handler {
	store := memstore.New()
	userSvc := service.NewUserService(store)
	accountSvc := service.NewAccountService(store)
	cfg := &config.Config{
		HTTPPort:           "0",
		JWTSecret:          testJWTSecret,
		JWTIssuer:          testJWTIssuer,
		JWTAudience:        testJWTAudience,
		AdminBootstrapKey:  testAdminKey,
		PublicRateLimitRPS: 1000,
		AuthRateLimitRPS:   1000,
	}
	router := api.NewRouter(cfg, zap.NewNop(), nil, userSvc, accountSvc)
	return router.Routes()
}

func generateTokenWithRole(userID int64, role string) string {
	now := time.Now()
	sub := fmt.Sprintf("%d", userID)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": sub,
		"role":    role,
		"iss":     testJWTIssuer,
		"aud":     testJWTAudience,
		"sub":     sub,
		"iat":     now.Unix(),
		"nbf":     now.Add(-30 * time.Second).Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		panic(err)
	}
	return signed
}

type accountResp struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Currency string `json:"currency"`
	Balance  int64  `json:"balance"`
	Display  string `json:"display"`
}

type userResp struct {
	ID       int64         `json:"id"`
	Username string        `json:"username"`
	Role     string        `json:"role"`
	Accounts []accountResp `json:"accounts"`
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createUser(t *testing.T, h http.Handler, username string) userResp {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/user", "",
		map[string]string{"username": username, "password": "password123"},
		map[string]string{middleware.AdminKeyHeader: testAdminKey})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var u userResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	return u
}

func login(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/auth/login", "",
		map[string]string{"username": username, "password": "password123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])
	return resp["token"]
}

func accountIn(t *testing.T, u userResp, currency string) accountResp {
	t.Helper()
	for _, a := range u.Accounts {
		if a.Currency == currency {
			return a
		}
	}
	t.Fatalf("no %s account in response for user %d", currency, u.ID)
	return accountResp{}
}

func TestUnauthorizedAccess(t *testing.T) {
	h := setupAPI()
	rec := doJSON(t, h, http.MethodGet, "/account/123", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestUnknownRouteReturns404(t *testing.T) {
	h := setupAPI()
	rec := doJSON(t, h, http.MethodGet, "/non-existent-endpoint", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUserWithAdminKey(t *testing.T) {
	h := setupAPI()
	u := createUser(t, h, "newuser1")

	assert.Equal(t, "newuser1", u.Username)
	assert.Equal(t, domain.RoleUser, u.Role)
	require.Len(t, u.Accounts, len(domain.Currencies()))
	for _, currency := range domain.Currencies() {
		a := accountIn(t, u, string(currency))
		assert.Equal(t, int64(0), a.Balance)
	}
}

func TestCreateUserAuthorizationMatrix(t *testing.T) {
	h := setupAPI()
	body := map[string]string{"username": "newuser", "password": "password123"}

	t.Run("no credentials", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/user", "", body, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong admin key", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/user", "", body,
			map[string]string{middleware.AdminKeyHeader: "guess"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin role token", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/user", generateTokenWithRole(99, domain.RoleAdmin), body, nil)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("user role token", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/user", generateTokenWithRole(99, domain.RoleUser),
			map[string]string{"username": "another", "password": "password123"}, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestCreateUserValidation(t *testing.T) {
	h := setupAPI()

	rec := doJSON(t, h, http.MethodPost, "/user", "",
		map[string]string{"password": "strongpassword"},
		map[string]string{middleware.AdminKeyHeader: testAdminKey})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/user", "",
		map[string]string{"username": "nopassword"},
		map[string]string{middleware.AdminKeyHeader: testAdminKey})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUserDuplicate(t *testing.T) {
	h := setupAPI()
	createUser(t, h, "alice")

	rec := doJSON(t, h, http.MethodPost, "/user", "",
		map[string]string{"username": "alice", "password": "password123"},
		map[string]string{middleware.AdminKeyHeader: testAdminKey})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := setupAPI()
	createUser(t, h, "alice")

	rec := doJSON(t, h, http.MethodPost, "/auth/login", "",
		map[string]string{"username": "alice", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/auth/login", "",
		map[string]string{"username": "nobody", "password": "password123"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetAccountOwnership(t *testing.T) {
	h := setupAPI()
	alice := createUser(t, h, "alice")
	bob := createUser(t, h, "bob")
	aliceToken := login(t, h, "alice")

	aliceUSD := accountIn(t, alice, "USD")
	bobUSD := accountIn(t, bob, "USD")

	rec := doJSON(t, h, http.MethodGet, fmt.Sprintf("/account/%d", aliceUSD.ID), aliceToken, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got accountResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "0.00 USD", got.Display)

	// Someone else's account id reads as missing, not forbidden.
	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/account/%d", bobUSD.ID), aliceToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAccounts(t *testing.T) {
	h := setupAPI()
	createUser(t, h, "alice")
	token := login(t, h, "alice")

	rec := doJSON(t, h, http.MethodGet, "/account", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []accountResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, len(domain.Currencies()))
}

func TestDepositAndWithdraw(t *testing.T) {
	h := setupAPI()
	alice := createUser(t, h, "alice")
	token := login(t, h, "alice")
	usd := accountIn(t, alice, "USD")

	depositPath := fmt.Sprintf("/account/deposit/%d", usd.ID)
	withdrawPath := fmt.Sprintf("/account/withdraw/%d", usd.ID)

	rec := doJSON(t, h, http.MethodPost, depositPath, token, map[string]int64{"amount": 1000}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got accountResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1000), got.Balance)
	assert.Equal(t, "10.00 USD", got.Display)

	rec = doJSON(t, h, http.MethodPost, depositPath, token, map[string]int64{"amount": -50}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, withdrawPath, token, map[string]int64{"amount": 2000}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, withdrawPath, token, map[string]int64{"amount": 1000}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(0), got.Balance)
}

func TestTransferFlow(t *testing.T) {
	h := setupAPI()
	alice := createUser(t, h, "alice")
	bob := createUser(t, h, "bob")
	aliceToken := login(t, h, "alice")
	bobToken := login(t, h, "bob")

	aliceUSD := accountIn(t, alice, "USD")
	aliceEUR := accountIn(t, alice, "EUR")
	bobUSD := accountIn(t, bob, "USD")

	rec := doJSON(t, h, http.MethodPost, fmt.Sprintf("/account/deposit/%d", aliceUSD.ID), aliceToken, map[string]int64{"amount": 100}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/account/deposit/%d", bobUSD.ID), bobToken, map[string]int64{"amount": 10}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	balance := func(token string, id int64) accountResp {
		t.Helper()
		rec := doJSON(t, h, http.MethodGet, fmt.Sprintf("/account/%d", id), token, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var a accountResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
		return a
	}

	t.Run("successful transfer", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut,
			fmt.Sprintf("/account/%d/transfer/%d/30", aliceUSD.ID, bobUSD.ID), aliceToken, nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		assert.Equal(t, int64(70), balance(aliceToken, aliceUSD.ID).Balance)
		assert.Equal(t, int64(40), balance(bobToken, bobUSD.ID).Balance)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut,
			fmt.Sprintf("/account/%d/transfer/%d/10", aliceUSD.ID, aliceEUR.ID), aliceToken, nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, int64(70), balance(aliceToken, aliceUSD.ID).Balance)
		assert.Equal(t, int64(0), balance(aliceToken, aliceEUR.ID).Balance)
	})

	t.Run("nonexistent destination", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut,
			fmt.Sprintf("/account/%d/transfer/-2/100", aliceUSD.ID), aliceToken, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("nonexistent source", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut,
			fmt.Sprintf("/account/-1/transfer/%d/100", bobUSD.ID), aliceToken, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut,
			fmt.Sprintf("/account/%d/transfer/%d/10", aliceUSD.ID, bobUSD.ID), "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestDeleteUserRequiresAdmin(t *testing.T) {
	h := setupAPI()
	alice := createUser(t, h, "alice")
	aliceToken := login(t, h, "alice")

	rec := doJSON(t, h, http.MethodDelete, fmt.Sprintf("/user/%d", alice.ID), aliceToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := generateTokenWithRole(999, domain.RoleAdmin)
	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/user/%d", alice.ID), adminToken, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/user/%d", alice.ID), adminToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListUsers(t *testing.T) {
	h := setupAPI()
	createUser(t, h, "alice")
	createUser(t, h, "bob")
	token := login(t, h, "alice")

	rec := doJSON(t, h, http.MethodGet, "/user", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []userResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.Len(t, u.Accounts, len(domain.Currencies()))
	}

	rec = doJSON(t, h, http.MethodGet, "/user", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := setupAPI()

	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/metrics", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}
