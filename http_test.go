package auth_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	auth "github.com/fahoumeabdelali/cfpnc-auth"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T, cfg *testConfig, opts auth.AppOptions) (*fiber.App, auth.RepositoryManager) {
	t.Helper()

	auther, repo := setupAuther(t, cfg)
	opts.Logger = auth.NopLogger{}

	return auth.NewApp(auther, auther.TokenService(), opts), repo
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers ...string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	out := map[string]any{}
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}

	return res.StatusCode, out
}

func TestHTTP_Healthz(t *testing.T) {
	app, _ := setupApp(t, newTestConfig(), auth.AppOptions{})

	status, body := doJSON(t, app, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestHTTP_Login(t *testing.T) {
	app, repo := setupApp(t, newTestConfig(), auth.AppOptions{})
	seedUser(t, repo, "CD100", "cd100@example.com", "s3cret", "admin", "formateur")

	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{
			name:    "empty body",
			body:    nil,
			status:  400,
			message: "Bad numcin or password",
		},
		{
			name:    "missing password",
			body:    map[string]any{"numcin": "CD100"},
			status:  400,
			message: "Bad numcin or password",
		},
		{
			name:    "unknown account",
			body:    map[string]any{"numcin": "nobody", "password": "s3cret"},
			status:  404,
			message: "This account does not exist !",
		},
		{
			name:    "wrong password",
			body:    map[string]any{"numcin": "CD100", "password": "bad"},
			status:  401,
			message: "Password wrong",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, http.MethodPost, "/auth/login", tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, body["error"])
			assert.EqualValues(t, tt.status, body["code"])
			assert.NotEmpty(t, body["request_id"])
		})
	}

	t.Run("success", func(t *testing.T) {
		status, body := doJSON(t, app, http.MethodPost, "/auth/login", map[string]any{
			"numcin":   "CD100",
			"password": "s3cret",
		})
		require.Equal(t, http.StatusOK, status)

		assert.NotEmpty(t, body["token"])
		assert.Equal(t, "CD100", body["numcin"])
		assert.ElementsMatch(t, []any{"admin", "formateur"}, body["roles"])
		assert.ElementsMatch(t, []any{"users.read", "users.write", "roles.manage", "courses.write"}, body["permissions"])
	})
}

func TestHTTP_MalformedBody(t *testing.T) {
	app, _ := setupApp(t, newTestConfig(), auth.AppOptions{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHTTP_ForgotPassword(t *testing.T) {
	app, repo := setupApp(t, newTestConfig(), auth.AppOptions{})
	seedUser(t, repo, "CD200", "cd200@example.com", "s3cret", "stagiaire")

	status, body := doJSON(t, app, http.MethodPost, "/auth/forgot-password", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Bad email", body["error"])

	status, body = doJSON(t, app, http.MethodPost, "/auth/forgot-password", map[string]any{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "This account does not exists !", body["error"])

	status, body = doJSON(t, app, http.MethodPost, "/auth/forgot-password", map[string]any{"email": "cd200@example.com"})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["access_token"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cd200@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "PasswordHash")
}

func TestHTTP_Register(t *testing.T) {
	app, repo := setupApp(t, newTestConfig(), auth.AppOptions{})
	seedUser(t, repo, "CD300", "taken@example.com", "s3cret")

	payload := func(email, role string) map[string]any {
		return map[string]any{
			"numcin":          "CD301",
			"name":            "Salma",
			"email":           email,
			"password":        "p4ss",
			"confirmPassword": "p4ss",
			"role":            role,
		}
	}

	status, body := doJSON(t, app, http.MethodPost, "/auth/register", map[string]any{"name": "Salma"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing Data", body["error"])

	status, body = doJSON(t, app, http.MethodPost, "/auth/register", payload("taken@example.com", "formateur"))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "email already exists !", body["error"])

	status, body = doJSON(t, app, http.MethodPost, "/auth/register", payload("salma@example.com", "ghost"))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "This role does not exists !", body["error"])

	status, body = doJSON(t, app, http.MethodPost, "/auth/register", payload("salma@example.com", "formateur"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User Created", body["message"])

	status, _ = doJSON(t, app, http.MethodPost, "/auth/login", map[string]any{"numcin": "CD301", "password": "p4ss"})
	assert.Equal(t, http.StatusOK, status)
}

func TestHTTP_UpdatePassword_AllScope(t *testing.T) {
	app, repo := setupApp(t, newTestConfig(), auth.AppOptions{})
	seedUser(t, repo, "CD400", "cd400@example.com", "one")
	seedUser(t, repo, "CD401", "cd401@example.com", "two")

	status, body := doJSON(t, app, http.MethodPut, "/auth/password", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing Data", body["error"])

	status, body = doJSON(t, app, http.MethodPut, "/auth/password", map[string]any{"password": "shared"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User Updated", body["message"])

	for _, numcin := range []string{"CD400", "CD401"} {
		status, _ := doJSON(t, app, http.MethodPost, "/auth/login", map[string]any{"numcin": numcin, "password": "shared"})
		assert.Equal(t, http.StatusOK, status, numcin)
	}
}

func TestHTTP_UpdatePassword_SelfScope(t *testing.T) {
	cfg := newTestConfig()
	cfg.scope = auth.PasswordUpdateSelf
	app, repo := setupApp(t, cfg, auth.AppOptions{})
	seedUser(t, repo, "CD500", "cd500@example.com", "one")
	seedUser(t, repo, "CD501", "cd501@example.com", "two")

	status, body := doJSON(t, app, http.MethodPut, "/auth/password", map[string]any{"password": "new"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing or malformed JWT", body["error"])

	status, _ = doJSON(t, app, http.MethodPut, "/auth/password", map[string]any{"password": "new"},
		fiber.HeaderAuthorization, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, forgot := doJSON(t, app, http.MethodPost, "/auth/forgot-password", map[string]any{"email": "cd500@example.com"})
	require.Equal(t, http.StatusOK, status)
	resetToken, _ := forgot["access_token"].(string)
	require.NotEmpty(t, resetToken)

	status, _ = doJSON(t, app, http.MethodPut, "/auth/password", map[string]any{"password": "stolen"},
		fiber.HeaderAuthorization, "Bearer "+resetToken)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, login := doJSON(t, app, http.MethodPost, "/auth/login", map[string]any{"numcin": "CD500", "password": "one"})
	require.Equal(t, http.StatusOK, status)
	token, _ := login["token"].(string)

	status, body = doJSON(t, app, http.MethodPut, "/auth/password", map[string]any{"password": "new"},
		fiber.HeaderAuthorization, "Bearer "+token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User Updated", body["message"])

	status, _ = doJSON(t, app, http.MethodPost, "/auth/login", map[string]any{"numcin": "CD500", "password": "new"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodPost, "/auth/login", map[string]any{"numcin": "CD501", "password": "two"})
	assert.Equal(t, http.StatusOK, status)
}

func TestHTTP_LoginRateLimit(t *testing.T) {
	app, _ := setupApp(t, newTestConfig(), auth.AppOptions{LoginRateLimit: 2})

	for i := 0; i < 2; i++ {
		status, _ := doJSON(t, app, http.MethodPost, "/auth/login", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, status)
	}

	status, body := doJSON(t, app, http.MethodPost, "/auth/login", map[string]any{})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too many login attempts", body["error"])
}

func TestHTTP_Prefix(t *testing.T) {
	app, _ := setupApp(t, newTestConfig(), auth.AppOptions{Prefix: "/api/v1"})

	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/login", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodPost, "/auth/login", map[string]any{})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestErrorHandler_HidesInternalDetails(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: auth.NewErrorHandler(auth.NopLogger{})})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return assert.AnError
	})

	status, body := doJSON(t, app, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "An unexpected server error occurred", body["error"])
	assert.NotContains(t, body["error"], assert.AnError.Error())
}
