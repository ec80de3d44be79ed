package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub-dev/taskhub/internal/auth"
	"github.com/taskhub-dev/taskhub/internal/domain/user"
	httpx "github.com/taskhub-dev/taskhub/internal/http"
	"github.com/taskhub-dev/taskhub/internal/http/handlers"
	"github.com/taskhub-dev/taskhub/internal/http/middlewares"
	"github.com/taskhub-dev/taskhub/internal/repo/memory"
	"github.com/taskhub-dev/taskhub/internal/security"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// envelope mirrors the uniform response wrapper.
type envelope struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Count   int                        `json:"count"`
	Data    map[string]json.RawMessage `json:"data"`
	Errors  []handlers.FieldError      `json:"errors"`
}

type testEnv struct {
	router *gin.Engine
	users  *memory.UsersRepo
	tasks  *memory.TasksRepo
	jwt    *auth.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := memory.NewUsersRepo()
	tasks := memory.NewTasksRepo(users)

	jwtManager := auth.NewManager("test-secret-key", time.Hour)
	authMW := middlewares.NewAuthMiddleware(jwtManager)

	r := gin.New()
	httpx.MountRoutes(r, authMW, handlers.NewAuthHandler(users, jwtManager, nil), handlers.NewTasksHandler(tasks))

	return &testEnv{
		router: r,
		users:  users,
		tasks:  tasks,
		jwt:    jwtManager,
	}
}

// seedUser creates an account directly in the store and returns it with a
// valid token, bypassing the register endpoint.
func (e *testEnv) seedUser(t *testing.T, email string, role user.Role) (user.User, string) {
	t.Helper()

	hash, err := security.HashPassword("secret1")

	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	u, err := e.users.Create(context.Background(), email, hash, role)

	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}

	token, err := e.jwt.GenerateToken(u)

	if err != nil {
		t.Fatalf("token for %s: %v", email, err)
	}

	return u, token
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	return w
}

// newRequest builds a bodyless request with a raw Authorization header,
// for exercising the auth middleware's header parsing.
func newRequest(t *testing.T, method, path, authHeader string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)

	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	return req
}

func doRaw(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope

	err := json.Unmarshal(w.Body.Bytes(), &env)

	if err != nil {
		t.Fatalf("unmarshal envelope: %v body=%s", err, w.Body.String())
	}

	return env
}

func dataField[T any](t *testing.T, env envelope, key string) T {
	t.Helper()

	raw, ok := env.Data[key]

	if !ok {
		t.Fatalf("response data has no %q key: %+v", key, env.Data)
	}

	var out T

	err := json.Unmarshal(raw, &out)

	if err != nil {
		t.Fatalf("unmarshal data.%s: %v", key, err)
	}

	return out
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, want, w.Body.String())
	}
}
