package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskhub-dev/taskhub/internal/config"
	"github.com/taskhub-dev/taskhub/internal/db"
	httpx "github.com/taskhub-dev/taskhub/internal/http"
)

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		JWTSecret:      "test-secret-key",
		JWTExpiryDays:  7,
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxBodyBytes:   1 << 20,
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")

	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping integration test")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)

	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	if err := db.Bootstrap(ctx, pool); err != nil {
		t.Fatalf("failed to bootstrap schema: %v", err)
	}

	_, err = pool.Exec(ctx, `TRUNCATE tasks, users RESTART IDENTITY CASCADE`)

	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return httpx.NewRouter(logger, pool, testConfig(), nil), pool
}

func doRequest(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if method == http.MethodPost || method == http.MethodPut {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

type envelope struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Count   int                        `json:"count"`
	Data    map[string]json.RawMessage `json:"data"`
}

func mustEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope

	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}

	return env
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, want, w.Body.String())
	}
}

type taskBody struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	CreatorEmail string `json:"creator_email"`
}

func TestFullTaskLifecycle(t *testing.T) {
	router, _ := setupRouter(t)

	// register defaults role to user
	w := doRequest(router, http.MethodPost, "/api/v1/auth/register", `{"email":"a@x.com","password":"secret1"}`, "")
	mustStatus(t, w, http.StatusCreated)

	// login yields a usable token
	w = doRequest(router, http.MethodPost, "/api/v1/auth/login", `{"email":"a@x.com","password":"secret1"}`, "")
	mustStatus(t, w, http.StatusOK)

	var token string
	if err := json.Unmarshal(mustEnvelope(t, w).Data["token"], &token); err != nil {
		t.Fatalf("token: %v", err)
	}

	// create defaults status to pending
	w = doRequest(router, http.MethodPost, "/api/v1/tasks", `{"title":"Buy milk"}`, token)
	mustStatus(t, w, http.StatusCreated)

	var created taskBody
	if err := json.Unmarshal(mustEnvelope(t, w).Data["task"], &created); err != nil {
		t.Fatalf("task: %v", err)
	}

	if created.Status != "pending" {
		t.Errorf("status: got %q, want pending", created.Status)
	}

	// the join annotates the creator's email
	w = doRequest(router, http.MethodGet, "/api/v1/tasks", "", token)
	mustStatus(t, w, http.StatusOK)

	listEnv := mustEnvelope(t, w)

	if listEnv.Count != 1 {
		t.Fatalf("count: got %d, want 1", listEnv.Count)
	}

	var listed []taskBody
	if err := json.Unmarshal(listEnv.Data["tasks"], &listed); err != nil {
		t.Fatalf("tasks: %v", err)
	}

	if listed[0].CreatorEmail != "a@x.com" {
		t.Errorf("creator_email: got %q, want a@x.com", listed[0].CreatorEmail)
	}

	// partial update keeps the title
	path := fmt.Sprintf("/api/v1/tasks/%d", created.ID)

	w = doRequest(router, http.MethodPut, path, `{"status":"completed"}`, token)
	mustStatus(t, w, http.StatusOK)

	var updated taskBody
	if err := json.Unmarshal(mustEnvelope(t, w).Data["task"], &updated); err != nil {
		t.Fatalf("task: %v", err)
	}

	if updated.Title != "Buy milk" || updated.Status != "completed" {
		t.Errorf("after update: got %+v", updated)
	}

	// delete, then the id is gone
	w = doRequest(router, http.MethodDelete, path, "", token)
	mustStatus(t, w, http.StatusOK)

	w = doRequest(router, http.MethodGet, path, "", token)
	mustStatus(t, w, http.StatusNotFound)
}

func TestCrossUserAccess(t *testing.T) {
	router, _ := setupRouter(t)

	register := func(body string) string {
		w := doRequest(router, http.MethodPost, "/api/v1/auth/register", body, "")
		mustStatus(t, w, http.StatusCreated)

		var token string
		if err := json.Unmarshal(mustEnvelope(t, w).Data["token"], &token); err != nil {
			t.Fatalf("token: %v", err)
		}

		return token
	}

	tokenA := register(`{"email":"a@x.com","password":"secret1"}`)
	tokenB := register(`{"email":"b@x.com","password":"secret1"}`)
	tokenAdmin := register(`{"email":"admin@x.com","password":"secret1","role":"admin"}`)

	w := doRequest(router, http.MethodPost, "/api/v1/tasks", `{"title":"A's task"}`, tokenA)
	mustStatus(t, w, http.StatusCreated)

	var created taskBody
	if err := json.Unmarshal(mustEnvelope(t, w).Data["task"], &created); err != nil {
		t.Fatalf("task: %v", err)
	}

	path := fmt.Sprintf("/api/v1/tasks/%d", created.ID)

	// another user is denied all three operations
	w = doRequest(router, http.MethodGet, path, "", tokenB)
	mustStatus(t, w, http.StatusForbidden)

	w = doRequest(router, http.MethodPut, path, `{"status":"completed"}`, tokenB)
	mustStatus(t, w, http.StatusForbidden)

	w = doRequest(router, http.MethodDelete, path, "", tokenB)
	mustStatus(t, w, http.StatusForbidden)

	// the admin is allowed all three
	w = doRequest(router, http.MethodGet, path, "", tokenAdmin)
	mustStatus(t, w, http.StatusOK)

	w = doRequest(router, http.MethodPut, path, `{"status":"completed"}`, tokenAdmin)
	mustStatus(t, w, http.StatusOK)

	w = doRequest(router, http.MethodDelete, path, "", tokenAdmin)
	mustStatus(t, w, http.StatusOK)
}

func TestDuplicateRegistration(t *testing.T) {
	router, pool := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/auth/register", `{"email":"a@x.com","password":"secret1"}`, "")
	mustStatus(t, w, http.StatusCreated)

	w = doRequest(router, http.MethodPost, "/api/v1/auth/register", `{"email":"a@x.com","password":"secret1"}`, "")
	mustStatus(t, w, http.StatusBadRequest)

	var count int
	err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM users`).Scan(&count)

	if err != nil {
		t.Fatalf("count users: %v", err)
	}

	if count != 1 {
		t.Errorf("user count after duplicate: got %d, want 1", count)
	}
}
