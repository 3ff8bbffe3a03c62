package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vronney/orders-management-system/internal/auth"
	"github.com/vronney/orders-management-system/internal/config"
	"github.com/vronney/orders-management-system/internal/ingest"
	"github.com/vronney/orders-management-system/internal/metrics"
	"github.com/vronney/orders-management-system/internal/model"
	apperrors "github.com/vronney/orders-management-system/pkg/errors"
)

type fakeRepo struct {
	orders     []model.Order
	stats      *model.OrderStats
	batches    [][]model.OrderRecord
	upsertErr  error
	lastFilter *model.OrderFilter
}

func (f *fakeRepo) UpsertOrders(ctx context.Context, records []model.OrderRecord) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.batches = append(f.batches, records)
	return len(records), nil
}

func (f *fakeRepo) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	f.lastFilter = &filter
	return f.orders, int64(len(f.orders)), nil
}

func (f *fakeRepo) GetOrderByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	for i := range f.orders {
		if f.orders[i].OrderID == orderID {
			return &f.orders[i], nil
		}
	}
	return nil, apperrors.ErrOrderNotFound
}

func (f *fakeRepo) GetOrderStats(ctx context.Context) (*model.OrderStats, error) {
	if f.stats != nil {
		return f.stats, nil
	}
	return &model.OrderStats{ByStatus: map[string]int64{}}, nil
}

type fakeEnqueuer struct {
	jobs []model.ReplayJob
	err  error
}

func (f *fakeEnqueuer) EnqueueReplayJob(ctx context.Context, job model.ReplayJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type testEnv struct {
	router   *gin.Engine
	repo     *fakeRepo
	enqueuer *fakeEnqueuer
	auth     *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.App.Name = "orders-management-system"
	cfg.App.Version = "1.0.0"
	cfg.Auth.JWTSecret = "test-secret-that-is-long-enough-for-hs256"
	cfg.Auth.TokenExpiryMinutes = 60
	cfg.Auth.Users = []config.UserConfig{
		{Username: "admin", Password: "admin123", Role: "admin"},
		{Username: "viewer", Password: "viewer123", Role: "viewer"},
	}
	cfg.Upload.BatchSize = 1000
	cfg.Upload.MaxFileSizeMB = 100
	cfg.Upload.MaxErrorMessages = 100
	cfg.Upload.ExportLimit = 1000

	repo := &fakeRepo{}
	enqueuer := &fakeEnqueuer{}
	reg := metrics.NewRegistry()
	coordinator := ingest.NewCoordinator(repo, reg, cfg)
	authSvc := auth.NewService(cfg)

	handler := NewHandler(repo, coordinator, authSvc, nil, enqueuer, nil, nil, reg, cfg)

	router := gin.New()
	SetupRoutes(router, handler, authSvc, reg)

	return &testEnv{router: router, repo: repo, enqueuer: enqueuer, auth: authSvc}
}

func (e *testEnv) token(t *testing.T, username, role string) string {
	t.Helper()
	token, err := e.auth.IssueToken(username, role)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func (e *testEnv) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postJSON(path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postFile(t *testing.T, path, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON("/api/auth/login", "", `{"username":"admin","password":"admin123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var token model.TokenResponse
	decodeJSON(t, w, &token)
	if token.AccessToken == "" || token.TokenType != "bearer" || token.Role != "admin" {
		t.Fatalf("unexpected token response: %+v", token)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON("/api/auth/login", "", `{"username":"admin","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("WWW-Authenticate = %q, want Bearer", got)
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON("/api/auth/login", "", `{"username":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRoot(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Orders Management API") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
