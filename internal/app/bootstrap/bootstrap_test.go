package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"strings"
	"testing"
	"time"

	loginstore "github.com/dalemusser/stratalog/internal/app/store/logins"
	"github.com/dalemusser/stratalog/internal/app/system/apperr"
	"github.com/dalemusser/stratalog/internal/app/system/auth"
	"github.com/dalemusser/stratalog/internal/app/system/supervisor"
	"github.com/dalemusser/stratalog/internal/domain/models"
	"github.com/dalemusser/stratalog/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "stratalog",
		HTTPPort:        8008,
		ShutdownGrace:   10 * time.Second,
		RespawnWindow:   time.Minute,
		MaxBodyBytes:    8 << 20,
		FindLogsLimit:   1000000,
		FindLogsPageMax: 1000,
	}
}

func TestWorkerEnvMatchesPrefix(t *testing.T) {
	if got := EnvVarPrefix + "_WORKER_ID"; got != supervisor.WorkerIDEnv {
		t.Errorf("worker env = %q, supervisor sets %q", got, supervisor.WorkerIDEnv)
	}
}

func TestValidateApp(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(c *AppConfig) {}, ""},
		{"no database", func(c *AppConfig) { c.MongoDatabase = "" }, "mongo_database"},
		{"bad port", func(c *AppConfig) { c.HTTPPort = 0 }, "http_port"},
		{"negative instances", func(c *AppConfig) { c.InstanceCount = -1 }, "instance_count"},
		{"negative respawn max", func(c *AppConfig) { c.RespawnMax = -1 }, "respawn_max"},
		{"respawn max without window", func(c *AppConfig) { c.RespawnMax = 3; c.RespawnWindow = 0 }, "respawn_window"},
		{"page max over limit", func(c *AppConfig) { c.FindLogsPageMax = c.FindLogsLimit + 1 }, "find_logs_page_max"},
		{"seed user without key", func(c *AppConfig) { c.SeedLoginUser = "ops" }, "seed_login"},
		{"seed pair", func(c *AppConfig) { c.SeedLoginUser = "ops"; c.SeedLoginKey = "k" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := validateApp(c)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validateApp() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateApp() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestInstances(t *testing.T) {
	if got := Instances(AppConfig{InstanceCount: 3}); got != 3 {
		t.Errorf("Instances() = %d, want 3", got)
	}
	if got := Instances(AppConfig{}); got != runtime.NumCPU() {
		t.Errorf("Instances() = %d, want NumCPU %d", got, runtime.NumCPU())
	}
}

func TestIsWorker(t *testing.T) {
	if (AppConfig{}).IsWorker() {
		t.Error("blank worker id should be the supervisor")
	}
	if !(AppConfig{WorkerID: "2"}).IsWorker() {
		t.Error("worker id 2 should be a worker")
	}
}

type memLogins struct {
	creds   map[string]models.Credential
	getErr  error
	upserts int
}

func (m *memLogins) Get(ctx context.Context, loginUser string) (models.Credential, error) {
	if m.getErr != nil {
		return models.Credential{}, m.getErr
	}
	c, ok := m.creds[loginUser]
	if !ok {
		return models.Credential{}, apperr.NotFound("unknown login")
	}
	return c, nil
}

func (m *memLogins) Upsert(ctx context.Context, cred models.Credential) error {
	m.upserts++
	m.creds[cred.ID] = cred
	return nil
}

func TestSeedLogin(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	store := &memLogins{creds: map[string]models.Credential{}}

	if err := seedLogin(ctx, store, " ops ", "s3cret", logger); err != nil {
		t.Fatalf("seedLogin() error = %v", err)
	}
	cred, ok := store.creds["ops"]
	if !ok {
		t.Fatal("seeded login not stored under trimmed name")
	}
	if cred.AuthKey != "" || cred.AuthKeyHash == "" {
		t.Errorf("seeded credential = %+v, want hash only", cred)
	}
	if !auth.Matches(cred, "s3cret") {
		t.Error("seeded hash does not match key")
	}

	// Same key again is a no-op.
	if err := seedLogin(ctx, store, "ops", "s3cret", logger); err != nil {
		t.Fatalf("second seedLogin() error = %v", err)
	}
	if store.upserts != 1 {
		t.Errorf("upserts = %d, want 1", store.upserts)
	}

	// A new key replaces the old one.
	if err := seedLogin(ctx, store, "ops", "rotated", logger); err != nil {
		t.Fatalf("rotate seedLogin() error = %v", err)
	}
	if !auth.Matches(store.creds["ops"], "rotated") {
		t.Error("rotated key not stored")
	}
}

func TestSeedLogin_WeakKey(t *testing.T) {
	store := &memLogins{creds: map[string]models.Credential{}}
	if err := seedLogin(context.Background(), store, "ops", "password", zap.NewNop()); err == nil {
		t.Error("seedLogin() should refuse a common key")
	}
	if store.upserts != 0 {
		t.Error("no upsert expected for a refused key")
	}
}

func TestSeedLogin_StoreError(t *testing.T) {
	boom := apperr.Store("get login", errors.New("socket closed"))
	store := &memLogins{creds: map[string]models.Credential{}, getErr: boom}
	if err := seedLogin(context.Background(), store, "ops", "s3cret", zap.NewNop()); !errors.Is(err, apperr.ErrStore) {
		t.Errorf("seedLogin() error = %v, want store error", err)
	}
	if store.upserts != 0 {
		t.Error("no upsert expected after a failed lookup")
	}
}

func TestBuildHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := loginstore.New(db).Upsert(ctx, models.Credential{ID: "ops", AuthKey: "s3cret"}); err != nil {
		t.Fatalf("seed login: %v", err)
	}

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validConfig(), deps, logger)
	if err != nil {
		t.Fatalf("BuildHandler() error = %v", err)
	}

	login := testutil.Login{User: "ops", Password: "s3cret"}
	tests := []struct {
		name    string
		method  string
		target  string
		status  int
		message string
	}{
		{"liveness", http.MethodGet, "/health/live", http.StatusOK, ""},
		{"readiness", http.MethodGet, "/readyz", http.StatusOK, ""},
		{"getLog needs login", http.MethodGet, "/v1/getLog/?_id=x", http.StatusUnauthorized, "Bad Login Info."},
		{"getLog with login", http.MethodGet, login.Query("/v1/getLog/?_id=x"), http.StatusNotFound, "Could not find log with _id: x."},
		{"findLogs bad range", http.MethodGet, login.Query("/v1/findLogs/?start=5&end=1"), http.StatusBadRequest, "Bad Timestamp Values."},
		{"logout", http.MethodGet, "/v1/findLogs/?loginUser=logout", http.StatusUnauthorized, "Logout"},
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeHTTP(rec, testutil.NewRequest(tt.method, tt.target, nil))
			rec.AssertStatus(t, tt.status)
			if tt.message != "" {
				rec.AssertError(t, tt.message)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}

	t.Run("logout clears cookies", func(t *testing.T) {
		rec := testutil.NewRecorder()
		h.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/v1/getLog/?loginUser=logout", nil))
		rec.AssertStatus(t, http.StatusUnauthorized)
		rec.AssertCookieCleared(t, auth.UserParam)
		rec.AssertCookieCleared(t, auth.PasswordParam)
	})
}

func TestBuildHandler_WeakCookieKeyInProd(t *testing.T) {
	cfg := validConfig()
	cfg.CookieHashKey = "short"
	_, err := BuildHandler(&config.CoreConfig{Env: "prod"}, cfg, DBDeps{}, zap.NewNop())
	if err == nil {
		t.Error("BuildHandler() should reject a weak cookie key in prod")
	}
}
