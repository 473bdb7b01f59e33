// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/stratalog/internal/app/features/logapi"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
// The supervisor relies on it: workers are marked with STRATALOG_WORKER_ID.
const EnvVarPrefix = "STRATALOG"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, http_port, etc.
//   - Environment variables: STRATALOG_MONGO_URI, STRATALOG_HTTP_PORT, etc.
//   - Command-line flags: --mongo_uri, --http_port, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratalog", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size per worker"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size per worker"},

	// HTTP serving
	{Name: "http_port", Default: 8008, Desc: "Port shared by all workers"},
	{Name: "shutdown_grace", Default: "10s", Desc: "Time a worker has to drain requests on shutdown"},
	{Name: "request_timeout", Default: "0s", Desc: "Per-request timeout (0 disables)"},

	// Worker pool
	{Name: "instance_count", Default: 0, Desc: "Number of workers (0 = one per CPU)"},
	{Name: "respawn_max", Default: 0, Desc: "Max respawns per respawn_window (0 = unlimited)"},
	{Name: "respawn_window", Default: "1m", Desc: "Window for respawn_max"},
	{Name: "respawn_backoff", Default: "0s", Desc: "Fixed delay before each respawn"},

	// Log API limits
	{Name: "max_body_bytes", Default: int(logapi.DefaultMaxBodyBytes), Desc: "Largest accepted log body in bytes"},
	{Name: "find_logs_limit", Default: int(logapi.DefaultFindLimit), Desc: "Result cap of an unpaged findLogs"},
	{Name: "find_logs_page_max", Default: int(logapi.DefaultPageMax), Desc: "Largest page size a paged findLogs may request"},

	// Login cookies
	{Name: "cookie_hash_key", Default: "", Desc: "Signs login cookies when set (32+ chars in production)"},

	// Credential seeding
	{Name: "seed_login_user", Default: "", Desc: "Login to create or update on startup"},
	{Name: "seed_login_key", Default: "", Desc: "Secret for seed_login_user (stored as a bcrypt hash)"},

	{Name: "worker_id", Default: "", Desc: "Set by the supervisor on worker processes; leave blank"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATALOG_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		HTTPPort:       appValues.Int("http_port"),
		ShutdownGrace:  appValues.Duration("shutdown_grace", 10*time.Second),
		RequestTimeout: appValues.Duration("request_timeout", 0),

		InstanceCount:  appValues.Int("instance_count"),
		RespawnMax:     appValues.Int("respawn_max"),
		RespawnWindow:  appValues.Duration("respawn_window", time.Minute),
		RespawnBackoff: appValues.Duration("respawn_backoff", 0),

		MaxBodyBytes:    int64(appValues.Int("max_body_bytes")),
		FindLogsLimit:   int64(appValues.Int("find_logs_limit")),
		FindLogsPageMax: int64(appValues.Int("find_logs_page_max")),

		CookieHashKey: appValues.String("cookie_hash_key"),

		SeedLoginUser: appValues.String("seed_login_user"),
		SeedLoginKey:  appValues.String("seed_login_key"),

		WorkerID: appValues.String("worker_id"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
// Returning an error aborts startup before anything is spawned.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateApp(appCfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return nil
}

func validateApp(c AppConfig) error {
	var errs []error
	if c.MongoDatabase == "" {
		errs = append(errs, errors.New("mongo_database is required"))
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("http_port %d out of range", c.HTTPPort))
	}
	if c.InstanceCount < 0 {
		errs = append(errs, errors.New("instance_count must not be negative"))
	}
	if c.RespawnMax < 0 {
		errs = append(errs, errors.New("respawn_max must not be negative"))
	}
	if c.RespawnMax > 0 && c.RespawnWindow <= 0 {
		errs = append(errs, errors.New("respawn_window must be positive when respawn_max is set"))
	}
	if c.FindLogsPageMax > c.FindLogsLimit && c.FindLogsLimit > 0 {
		errs = append(errs, errors.New("find_logs_page_max must not exceed find_logs_limit"))
	}
	if (c.SeedLoginUser == "") != (c.SeedLoginKey == "") {
		errs = append(errs, errors.New("seed_login_user and seed_login_key must be set together"))
	}
	return errors.Join(errs...)
}
