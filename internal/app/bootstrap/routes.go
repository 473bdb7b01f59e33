// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	errorsfeature "github.com/dalemusser/stratalog/internal/app/features/errors"
	healthfeature "github.com/dalemusser/stratalog/internal/app/features/health"
	logapifeature "github.com/dalemusser/stratalog/internal/app/features/logapi"
	loginstore "github.com/dalemusser/stratalog/internal/app/store/logins"
	logstore "github.com/dalemusser/stratalog/internal/app/store/logs"
	"github.com/dalemusser/stratalog/internal/app/system/auth"
	"github.com/dalemusser/stratalog/internal/app/system/reqlog"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
)

// compressMinSize keeps small JSON replies uncompressed.
const compressMinSize = 1024

// BuildHandler constructs the root HTTP handler every worker serves.
//
// Routes:
//   - /health, /health/ready, /health/live, /readyz, /livez (open)
//   - PUT /v1/log/ (open)
//   - GET /v1/getLog/, GET /v1/findLogs/ (login required)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Production cookies are Secure and need a strong hash key.
	secure := coreCfg.Env == "prod"
	cookies, err := auth.NewCookieCodec(appCfg.CookieHashKey, secure, logger)
	if err != nil {
		logger.Error("cookie codec init failed", zap.Error(err))
		return nil, err
	}
	gate := auth.NewGate(loginstore.New(deps.MongoDatabase), cookies, logger)

	logHandler := logapifeature.NewHandler(logstore.New(deps.MongoDatabase), logapifeature.Config{
		MaxBodyBytes: appCfg.MaxBodyBytes,
		FindLimit:    appCfg.FindLogsLimit,
		PageMax:      appCfg.FindLogsPageMax,
	}, logger)

	compress, err := gzhttp.NewWrapper(gzhttp.MinSize(compressMinSize))
	if err != nil {
		return nil, err
	}

	errHandler := errorsfeature.NewHandler(errorsfeature.NewErrorLogger(logger))

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request id + access log, outermost so panics and timeouts are logged too.
	r.Use(reqlog.Middleware(reqlog.DefaultConfig(logger)))

	// A panicking handler answers 500 instead of killing the worker.
	r.Use(errHandler.Recover)

	// Optional request timeout: a hung store call releases the client.
	if appCfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(appCfg.RequestTimeout))
	}

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	r.NotFound(errHandler.NotFound)
	r.MethodNotAllowed(errHandler.MethodNotAllowed)

	// ─────────────────────────────────────────────────────────────────────────────
	// Health (no auth)
	// ─────────────────────────────────────────────────────────────────────────────
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// ─────────────────────────────────────────────────────────────────────────────
	// Log API (gzip for large data payloads)
	// ─────────────────────────────────────────────────────────────────────────────
	r.Route("/v1", func(sr chi.Router) {
		sr.Use(func(next http.Handler) http.Handler { return compress(next) })
		sr.Mount("/", logapifeature.Routes(logHandler, gate.Require))
	})

	return r, nil
}
