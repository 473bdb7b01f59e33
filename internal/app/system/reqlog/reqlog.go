// Package reqlog assigns request ids and writes one structured access log
// line per request.
package reqlog

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/stratalog/internal/app/system/network"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// maxClientRequestID bounds a client-supplied id before it is trusted.
const maxClientRequestID = 128

type ctxKey struct{}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Config holds configuration for the access log middleware.
type Config struct {
	Logger *zap.Logger

	// ExcludePaths are path prefixes that are served but not logged.
	ExcludePaths []string

	// RedactParams are query parameters whose values never reach the log.
	RedactParams []string
}

// DefaultConfig skips health probes and hides login secrets.
func DefaultConfig(logger *zap.Logger) Config {
	return Config{
		Logger:       logger,
		ExcludePaths: []string{"/health", "/ready", "/readyz", "/livez"},
		RedactParams: []string{"loginPassword"},
	}
}

// Middleware returns middleware that tags every request with an id and
// logs method, path, status, size and duration once the handler returns.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" || len(id) > maxClientRequestID {
				id = uuid.New().String()
			}
			w.Header().Set(HeaderRequestID, id)
			r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))

			path := r.URL.Path
			for _, prefix := range cfg.ExcludePaths {
				if strings.HasPrefix(path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", path),
				zap.String("query", redact(r.URL.RawQuery, cfg.RedactParams)),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_ip", network.GetClientIP(r)),
			}
			if status >= http.StatusInternalServerError {
				cfg.Logger.Warn("request", fields...)
				return
			}
			cfg.Logger.Info("request", fields...)
		})
	}
}

func redact(rawQuery string, params []string) string {
	if rawQuery == "" || len(params) == 0 {
		return rawQuery
	}
	vals, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "[unparseable]"
	}
	changed := false
	for _, p := range params {
		if _, ok := vals[p]; ok {
			vals.Set(p, "[redacted]")
			changed = true
		}
	}
	if !changed {
		return rawQuery
	}
	return vals.Encode()
}
