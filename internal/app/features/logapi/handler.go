// Package logapi provides the crash-log HTTP API.
//
// Endpoints (mounted at /v1):
//   - PUT /log/       - Ingest a log (no login required)
//   - GET /getLog/    - Fetch one log by _id (login required)
//   - GET /findLogs/  - List logs in a timestamp range (login required)
//
// Logs are stored in the logs_records collection. Listings never include
// the data payload; getLog includes it only with withData=true.
package logapi

import (
	"context"
	"time"

	"github.com/dalemusser/stratalog/internal/app/system/cursor"
	"github.com/dalemusser/stratalog/internal/app/system/logquery"
	"github.com/dalemusser/stratalog/internal/domain/models"
	"go.uber.org/zap"
)

// Defaults for Config fields left zero.
const (
	DefaultMaxBodyBytes = 8 << 20
	DefaultFindLimit    = 1000000
	DefaultPageMax      = 1000
	DefaultSkewWindow   = 5 * time.Minute
)

// HeaderBookmark carries the continuation token of a paged findLogs.
const HeaderBookmark = "X-Bookmark"

// LogStore is the persistence the API needs.
type LogStore interface {
	Insert(ctx context.Context, rec models.LogRecord) error
	Get(ctx context.Context, id string, withData bool) (models.LogRecord, error)
	Find(ctx context.Context, q logquery.Query) ([]models.LogRecord, error)
	FindPage(ctx context.Context, q logquery.Query, bookmark string) (cursor.Page[models.LogRecord], error)
}

// Config bounds request sizes and result sizes.
type Config struct {
	MaxBodyBytes int64         // largest accepted ingest body
	FindLimit    int64         // result cap of an unpaged findLogs
	PageMax      int64         // largest page a paged findLogs may ask for
	SkewWindow   time.Duration // accepted distance between a client isoDate and now
}

func (c Config) withDefaults() Config {
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.FindLimit <= 0 {
		c.FindLimit = DefaultFindLimit
	}
	if c.PageMax <= 0 {
		c.PageMax = DefaultPageMax
	}
	if c.SkewWindow <= 0 {
		c.SkewWindow = DefaultSkewWindow
	}
	return c
}

// Handler serves the log API.
type Handler struct {
	store  LogStore
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

// NewHandler creates a new log API handler.
func NewHandler(store LogStore, cfg Config, logger *zap.Logger) *Handler {
	return &Handler{
		store:  store,
		cfg:    cfg.withDefaults(),
		now:    time.Now,
		logger: logger,
	}
}
