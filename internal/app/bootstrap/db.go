// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratalog/internal/app/system/apperr"
	"github.com/dalemusser/stratalog/internal/app/system/schema"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB using WAFFLE's pooled connector.
//
// The connection attempt is bounded by coreCfg.DBConnectTimeout. A store
// that cannot be reached here is a fatal startup error for the supervisor
// and a crash (followed by a respawn) for a worker.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	if coreCfg != nil && coreCfg.DBConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, coreCfg.DBConnectTimeout)
		defer cancel()
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, apperr.FatalStartup("connect to MongoDB", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema reconciles collections, validators and indexes.
//
// It runs in the supervisor before any worker is spawned and has no
// deadline of its own: a store that never answers stalls startup rather
// than letting workers serve against an unreconciled schema.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("reconciling schema", zap.String("database", appCfg.MongoDatabase))
	if err := schema.Reconcile(ctx, deps.MongoDatabase, schema.Default()); err != nil {
		return apperr.FatalStartup("reconcile schema", err)
	}
	logger.Info("schema reconciled")
	return nil
}
