// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"strings"

	loginstore "github.com/dalemusser/stratalog/internal/app/store/logins"
	"github.com/dalemusser/stratalog/internal/app/system/apperr"
	"github.com/dalemusser/stratalog/internal/app/system/auth"
	"github.com/dalemusser/stratalog/internal/app/system/authutil"
	"github.com/dalemusser/stratalog/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once in the supervisor after the schema is reconciled and
// before workers are spawned. It seeds a login when one is configured.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SeedLoginUser == "" {
		return nil
	}
	if err := seedLogin(ctx, loginstore.New(deps.MongoDatabase), appCfg.SeedLoginUser, appCfg.SeedLoginKey, logger); err != nil {
		return apperr.FatalStartup("seed login", err)
	}
	return nil
}

type loginSeeder interface {
	Get(ctx context.Context, loginUser string) (models.Credential, error)
	Upsert(ctx context.Context, cred models.Credential) error
}

// seedLogin makes loginUser accept key. An existing login that already
// accepts key is left untouched.
func seedLogin(ctx context.Context, store loginSeeder, loginUser, key string, logger *zap.Logger) error {
	loginUser = strings.TrimSpace(loginUser)
	if err := authutil.ValidateKey(key); err != nil {
		return err
	}

	existing, err := store.Get(ctx, loginUser)
	switch {
	case err == nil && auth.Matches(existing, key):
		logger.Debug("seed login already configured", zap.String("login_user", loginUser))
		return nil
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		return err
	}

	hash, err := authutil.HashKey(key)
	if err != nil {
		return err
	}
	if err := store.Upsert(ctx, models.Credential{ID: loginUser, AuthKeyHash: hash}); err != nil {
		return err
	}
	logger.Info("seeded login", zap.String("login_user", loginUser))
	return nil
}
