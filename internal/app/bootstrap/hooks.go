// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"context"
	"runtime"
	"time"

	"github.com/dalemusser/stratalog/internal/app/system/supervisor"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// disconnectTimeout bounds Shutdown when no drain deadline applies.
const disconnectTimeout = 10 * time.Second

// Run executes the lifecycle hooks for this process's role.
//
// Supervisor: ConnectDB → EnsureSchema → Startup → Shutdown, then spawn and
// keep the workers. Worker: ConnectDB → BuildHandler → Serve → Shutdown.
// A returned error means the process must exit non-zero.
func Run(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.IsWorker() {
		return RunWorker(ctx, coreCfg, appCfg, logger)
	}
	return RunSupervisor(ctx, coreCfg, appCfg, logger)
}

// RunSupervisor reconciles the store and then keeps the worker pool alive
// until ctx is cancelled.
func RunSupervisor(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	spawner, err := supervisor.SelfSpawner()
	if err != nil {
		return err
	}

	sup := supervisor.New(supervisor.Config{
		Instances: Instances(appCfg),
		Reconcile: func(ctx context.Context) error {
			return prepareStore(ctx, coreCfg, appCfg, logger)
		},
		Spawn: spawner.Spawn,
		Policy: supervisor.Policy{
			Max:     appCfg.RespawnMax,
			Window:  appCfg.RespawnWindow,
			Backoff: appCfg.RespawnBackoff,
		},
		// Workers get their own drain time plus room to disconnect.
		StopGrace: appCfg.ShutdownGrace + disconnectTimeout,
		Logger:    logger,
	})
	return sup.Run(ctx)
}

// prepareStore is the supervisor's one-time store work. The connection is
// closed before workers start; each worker opens its own.
func prepareStore(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	deps, err := ConnectDB(ctx, coreCfg, appCfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		_ = Shutdown(dctx, coreCfg, appCfg, deps, logger)
	}()

	if err := EnsureSchema(ctx, coreCfg, appCfg, deps, logger); err != nil {
		return err
	}
	return Startup(ctx, coreCfg, appCfg, deps, logger)
}

// RunWorker serves the API until ctx is cancelled.
func RunWorker(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	deps, err := ConnectDB(ctx, coreCfg, appCfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		_ = Shutdown(dctx, coreCfg, appCfg, deps, logger)
	}()

	h, err := BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		return err
	}
	return Serve(ctx, appCfg, h, logger)
}

// Instances resolves instance_count, where 0 means one worker per CPU.
func Instances(appCfg AppConfig) int {
	if appCfg.InstanceCount > 0 {
		return appCfg.InstanceCount
	}
	return runtime.NumCPU()
}
