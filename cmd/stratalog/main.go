// cmd/stratalog/main.go
//
// stratalog collects crash logs over HTTP. Started by an operator it is the
// supervisor: it reconciles the MongoDB schema and then keeps a pool of
// worker copies of itself serving the API on a shared port.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dalemusser/stratalog/internal/app/bootstrap"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	bootLogger, err := zap.NewProduction()
	if err != nil {
		return 1
	}
	defer bootLogger.Sync()

	coreCfg, appCfg, err := bootstrap.LoadConfig(bootLogger)
	if err != nil {
		bootLogger.Error("load config", zap.Error(err))
		return 1
	}

	logger, err := bootstrap.NewLogger(coreCfg, appCfg)
	if err != nil {
		bootLogger.Error("build logger", zap.Error(err))
		return 1
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := bootstrap.ValidateConfig(coreCfg, appCfg, logger); err != nil {
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Run(ctx, coreCfg, appCfg, logger); err != nil {
		logger.Error("exiting", zap.Error(err))
		return 1
	}
	logger.Info("stopped")
	return 0
}
