// internal/app/bootstrap/logger.go
package bootstrap

import (
	"os"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// NewLogger builds the process logger: the development encoder when the
// core env is "dev", production JSON otherwise. Every line carries the
// pid and, on workers, the worker id.
func NewLogger(coreCfg *config.CoreConfig, appCfg AppConfig) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if coreCfg != nil && coreCfg.Env == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}

	role := "supervisor"
	if appCfg.IsWorker() {
		role = "worker"
	}
	fields := []zap.Field{zap.Int("pid", os.Getpid()), zap.String("role", role)}
	if appCfg.IsWorker() {
		fields = append(fields, zap.String("worker_id", appCfg.WorkerID))
	}
	return logger.With(fields...), nil
}
