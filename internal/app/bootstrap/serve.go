// internal/app/bootstrap/serve.go
package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/stratalog/internal/app/system/listener"
	"go.uber.org/zap"
)

const readHeaderTimeout = 10 * time.Second

// Serve runs h on the shared port until ctx is cancelled, then drains
// in-flight requests for at most appCfg.ShutdownGrace.
func Serve(ctx context.Context, appCfg AppConfig, h http.Handler, logger *zap.Logger) error {
	ln, err := listener.Listen(ctx, listener.Addr(appCfg.HTTPPort))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          zap.NewStdLog(logger.Named("http")),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("worker listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("draining requests", zap.Duration("grace", appCfg.ShutdownGrace))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown incomplete; closing", zap.Error(err))
		_ = srv.Close()
		return err
	}
	return nil
}
