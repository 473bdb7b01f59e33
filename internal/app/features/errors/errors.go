// internal/app/features/errors/errors.go
package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dalemusser/stratalog/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalog/internal/app/system/reqlog"
	"go.uber.org/zap"
)

// ErrorLogger wraps the zap logger for error logging.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{logger: logger}
}

// Log logs an error with the given message and error.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	e.LogWithFields(r, msg, err)
}

// LogWithFields logs an error with additional fields.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.String("request_id", reqlog.RequestID(r.Context())),
	}, fields...)
	e.logger.Error(msg, allFields...)
}

// Handler provides JSON error responses for requests no route answers.
type Handler struct {
	log *ErrorLogger
}

// NewHandler creates a new error Handler.
func NewHandler(log *ErrorLogger) *Handler {
	return &Handler{log: log}
}

// NotFound writes 404 {"error":"Not Found"}.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.Error(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed writes 405 {"error":"Method Not Allowed"}.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonutil.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// InternalError writes the generic 500 body.
func (h *Handler) InternalError(w http.ResponseWriter, r *http.Request) {
	jsonutil.Error(w, http.StatusInternalServerError, "Internal Server Error.")
}

// Recover turns a handler panic into a logged 500 so one bad request does
// not take the worker down. http.ErrAbortHandler is re-raised for net/http.
func (h *Handler) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.log.LogWithFields(r, "handler panic", fmt.Errorf("%v", rec),
				zap.ByteString("stack", debug.Stack()))
			h.InternalError(w, r)
		}()
		next.ServeHTTP(w, r)
	})
}
