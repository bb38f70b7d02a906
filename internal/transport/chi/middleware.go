package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/kwsearch/internal/domain/access"
	"github.com/kailas-cloud/kwsearch/internal/logger"
	"github.com/kailas-cloud/kwsearch/internal/transport/api"
)

// JSONRecoverer turns a handler panic into a 500 error body.
func JSONRecoverer(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				logger.FromContextOr(r.Context(), log).Error("panic recovered",
					zap.Any("panic", rvr),
					zap.Stack("stacktrace"),
				)
				writeError(w, http.StatusInternalServerError, api.ErrorResponseCodeInternalError, "internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestTrace collects facts that inner middleware learns about a request,
// so the outer request log line can report them.
type requestTrace struct {
	caller *access.Principal
}

type traceKey struct{}

// noteCaller records the authenticated principal for the request log line.
func noteCaller(ctx context.Context, p access.Principal) {
	if tr, ok := ctx.Value(traceKey{}).(*requestTrace); ok {
		tr.caller = &p
	}
}

// RequestLogger emits one log line per request and echoes X-Request-ID.
// It must run after chi's RequestID middleware. Server errors log at
// error level, client errors at warn, everything else at info.
func RequestLogger(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := log.With(zap.String("request_id", requestID))
			tr := &requestTrace{}
			ctx := context.WithValue(r.Context(), traceKey{}, tr)
			ctx = logger.ContextWithLogger(ctx, reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", routePattern(r)),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if tr.caller != nil {
				fields = append(fields,
					zap.String("user_id", tr.caller.UserID),
					zap.Bool("staff", tr.caller.Staff))
			} else {
				fields = append(fields, zap.Bool("anonymous", true))
			}

			if ce := reqLogger.Check(levelFor(status), "http_request"); ce != nil {
				ce.Write(fields...)
			}
		})
	}
}

func levelFor(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
