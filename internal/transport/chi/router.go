package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kwsearch/internal/metrics"
	"github.com/kailas-cloud/kwsearch/internal/transport/api"
)

// BaseURL prefixes every API route.
const BaseURL = "/api/v1"

// NewRouter assembles the middleware chain and mounts every route of s.
func NewRouter(s *Server, tokens []Token, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(JSONRecoverer(log))
	r.Use(PrincipalMiddleware(tokens, BaseURL+"/health", BaseURL+"/metrics"))
	r.Use(metrics.Middleware())

	api.HandlerWithOptions(s, api.ChiServerOptions{
		BaseURL:    BaseURL,
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, api.ErrorResponseCodeBadRequest, err.Error())
		},
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, api.ErrorResponseCodeNotFound, "route not found")
	})
	return r
}
