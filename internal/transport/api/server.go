package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /search_operators)
	ListSearchOperators(w http.ResponseWriter, r *http.Request)
	// (POST /search_operators)
	RegisterSearchOperator(w http.ResponseWriter, r *http.Request)
	// (GET /search_operators/{id})
	GetSearchOperator(w http.ResponseWriter, r *http.Request, id OperatorId)
	// (PATCH /search_operators/{id})
	PatchSearchOperator(w http.ResponseWriter, r *http.Request, id OperatorId)
	// (DELETE /search_operators/{id})
	DeleteSearchOperator(w http.ResponseWriter, r *http.Request, id OperatorId)

	// (POST /keyword/query)
	BuildKeywordQuery(w http.ResponseWriter, r *http.Request)
	// (POST /keyword/render)
	RenderKeywords(w http.ResponseWriter, r *http.Request)
	// (GET /keyword/settings)
	GetKeywordSettings(w http.ResponseWriter, r *http.Request)

	// (GET /persistent_query_keyword)
	ListMyPersistentQueries(w http.ResponseWriter, r *http.Request)
	// (POST /persistent_query_keyword)
	CreatePersistentQuery(w http.ResponseWriter, r *http.Request)
	// (GET /persistent_query_keyword/name/{name})
	GetPersistentQueryByName(w http.ResponseWriter, r *http.Request, name QueryName)
	// (GET /persistent_query_keyword/{id})
	GetPersistentQuery(w http.ResponseWriter, r *http.Request, id QueryId)
	// (PATCH /persistent_query_keyword/{id})
	PatchPersistentQuery(w http.ResponseWriter, r *http.Request, id QueryId)
	// (DELETE /persistent_query_keyword/{id})
	DeletePersistentQuery(w http.ResponseWriter, r *http.Request, id QueryId)
	// (GET /persistent_query_keyword/{id}/keywords)
	GetPersistentQueryKeywords(w http.ResponseWriter, r *http.Request, id QueryId)

	// (GET /admin/persistent_query_keyword)
	ListAllPersistentQueries(w http.ResponseWriter, r *http.Request)
	// (POST /admin/persistent_query_keyword)
	AdminCreatePersistentQuery(w http.ResponseWriter, r *http.Request)

	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// MiddlewareFunc wraps a single handler.
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper converts path parameters before calling the handler.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError is passed to ErrorHandlerFunc when a parameter cannot be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, h http.Handler) {
	for _, middleware := range siw.HandlerMiddlewares {
		h = middleware(h)
	}
	h.ServeHTTP(w, r)
}

// bindPath binds a required simple-style path parameter.
func (siw *ServerInterfaceWrapper) bindPath(w http.ResponseWriter, r *http.Request, name string, dest *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

func (siw *ServerInterfaceWrapper) plain(fn func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siw.serve(w, r, http.HandlerFunc(fn))
	}
}

func (siw *ServerInterfaceWrapper) withPath(
	name string, fn func(w http.ResponseWriter, r *http.Request, v string),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v string
		if !siw.bindPath(w, r, name, &v) {
			return
		}
		siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fn(w, r, v)
		}))
	}
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates an http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions mounts every route on options.BaseRouter.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}
	base := options.BaseURL

	r.Group(func(r chi.Router) {
		r.Get(base+"/search_operators", wrapper.plain(si.ListSearchOperators))
		r.Post(base+"/search_operators", wrapper.plain(si.RegisterSearchOperator))
		r.Get(base+"/search_operators/{id}", wrapper.withPath("id", si.GetSearchOperator))
		r.Patch(base+"/search_operators/{id}", wrapper.withPath("id", si.PatchSearchOperator))
		r.Delete(base+"/search_operators/{id}", wrapper.withPath("id", si.DeleteSearchOperator))

		r.Post(base+"/keyword/query", wrapper.plain(si.BuildKeywordQuery))
		r.Post(base+"/keyword/render", wrapper.plain(si.RenderKeywords))
		r.Get(base+"/keyword/settings", wrapper.plain(si.GetKeywordSettings))

		r.Get(base+"/persistent_query_keyword", wrapper.plain(si.ListMyPersistentQueries))
		r.Post(base+"/persistent_query_keyword", wrapper.plain(si.CreatePersistentQuery))
		r.Get(base+"/persistent_query_keyword/name/{name}", wrapper.withPath("name", si.GetPersistentQueryByName))
		r.Get(base+"/persistent_query_keyword/{id}", wrapper.withPath("id", si.GetPersistentQuery))
		r.Patch(base+"/persistent_query_keyword/{id}", wrapper.withPath("id", si.PatchPersistentQuery))
		r.Delete(base+"/persistent_query_keyword/{id}", wrapper.withPath("id", si.DeletePersistentQuery))
		r.Get(base+"/persistent_query_keyword/{id}/keywords",
			wrapper.withPath("id", si.GetPersistentQueryKeywords))

		r.Get(base+"/admin/persistent_query_keyword", wrapper.plain(si.ListAllPersistentQueries))
		r.Post(base+"/admin/persistent_query_keyword", wrapper.plain(si.AdminCreatePersistentQuery))

		r.Get(base+"/health", wrapper.plain(si.HealthCheck))
		r.Get(base+"/metrics", wrapper.plain(si.Metrics))
	})
	return r
}

// Unimplemented answers 501 for every operation. Embed it to implement a subset.
type Unimplemented struct{}

func notImplemented(w http.ResponseWriter) { w.WriteHeader(http.StatusNotImplemented) }

func (Unimplemented) ListSearchOperators(w http.ResponseWriter, _ *http.Request) { notImplemented(w) }
func (Unimplemented) RegisterSearchOperator(w http.ResponseWriter, _ *http.Request) {
	notImplemented(w)
}
func (Unimplemented) GetSearchOperator(w http.ResponseWriter, _ *http.Request, _ OperatorId) {
	notImplemented(w)
}
func (Unimplemented) PatchSearchOperator(w http.ResponseWriter, _ *http.Request, _ OperatorId) {
	notImplemented(w)
}
func (Unimplemented) DeleteSearchOperator(w http.ResponseWriter, _ *http.Request, _ OperatorId) {
	notImplemented(w)
}
func (Unimplemented) BuildKeywordQuery(w http.ResponseWriter, _ *http.Request)  { notImplemented(w) }
func (Unimplemented) RenderKeywords(w http.ResponseWriter, _ *http.Request)     { notImplemented(w) }
func (Unimplemented) GetKeywordSettings(w http.ResponseWriter, _ *http.Request) { notImplemented(w) }
func (Unimplemented) ListMyPersistentQueries(w http.ResponseWriter, _ *http.Request) {
	notImplemented(w)
}
func (Unimplemented) CreatePersistentQuery(w http.ResponseWriter, _ *http.Request) { notImplemented(w) }
func (Unimplemented) GetPersistentQueryByName(w http.ResponseWriter, _ *http.Request, _ QueryName) {
	notImplemented(w)
}
func (Unimplemented) GetPersistentQuery(w http.ResponseWriter, _ *http.Request, _ QueryId) {
	notImplemented(w)
}
func (Unimplemented) PatchPersistentQuery(w http.ResponseWriter, _ *http.Request, _ QueryId) {
	notImplemented(w)
}
func (Unimplemented) DeletePersistentQuery(w http.ResponseWriter, _ *http.Request, _ QueryId) {
	notImplemented(w)
}
func (Unimplemented) GetPersistentQueryKeywords(w http.ResponseWriter, _ *http.Request, _ QueryId) {
	notImplemented(w)
}
func (Unimplemented) ListAllPersistentQueries(w http.ResponseWriter, _ *http.Request) {
	notImplemented(w)
}
func (Unimplemented) AdminCreatePersistentQuery(w http.ResponseWriter, _ *http.Request) {
	notImplemented(w)
}
func (Unimplemented) HealthCheck(w http.ResponseWriter, _ *http.Request) { notImplemented(w) }
func (Unimplemented) Metrics(w http.ResponseWriter, _ *http.Request)     { notImplemented(w) }
