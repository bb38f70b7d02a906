package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kwsearch/internal/domain"
	domkw "github.com/kailas-cloud/kwsearch/internal/domain/keyword"
	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
	"github.com/kailas-cloud/kwsearch/internal/logger"
	"github.com/kailas-cloud/kwsearch/internal/metrics"
	"github.com/kailas-cloud/kwsearch/internal/transport/api"
	healthuc "github.com/kailas-cloud/kwsearch/internal/usecase/health"
	operatoruc "github.com/kailas-cloud/kwsearch/internal/usecase/operator"
	pquc "github.com/kailas-cloud/kwsearch/internal/usecase/persistentquery"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Settings is the explore configuration exposed to clients.
type Settings struct {
	MenuName        string
	Extras          map[string]string
	TextCompanion   bool
	AnonymousAccess bool
}

// Server implements api.ServerInterface.
type Server struct {
	api.Unimplemented
	operators     OperatorService
	codec         KeywordCodec
	queries       QueryService
	health        HealthChecker
	settings      Settings
	errorHandlers []errorHandler
}

var _ api.ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	operators OperatorService,
	codec KeywordCodec,
	queries QueryService,
	health HealthChecker,
	settings Settings,
) *Server {
	s := &Server{
		operators: operators,
		codec:     codec,
		queries:   queries,
		health:    health,
		settings:  settings,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, api.ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, api.ErrorResponseCodeAlreadyExists),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, api.ErrorResponseCodeForbidden),
		sentinelHandler(domain.ErrUnauthenticated, http.StatusUnauthorized, api.ErrorResponseCodeUnauthorized),
	}
	return s
}

// --- Search operators ---

// ListSearchOperators handles GET /search_operators.
func (s *Server) ListSearchOperators(w http.ResponseWriter, r *http.Request) {
	ops, err := s.operators.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := make([]api.SearchOperator, len(ops))
	for i, op := range ops {
		items[i] = operatorToAPI(op)
	}
	writeJSON(w, http.StatusOK, api.SearchOperatorListResponse{Items: items})
}

// RegisterSearchOperator handles POST /search_operators.
func (s *Server) RegisterSearchOperator(w http.ResponseWriter, r *http.Request) {
	if !s.requireStaff(w, r) {
		return
	}
	var req api.RegisterSearchOperatorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	op, err := s.operators.Register(r.Context(), req.Name, req.FieldPaths)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, operatorToAPI(op))
}

// GetSearchOperator handles GET /search_operators/{id}.
func (s *Server) GetSearchOperator(w http.ResponseWriter, r *http.Request, id api.OperatorId) {
	op, err := s.operators.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, operatorToAPI(op))
}

// PatchSearchOperator handles PATCH /search_operators/{id}.
func (s *Server) PatchSearchOperator(w http.ResponseWriter, r *http.Request, id api.OperatorId) {
	if !s.requireStaff(w, r) {
		return
	}
	var req api.PatchSearchOperatorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := operatoruc.Patch{Name: req.Name}
	if req.FieldPaths != nil {
		patch.FieldPaths = *req.FieldPaths
	}
	op, err := s.operators.Update(r.Context(), id, patch)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, operatorToAPI(op))
}

// DeleteSearchOperator handles DELETE /search_operators/{id}.
func (s *Server) DeleteSearchOperator(w http.ResponseWriter, r *http.Request, id api.OperatorId) {
	if !s.requireStaff(w, r) {
		return
	}
	if err := s.operators.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Keyword codec ---

// BuildKeywordQuery handles POST /keyword/query.
func (s *Server) BuildKeywordQuery(w http.ResponseWriter, r *http.Request) {
	var req api.BuildQueryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var tokens []string
	switch {
	case req.Tokens != nil:
		tokens = *req.Tokens
	case req.Keywords != nil:
		tokens = domkw.Split(*req.Keywords)
	default:
		writeError(w, http.StatusBadRequest, api.ErrorResponseCodeValidationFailed, "keywords or tokens is required")
		return
	}

	doc, err := s.codec.Build(r.Context(), tokens)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.BuildQueryResponse{Query: filterToAPI(doc)})
}

// RenderKeywords handles POST /keyword/render.
func (s *Server) RenderKeywords(w http.ResponseWriter, r *http.Request) {
	var req api.RenderKeywordsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.keywordsResponse(r, query.Document(req.Query)))
}

// GetKeywordSettings handles GET /keyword/settings.
func (s *Server) GetKeywordSettings(w http.ResponseWriter, _ *http.Request) {
	extras := s.settings.Extras
	if extras == nil {
		extras = map[string]string{}
	}
	writeJSON(w, http.StatusOK, api.KeywordSettings{
		MenuName:        s.settings.MenuName,
		Extras:          extras,
		TextCompanion:   s.settings.TextCompanion,
		AnonymousAccess: s.settings.AnonymousAccess,
	})
}

func (s *Server) keywordsResponse(r *http.Request, doc query.Document) api.KeywordsResponse {
	tokens := s.codec.Tokens(r.Context(), doc)
	if tokens == nil {
		tokens = []string{}
	}
	return api.KeywordsResponse{Keywords: domkw.Join(tokens), Tokens: tokens}
}

// --- Persistent queries ---

// ListMyPersistentQueries handles GET /persistent_query_keyword.
func (s *Server) ListMyPersistentQueries(w http.ResponseWriter, r *http.Request) {
	qs, err := s.queries.ListMine(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queriesToAPI(qs))
}

// CreatePersistentQuery handles POST /persistent_query_keyword.
func (s *Server) CreatePersistentQuery(w http.ResponseWriter, r *http.Request) {
	s.createPersistentQuery(w, r, false)
}

// AdminCreatePersistentQuery handles POST /admin/persistent_query_keyword.
func (s *Server) AdminCreatePersistentQuery(w http.ResponseWriter, r *http.Request) {
	if !s.requireStaff(w, r) {
		return
	}
	s.createPersistentQuery(w, r, true)
}

func (s *Server) createPersistentQuery(w http.ResponseWriter, r *http.Request, withOwner bool) {
	var req api.CreatePersistentQueryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := pquc.CreateInput{Content: query.Document(req.Query)}
	if req.Templates != nil {
		in.Templates = *req.Templates
	}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if withOwner && req.Owner != nil {
		in.OwnerID = *req.Owner
	}

	p := PrincipalFromContext(r.Context())
	var (
		q   persisted.Query
		err error
	)
	if req.Keywords != nil {
		q, err = s.queries.CreateFromKeywords(r.Context(), p, *req.Keywords, in)
	} else {
		q, err = s.queries.Create(r.Context(), p, in)
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/persistent_query_keyword/"+q.ID())
	writeJSON(w, http.StatusCreated, queryToAPI(q))
}

// GetPersistentQuery handles GET /persistent_query_keyword/{id}.
func (s *Server) GetPersistentQuery(w http.ResponseWriter, r *http.Request, id api.QueryId) {
	q, err := s.queries.Get(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queryToAPI(q))
}

// GetPersistentQueryByName handles GET /persistent_query_keyword/name/{name}.
func (s *Server) GetPersistentQueryByName(w http.ResponseWriter, r *http.Request, name api.QueryName) {
	q, err := s.queries.GetByName(r.Context(), PrincipalFromContext(r.Context()), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queryToAPI(q))
}

// GetPersistentQueryKeywords handles GET /persistent_query_keyword/{id}/keywords.
func (s *Server) GetPersistentQueryKeywords(w http.ResponseWriter, r *http.Request, id api.QueryId) {
	tokens, err := s.queries.Keywords(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if tokens == nil {
		tokens = []string{}
	}
	writeJSON(w, http.StatusOK, api.KeywordsResponse{Keywords: domkw.Join(tokens), Tokens: tokens})
}

// PatchPersistentQuery handles PATCH /persistent_query_keyword/{id}.
func (s *Server) PatchPersistentQuery(w http.ResponseWriter, r *http.Request, id api.QueryId) {
	var req api.PatchPersistentQueryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var patch persisted.Patch
	switch {
	case req.Keywords != nil:
		doc, err := s.codec.Build(r.Context(), domkw.Split(*req.Keywords))
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		patch.Content = doc
	case req.Query != nil:
		patch.Content = query.Document(*req.Query)
	}
	if req.Templates != nil {
		patch.Templates = *req.Templates
	}
	patch.Name = req.Name

	q, err := s.queries.Update(r.Context(), PrincipalFromContext(r.Context()), id, patch)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queryToAPI(q))
}

// DeletePersistentQuery handles DELETE /persistent_query_keyword/{id}.
func (s *Server) DeletePersistentQuery(w http.ResponseWriter, r *http.Request, id api.QueryId) {
	if err := s.queries.Delete(r.Context(), PrincipalFromContext(r.Context()), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAllPersistentQueries handles GET /admin/persistent_query_keyword.
func (s *Server) ListAllPersistentQueries(w http.ResponseWriter, r *http.Request) {
	qs, err := s.queries.List(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queriesToAPI(qs))
}

// --- Operations ---

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]api.HealthResponseChecks, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = api.HealthResponseChecks(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, api.HealthResponse{
		Status: api.HealthResponseStatus(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}

// --- Helpers ---

func (s *Server) requireStaff(w http.ResponseWriter, r *http.Request) bool {
	p := PrincipalFromContext(r.Context())
	switch {
	case p.Staff:
		return true
	case p.IsAnonymous():
		writeError(w, http.StatusUnauthorized, api.ErrorResponseCodeUnauthorized, domain.ErrUnauthenticated.Error())
	default:
		writeError(w, http.StatusForbidden, api.ErrorResponseCodeForbidden, domain.ErrForbidden.Error())
	}
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code api.ErrorResponseCode, message string) {
	writeJSON(w, status, api.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrForbidden,
		domain.ErrUnauthenticated,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code api.ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

// validationHandler passes the validation detail through: it describes the client's input.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	writeError(w, http.StatusBadRequest, api.ErrorResponseCodeValidationFailed, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, api.ErrorResponseCodeInternalError, "internal error")
}

// --- Converters ---

func operatorToAPI(op domop.Operator) api.SearchOperator {
	return api.SearchOperator{
		Id:              op.ID(),
		Name:            op.Name(),
		FieldPaths:      op.FieldPaths(),
		NormalizedPaths: op.NormalizedPaths(),
		CreatedAt:       time.UnixMilli(op.CreatedAt()).UTC(),
		UpdatedAt:       time.UnixMilli(op.UpdatedAt()).UTC(),
	}
}

func filterToAPI(doc query.Document) api.Filter {
	if doc == nil {
		return api.Filter{}
	}
	return api.Filter(doc)
}

func queryToAPI(q persisted.Query) api.PersistentQuery {
	out := api.PersistentQuery{
		Id:        q.ID(),
		Owner:     q.OwnerID(),
		Query:     filterToAPI(q.Content()),
		Templates: q.Templates(),
		CreatedAt: time.UnixMilli(q.CreatedAt()).UTC(),
	}
	if out.Templates == nil {
		out.Templates = []string{}
	}
	if name := q.Name(); name != "" {
		out.Name = &name
	}
	return out
}

func queriesToAPI(qs []persisted.Query) api.PersistentQueryListResponse {
	items := make([]api.PersistentQuery, len(qs))
	for i, q := range qs {
		items[i] = queryToAPI(q)
	}
	return api.PersistentQueryListResponse{Items: items}
}
