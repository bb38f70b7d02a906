// Package api holds the wire types and the chi routing layer of the REST API.
// It follows the layout oapi-codegen emits for chi servers: plain structs,
// a ServerInterface, and a wrapper that binds path parameters.
package api

import "time"

// ErrorResponseCode is the machine-readable error code.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest       ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed ErrorResponseCode = "validation_failed"
	ErrorResponseCodeNotFound         ErrorResponseCode = "not_found"
	ErrorResponseCodeAlreadyExists    ErrorResponseCode = "already_exists"
	ErrorResponseCodeForbidden        ErrorResponseCode = "forbidden"
	ErrorResponseCodeUnauthorized     ErrorResponseCode = "unauthorized"
	ErrorResponseCodeInternalError    ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// Filter is a filter document as sent over the wire.
type Filter = map[string]any

// SearchOperator defines model for SearchOperator.
type SearchOperator struct {
	Id              string    `json:"id"`
	Name            string    `json:"name"`
	FieldPaths      []string  `json:"field_paths"`
	NormalizedPaths []string  `json:"normalized_paths"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RegisterSearchOperatorRequest defines model for RegisterSearchOperatorRequest.
type RegisterSearchOperatorRequest struct {
	Name       string   `json:"name"`
	FieldPaths []string `json:"field_paths"`
}

// PatchSearchOperatorRequest defines model for PatchSearchOperatorRequest.
type PatchSearchOperatorRequest struct {
	Name       *string   `json:"name,omitempty"`
	FieldPaths *[]string `json:"field_paths,omitempty"`
}

// SearchOperatorListResponse defines model for SearchOperatorListResponse.
type SearchOperatorListResponse struct {
	Items []SearchOperator `json:"items"`
}

// BuildQueryRequest carries either the raw keyword box string or pre-split tokens.
type BuildQueryRequest struct {
	Keywords *string   `json:"keywords,omitempty"`
	Tokens   *[]string `json:"tokens,omitempty"`
}

// BuildQueryResponse defines model for BuildQueryResponse.
type BuildQueryResponse struct {
	Query Filter `json:"query"`
}

// RenderKeywordsRequest defines model for RenderKeywordsRequest.
type RenderKeywordsRequest struct {
	Query Filter `json:"query"`
}

// KeywordsResponse defines model for KeywordsResponse.
type KeywordsResponse struct {
	Keywords string   `json:"keywords"`
	Tokens   []string `json:"tokens"`
}

// PersistentQuery defines model for PersistentQuery.
type PersistentQuery struct {
	Id        string    `json:"id"`
	Owner     string    `json:"owner"`
	Query     Filter    `json:"query"`
	Templates []string  `json:"templates"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePersistentQueryRequest defines model for CreatePersistentQueryRequest.
// When Keywords is set the filter is built from it and Query is ignored.
type CreatePersistentQueryRequest struct {
	Query     Filter    `json:"query,omitempty"`
	Keywords  *string   `json:"keywords,omitempty"`
	Templates *[]string `json:"templates,omitempty"`
	Name      *string   `json:"name,omitempty"`
	Owner     *string   `json:"owner,omitempty"`
}

// PatchPersistentQueryRequest defines model for PatchPersistentQueryRequest.
type PatchPersistentQueryRequest struct {
	Query     *Filter   `json:"query,omitempty"`
	Keywords  *string   `json:"keywords,omitempty"`
	Templates *[]string `json:"templates,omitempty"`
	Name      *string   `json:"name,omitempty"`
}

// PersistentQueryListResponse defines model for PersistentQueryListResponse.
type PersistentQueryListResponse struct {
	Items []PersistentQuery `json:"items"`
}

// KeywordSettings defines model for KeywordSettings.
type KeywordSettings struct {
	MenuName        string            `json:"menu_name"`
	Extras          map[string]string `json:"extras"`
	TextCompanion   bool              `json:"text_companion"`
	AnonymousAccess bool              `json:"anonymous_access"`
}

// HealthResponseStatus defines model for HealthResponse.Status.
type HealthResponseStatus string

// HealthResponseChecks defines model for HealthResponse.Checks.
type HealthResponseChecks string

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status HealthResponseStatus            `json:"status"`
	Checks map[string]HealthResponseChecks `json:"checks"`
}

// OperatorId is the path parameter of /search_operators/{id}.
type OperatorId = string

// QueryId is the path parameter of /persistent_query_keyword/{id}.
type QueryId = string

// QueryName is the path parameter of /persistent_query_keyword/name/{name}.
type QueryName = string
