package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/kwsearch/internal/domain/access"
	"github.com/kailas-cloud/kwsearch/internal/transport/api"
)

// principalHandler echoes the resolved principal.
func principalHandler(got *access.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

var testTokens = []Token{
	{Token: "alice-token", UserID: "alice"},
	{Token: "root-token", UserID: "root", Staff: true},
	{Token: "", UserID: "ignored"},
	{Token: "orphan", UserID: ""},
}

func TestPrincipalMiddleware_NoHeader_Anonymous(t *testing.T) {
	var got access.Principal
	handler := PrincipalMiddleware(testTokens)(principalHandler(&got))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/persistent_query_keyword", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Errorf("got %d, want %d", rr.Code, http.StatusOK)
	}
	if !got.IsAnonymous() {
		t.Errorf("expected anonymous principal, got %+v", got)
	}
}

func TestPrincipalMiddleware_KnownTokens(t *testing.T) {
	tests := []struct {
		token string
		want  access.Principal
	}{
		{"alice-token", access.Principal{UserID: "alice"}},
		{"root-token", access.Principal{UserID: "root", Staff: true}},
	}
	for _, tt := range tests {
		var got access.Principal
		handler := PrincipalMiddleware(testTokens)(principalHandler(&got))

		req := httptest.NewRequest("GET", "/api/v1/search_operators", http.NoBody)
		req.Header.Set("Authorization", "Bearer "+tt.token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("%s: got %d", tt.token, rr.Code)
		}
		if got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.token, got, tt.want)
		}
	}
}

func TestPrincipalMiddleware_Rejects(t *testing.T) {
	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer wrong", "Bearer orphan", "Bearer "} {
		var got access.Principal
		handler := PrincipalMiddleware(testTokens)(principalHandler(&got))

		req := httptest.NewRequest("GET", "/api/v1/search_operators", http.NoBody)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%q: got %d, want %d", header, rr.Code, http.StatusUnauthorized)
			continue
		}
		var errResp api.ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		if errResp.Code != api.ErrorResponseCodeUnauthorized {
			t.Errorf("%q: code %s", header, errResp.Code)
		}
	}
}

func TestPrincipalMiddleware_ExemptPaths(t *testing.T) {
	var got access.Principal
	handler := PrincipalMiddleware(testTokens, "/api/v1/health", "/api/v1/metrics")(principalHandler(&got))

	for _, path := range []string{"/api/v1/health", "/api/v1/metrics"} {
		req := httptest.NewRequest("GET", path, http.NoBody)
		req.Header.Set("Authorization", "Bearer wrong")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("exempt path %s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
}
