package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/capitalize-ai/hotel-ops-console/pkg/logger"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string, scopes ...string) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Scopes: scopes,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuth(t *testing.T) {
	var gotOperator string
	var gotScopes []string
	h := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOperator = GetOperatorID(r.Context())
		gotScopes = GetScopes(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", "op-1"), http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, testSecret, "op-1", ScopeCustomersWrite), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/calls", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("expected JSON error body, got %s", rec.Body.String())
			}
		})
	}

	if gotOperator != "op-1" {
		t.Errorf("expected operator op-1, got %q", gotOperator)
	}
	if len(gotScopes) != 1 || gotScopes[0] != ScopeCustomersWrite {
		t.Errorf("unexpected scopes %v", gotScopes)
	}
}

func TestRequireScope(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Auth(testSecret)(RequireScope(ScopeCustomersWrite)(ok))

	for _, tc := range []struct {
		scopes []string
		want   int
	}{
		{nil, http.StatusForbidden},
		{[]string{"calls:read"}, http.StatusForbidden},
		{[]string{"calls:read", ScopeCustomersWrite}, http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/customers", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "op-1", tc.scopes...))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("scopes %v: expected %d, got %d", tc.scopes, tc.want, rec.Code)
		}
	}
}

func TestLoggingSetsCorrelationID(t *testing.T) {
	var seen string
	h := Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(CorrelationHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abc-123" || rec.Header().Get(CorrelationHeader) != "abc-123" {
		t.Errorf("expected propagated correlation id, got ctx=%q header=%q", seen, rec.Header().Get(CorrelationHeader))
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status passthrough, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Header().Get(CorrelationHeader) == "" {
		t.Error("expected generated correlation id")
	}
}

func TestRateLimitByOperator(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Auth(testSecret)(RateLimit(2, time.Minute)(ok))

	send := func(operator string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, operator))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	send("alice")
	send("alice")
	if code := send("alice"); code != http.StatusTooManyRequests {
		t.Errorf("expected alice to be limited, got %d", code)
	}
	if code := send("bob"); code != http.StatusOK {
		t.Errorf("expected bob to keep a separate budget, got %d", code)
	}
}

func TestValidation(t *testing.T) {
	if err := ValidateMessageContent("   "); err != nil {
		t.Errorf("expected blank message to pass validation, got %v", err)
	}
	if err := ValidateMessageContent(strings.Repeat("a", MaxMessageLength+1)); err == nil {
		t.Error("expected long message to fail")
	}
	if err := ValidateMessageContent("\xff"); err == nil {
		t.Error("expected invalid UTF-8 to fail")
	}

	for _, id := range []string{"", "  ", "a/b", strings.Repeat("x", MaxCustomerIDLength+1)} {
		if err := ValidateCustomerID(id); err == nil {
			t.Errorf("expected customer id %q to fail", id)
		}
	}
	if err := ValidateCustomerID("cust-42"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateName(strings.Repeat("n", MaxNameLength+1)); err == nil {
		t.Error("expected long name to fail")
	}
	if err := ValidateSearch(strings.Repeat("s", MaxSearchLength+1)); err == nil {
		t.Error("expected long search to fail")
	}
}
