package wshandler

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthTokenAuthorized(t *testing.T) {
	token := AuthToken("dXNlcjpwYXNz") // user:pass

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"exact match", "Basic dXNlcjpwYXNz", true},
		{"lowercase scheme", "basic dXNlcjpwYXNz", true},
		{"wrong token", "Basic d3Jvbmc6cGFzcw==", false},
		{"missing header", "", false},
		{"bearer scheme", "Bearer dXNlcjpwYXNz", false},
		{"prefix only", "Basic ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := token.Authorized(r); got != tt.want {
				t.Errorf("Authorized(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestEmptyAuthTokenAllowsEverything(t *testing.T) {
	var token AuthToken
	if token.Required() {
		t.Error("empty token should not require authentication")
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if !token.Authorized(r) {
		t.Error("empty token should authorize requests without credentials")
	}
}

func TestChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	Challenge(rec, "wsecho")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != `Basic realm="wsecho"` {
		t.Errorf("WWW-Authenticate = %q", got)
	}
}
