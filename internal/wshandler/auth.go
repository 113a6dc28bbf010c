package wshandler

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthToken is the base64 "user:password" string a client must present.
// The zero value disables authentication.
type AuthToken string

// Required reports whether requests must authenticate.
func (t AuthToken) Required() bool {
	return t != ""
}

// Authorized reports whether r carries the expected basic credentials.
func (t AuthToken) Authorized(r *http.Request) bool {
	if !t.Required() {
		return true
	}

	header := r.Header.Get("Authorization")
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return false
	}

	presented := strings.TrimSpace(header[len(prefix):])
	return subtle.ConstantTimeCompare([]byte(presented), []byte(t)) == 1
}

// Challenge writes a 401 response asking for basic credentials.
func Challenge(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}
