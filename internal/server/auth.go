// auth.go - HTTP Basic authentication against stored accounts.
//
// Credentials are verified per request; there is no session state.
// Every verification failure looks the same to the client, so a 401
// never reveals whether the username exists.
package server

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
)

const authRealm = `Basic realm="maillist"`

// parseBasicAuth extracts the username and password from an Authorization
// header value. It returns ok=false when the header is missing, does not
// carry the Basic scheme, fails to decode, has no colon, or either half
// is empty.
func parseBasicAuth(header string) (username, password string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	username, password, found := strings.Cut(string(decoded), ":")
	if !found || username == "" || password == "" {
		return "", "", false
	}
	return username, password, true
}

// verifyLogin checks a credential pair against the account store.
// Unknown usernames fail closed.
func verifyLogin(ctx context.Context, accounts AccountStore, username, password string) bool {
	acc, err := accounts.SelectByUsername(ctx, username)
	if err != nil {
		Error("account lookup failed", map[string]any{"username": username}, err)
		return false
	}
	if acc == nil {
		return false
	}
	return digestsEqual(acc.PasswordHash, hashPassword(password))
}

// authenticate resolves the request's Basic credentials to a username.
// On failure it writes the 401 challenge response and returns ok=false;
// the caller must not proceed with the guarded operation.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, password, ok := parseBasicAuth(r.Header.Get("Authorization"))
	if !ok || !verifyLogin(r.Context(), s.accounts, username, password) {
		GetMetrics().RecordAuthFailure()
		w.Header().Set("WWW-Authenticate", authRealm)
		writeError(w, http.StatusUnauthorized, "we couldn't authenticate you.")
		return "", false
	}
	return username, true
}
