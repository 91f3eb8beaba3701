package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestServer returns a server over fresh in-memory stores, plus the
// stores for direct inspection.
func newTestServer(t *testing.T) (*Server, *MemRecipientStore, *MemAccountStore) {
	t.Helper()
	recipients := NewMemRecipientStore()
	accounts := NewMemAccountStore()
	srv := New(Config{
		Addr:       ":0",
		Recipients: recipients,
		Accounts:   accounts,
		StaticDir:  t.TempDir(),
	})
	return srv, recipients, accounts
}

func doRequest(t *testing.T, srv *Server, method, path, contentType, body string, auth string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response body is not JSON: %v (%s)", err, rec.Body.String())
	}
	return out
}

// registerTestAccount creates an account directly in the store.
func registerTestAccount(t *testing.T, accounts *MemAccountStore, username, password string) {
	t.Helper()
	if _, err := accounts.Insert(context.Background(), username, hashPassword(password)); err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func TestBanner(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api", "", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type: %s", ct)
	}
	body := decodeBody(t, rec)
	if body["message"] != apiBanner {
		t.Fatalf("unexpected banner: %v", body["message"])
	}
}

func TestUnmatchedRoutesAre501(t *testing.T) {
	srv, _, _ := newTestServer(t)

	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/unknown"},
		{http.MethodPost, "/api"},
		{http.MethodPatch, "/api/recipient"},
		{http.MethodPost, "/api/recipient/1"},
		{http.MethodPut, "/api/account"},
		{http.MethodPost, "/nothing-here"},
	}
	for _, tc := range cases {
		rec := doRequest(t, srv, tc.method, tc.path, "", "", "")
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("%s %s: expected 501, got %d", tc.method, tc.path, rec.Code)
		}
		body := decodeBody(t, rec)
		if body["error"] != "not implemented." {
			t.Errorf("%s %s: unexpected body %v", tc.method, tc.path, body)
		}
	}
}

func TestCreateThenGetRecipient(t *testing.T) {
	srv, _, accounts := newTestServer(t)
	registerTestAccount(t, accounts, "alice", "secret1")

	var lastID float64
	for i, payload := range []string{
		`{"name": "Ada Lovelace", "email": "ada@example.com"}`,
		`{"name": "Charles Babbage", "email": "charles@example.com"}`,
	} {
		rec := doRequest(t, srv, http.MethodPost, "/api/recipient", "application/json", payload, basicAuth("alice", "secret1"))
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %d: expected 201, got %d (%s)", i, rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		if body["message"] != "you've joined the email list!" {
			t.Fatalf("unexpected message: %v", body["message"])
		}
		id, ok := body["id"].(float64)
		if !ok {
			t.Fatalf("missing id in response: %v", body)
		}
		if id <= lastID {
			t.Fatalf("ids not strictly increasing: %v after %v", id, lastID)
		}
		lastID = id
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/recipient/1", "", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["name"] != "Ada Lovelace" || body["email"] != "ada@example.com" {
		t.Fatalf("round trip mismatch: %v", body)
	}
}

func TestCreateRecipientFormEncoded(t *testing.T) {
	srv, _, accounts := newTestServer(t)
	registerTestAccount(t, accounts, "alice", "secret1")

	rec := doRequest(t, srv, http.MethodPost, "/api/recipient",
		"application/x-www-form-urlencoded",
		"name=Grace+Hopper&email=grace%40example.com",
		basicAuth("alice", "secret1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	entry := decodeBody(t, rec)["entry"].(map[string]any)
	if entry["name"] != "Grace Hopper" || entry["email"] != "grace@example.com" {
		t.Fatalf("form decode mismatch: %v", entry)
	}
}

func TestCreateRecipientValidation(t *testing.T) {
	srv, recipients, accounts := newTestServer(t)
	registerTestAccount(t, accounts, "alice", "secret1")
	auth := basicAuth("alice", "secret1")

	// Missing fields
	rec := doRequest(t, srv, http.MethodPost, "/api/recipient", "application/json", `{"name": "No Email"}`, auth)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing email: expected 400, got %d", rec.Code)
	}
	if decodeBody(t, rec)["error"] != "please enter all fields." {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}

	// Malformed JSON
	rec = doRequest(t, srv, http.MethodPost, "/api/recipient", "application/json", `{"name": `, auth)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad JSON: expected 400, got %d", rec.Code)
	}
	if decodeBody(t, rec)["error"] != "invalid request format." {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}

	all, _ := recipients.SelectAll(context.Background())
	if len(all) != 0 {
		t.Fatalf("invalid requests must not mutate the store, found %d rows", len(all))
	}
}

func TestListRecipients(t *testing.T) {
	srv, recipients, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/recipient", "", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("empty list should encode as [], got %s", rec.Body.String())
	}

	ctx := context.Background()
	_, _ = recipients.Insert(ctx, "A", "a@example.com")
	_, _ = recipients.Insert(ctx, "B", "b@example.com")

	rec = doRequest(t, srv, http.MethodGet, "/api/recipient", "", "", "")
	var list []Recipient
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 2 {
		t.Fatalf("unexpected list order: %+v", list)
	}
}

func TestGetRecipientErrors(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/recipient/999", "", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing id: expected 404, got %d", rec.Code)
	}
	if decodeBody(t, rec)["error"] != "no such recipient." {
		t.Fatalf("unexpected 404 body: %s", rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/recipient/abc", "", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-integer id: expected 400, got %d", rec.Code)
	}
	if decodeBody(t, rec)["error"] != "invalid recipient id." {
		t.Fatalf("unexpected 400 body: %s", rec.Body.String())
	}
}

func TestMutationsRequireAuth(t *testing.T) {
	srv, recipients, accounts := newTestServer(t)
	registerTestAccount(t, accounts, "alice", "secret1")
	_, _ = recipients.Insert(context.Background(), "Keep", "keep@example.com")

	cases := []struct {
		method, path, body string
		auth               string
	}{
		{http.MethodPost, "/api/recipient", `{"name":"x","email":"y@example.com"}`, ""},
		{http.MethodPut, "/api/recipient/1", `{"name":"x"}`, ""},
		{http.MethodDelete, "/api/recipient/1", "", ""},
		{http.MethodPut, "/api/recipient/1", `{"name":"x"}`, basicAuth("alice", "wrong")},
		{http.MethodDelete, "/api/recipient/1", "", basicAuth("nobody", "secret1")},
		{http.MethodDelete, "/api/recipient/1", "", "Basic not-base64!"},
		{http.MethodDelete, "/api/recipient/1", "", "Bearer abc"},
	}
	for _, tc := range cases {
		rec := doRequest(t, srv, tc.method, tc.path, "application/json", tc.body, tc.auth)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s auth=%q: expected 401, got %d", tc.method, tc.path, tc.auth, rec.Code)
		}
		if ch := rec.Header().Get("WWW-Authenticate"); !strings.HasPrefix(ch, "Basic") {
			t.Errorf("%s %s: missing Basic challenge, got %q", tc.method, tc.path, ch)
		}
		if decodeBody(t, rec)["error"] != "we couldn't authenticate you." {
			t.Errorf("%s %s: unexpected body %s", tc.method, tc.path, rec.Body.String())
		}
	}

	// The store must be untouched by the rejected mutations.
	got, _ := recipients.SelectOne(context.Background(), 1)
	if got == nil || got.Name != "Keep" {
		t.Fatalf("unauthorized requests mutated the store: %+v", got)
	}
	all, _ := recipients.SelectAll(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected 1 recipient, got %d", len(all))
	}

	// Retrying with correct credentials succeeds.
	rec := doRequest(t, srv, http.MethodDelete, "/api/recipient/1", "", "", basicAuth("alice", "secret1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("retry with valid credentials: expected 200, got %d", rec.Code)
	}
}

func TestUpdateRecipient(t *testing.T) {
	srv, recipients, accounts := newTestServer(t)
	registerTestAccount(t, accounts, "alice", "secret1")
	auth := basicAuth("alice", "secret1")
	ctx := context.Background()
	id, _ := recipients.Insert(ctx, "Old Name", "old@example.com")

	// Full update
	rec := doRequest(t, srv, http.MethodPut, "/api/recipient/1", "application/json",
		`{"name": "New Name", "email": "new@example.com"}`, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["message"] != "recipient updated successfully!" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	got, _ := recipients.SelectOne(ctx, id)
	if got.Name != "New Name" || got.Email != "new@example.com" {
		t.Fatalf("update round trip mismatch: %+v", got)
	}

	// Partial update keeps the other field
	rec = doRequest(t, srv, http.MethodPut, "/api/recipient/1", "application/json",
		`{"email": "partial@example.com"}`, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("partial update: expected 200, got %d", rec.Code)
	}
	got, _ = recipients.SelectOne(ctx, id)
	if got.Name != "New Name" || got.Email != "partial@example.com" {
		t.Fatalf("partial update mismatch: %+v", got)
	}

	// Neither field supplied
	rec = doRequest(t, srv, http.MethodPut, "/api/recipient/1", "application/json", `{}`, auth)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty update: expected 400, got %d", rec.Code)
	}

	// Unknown id
	rec = doRequest(t, srv, http.MethodPut, "/api/recipient/42", "application/json",
		`{"name": "x"}`, auth)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", rec.Code)
	}

	// Malformed body
	rec = doRequest(t, srv, http.MethodPut, "/api/recipient/1", "application/json", `{"name"`, auth)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad JSON: expected 400, got %d", rec.Code)
	}
}

func TestDeleteRecipient(t *testing.T) {
	srv, recipients, accounts := newTestServer(t)
	registerTestAccount(t, accounts, "alice", "secret1")
	auth := basicAuth("alice", "secret1")
	ctx := context.Background()
	_, _ = recipients.Insert(ctx, "Doomed", "doomed@example.com")

	rec := doRequest(t, srv, http.MethodDelete, "/api/recipient/1", "", "", auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decodeBody(t, rec)["message"] != "recipient has been removed from the mailing list." {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	// Subsequent GET is a 404
	rec = doRequest(t, srv, http.MethodGet, "/api/recipient/1", "", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted id: expected 404, got %d", rec.Code)
	}

	// Deleting again: authentication still applies, and with valid
	// credentials the existence check answers 404.
	rec = doRequest(t, srv, http.MethodDelete, "/api/recipient/1", "", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated delete of missing id: expected 401, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodDelete, "/api/recipient/1", "", "", auth)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("authenticated delete of missing id: expected 404, got %d", rec.Code)
	}
}

func TestRegisterAccount(t *testing.T) {
	srv, _, accounts := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/account", "application/json",
		`{"username": "a", "password": "p"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "your account has been registered!" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	entry := body["entry"].(map[string]any)
	if entry["username"] != "a" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["password"]; ok {
		t.Fatal("plaintext password echoed in response")
	}

	// Stored hash is the deterministic digest, never the plaintext.
	acc, _ := accounts.SelectByUsername(context.Background(), "a")
	if acc == nil || acc.PasswordHash != hashPassword("p") {
		t.Fatalf("stored hash mismatch: %+v", acc)
	}

	// Missing fields
	rec = doRequest(t, srv, http.MethodPost, "/api/account", "application/json",
		`{"username": "b"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password: expected 400, got %d", rec.Code)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	srv, _, accounts := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/account", "application/json",
		`{"username": "a", "password": "first"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/account", "application/json",
		`{"username": "a", "password": "second"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rec.Code)
	}
	if decodeBody(t, rec)["error"] != "this username is already taken." {
		t.Fatalf("unexpected 409 body: %s", rec.Body.String())
	}

	// The first account's stored hash is unchanged.
	acc, _ := accounts.SelectByUsername(context.Background(), "a")
	if acc.PasswordHash != hashPassword("first") {
		t.Fatal("duplicate registration overwrote the stored hash")
	}
}

func TestRegisterThenAuthenticate(t *testing.T) {
	srv, recipients, _ := newTestServer(t)
	_, _ = recipients.Insert(context.Background(), "Target", "target@example.com")

	rec := doRequest(t, srv, http.MethodPost, "/api/account", "application/json",
		`{"username": "a", "password": "p"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/recipient/1", "application/json",
		`{"name": "Renamed"}`, basicAuth("a", "p"))
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT with a:p: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/recipient/1", "application/json",
		`{"name": "Nope"}`, basicAuth("a", "wrong"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("PUT with a:wrong: expected 401, got %d", rec.Code)
	}
}

func TestAccountReadRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/account", "", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if decodeBody(t, rec)["error"] != "not allowed." {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRegisterAccountFormEncoded(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/account",
		"application/x-www-form-urlencoded", "username=formuser&password=pw", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
}
