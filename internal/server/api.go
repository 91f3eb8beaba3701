// api.go - The API routing switch and its handlers.
//
// Dispatch is a function of method + path shape. Any method/path
// combination the switch does not name answers 501; a known route
// whose resource is missing answers 404.
//
// Ordering for id-scoped routes: parse id (400) -> authentication for
// mutating methods (401) -> existence check (404) -> body decode and
// field validation (400) -> store mutation. An unauthenticated PUT or
// DELETE never touches the recipients table, and deleting a missing id
// still requires credentials.
package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

const apiBanner = "welcome to the API. current fields: 'recipient' & 'account'."

// handleAPI dispatches every /api request.
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	segs := splitPath(r.URL.Path)

	switch {
	case len(segs) == 1: // /api
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]string{"message": apiBanner})
			return
		}
	case len(segs) == 2 && segs[1] == "recipient":
		switch r.Method {
		case http.MethodGet:
			s.listRecipients(w, r)
			return
		case http.MethodPost:
			s.createRecipient(w, r)
			return
		}
	case len(segs) == 3 && segs[1] == "recipient":
		s.recipientByID(w, r, segs[2])
		return
	case len(segs) == 2 && segs[1] == "account":
		switch r.Method {
		case http.MethodGet:
			// Accounts are never readable over the API.
			writeError(w, http.StatusMethodNotAllowed, "not allowed.")
			return
		case http.MethodPost:
			s.registerAccount(w, r)
			return
		}
	}

	writeError(w, http.StatusNotImplemented, "not implemented.")
}

// splitPath returns the non-empty segments of a URL path.
func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	segs := parts[:0]
	for _, part := range parts {
		if part != "" {
			segs = append(segs, part)
		}
	}
	return segs
}

// listRecipients handles GET /api/recipient.
func (s *Server) listRecipients(w http.ResponseWriter, r *http.Request) {
	recipients, err := s.recipients.SelectAll(r.Context())
	if err != nil {
		Error("recipient list failed", nil, err)
		writeError(w, http.StatusInternalServerError, "request failed.")
		return
	}
	writeJSON(w, http.StatusOK, recipients)
}

// createRecipient handles POST /api/recipient.
func (s *Server) createRecipient(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format.")
		return
	}

	name := strings.TrimSpace(fields["name"])
	email := strings.TrimSpace(fields["email"])
	if name == "" || email == "" {
		writeError(w, http.StatusBadRequest, "please enter all fields.")
		return
	}

	id, err := s.recipients.Insert(r.Context(), name, email)
	if err != nil {
		Error("recipient insert failed", map[string]any{"name": name}, err)
		writeError(w, http.StatusBadRequest, "request failed.")
		return
	}

	GetMetrics().RecordRecipientCreated()
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "you've joined the email list!",
		"id":      id,
		"entry":   map[string]string{"name": name, "email": email},
	})
}

// recipientByID handles GET/PUT/DELETE /api/recipient/{id}.
func (s *Server) recipientByID(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipient id.")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getRecipient(w, r, id)
	case http.MethodPut:
		s.updateRecipient(w, r, id)
	case http.MethodDelete:
		s.deleteRecipient(w, r, id)
	default:
		writeError(w, http.StatusNotImplemented, "not implemented.")
	}
}

func (s *Server) getRecipient(w http.ResponseWriter, r *http.Request, id int64) {
	rec, err := s.recipients.SelectOne(r.Context(), id)
	if err != nil {
		Error("recipient lookup failed", map[string]any{"id": id}, err)
		writeError(w, http.StatusInternalServerError, "request failed.")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no such recipient.")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// updateRecipient merges the supplied fields over the stored record:
// an absent or empty field keeps the old value, so the store sees a
// full overwrite with the merged values.
func (s *Server) updateRecipient(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	rec, err := s.recipients.SelectOne(r.Context(), id)
	if err != nil {
		Error("recipient lookup failed", map[string]any{"id": id}, err)
		writeError(w, http.StatusInternalServerError, "request failed.")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no such recipient.")
		return
	}

	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format.")
		return
	}

	name := strings.TrimSpace(fields["name"])
	email := strings.TrimSpace(fields["email"])
	if name == "" && email == "" {
		writeError(w, http.StatusBadRequest, "please enter all fields.")
		return
	}
	if name == "" {
		name = rec.Name
	}
	if email == "" {
		email = rec.Email
	}

	if _, err := s.recipients.Update(r.Context(), id, name, email); err != nil {
		Error("recipient update failed", map[string]any{"id": id}, err)
		writeError(w, http.StatusBadRequest, "request failed.")
		return
	}

	GetMetrics().RecordRecipientUpdated()
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "recipient updated successfully!",
	})
}

func (s *Server) deleteRecipient(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	rec, err := s.recipients.SelectOne(r.Context(), id)
	if err != nil {
		Error("recipient lookup failed", map[string]any{"id": id}, err)
		writeError(w, http.StatusInternalServerError, "request failed.")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no such recipient.")
		return
	}

	if _, err := s.recipients.Delete(r.Context(), id); err != nil {
		Error("recipient delete failed", map[string]any{"id": id}, err)
		writeError(w, http.StatusInternalServerError, "request failed.")
		return
	}

	GetMetrics().RecordRecipientDeleted()
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "recipient has been removed from the mailing list.",
	})
}

// registerAccount handles POST /api/account. Registration is open: it
// is the only way to obtain credentials for the mutating routes.
func (s *Server) registerAccount(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format.")
		return
	}

	username := strings.TrimSpace(fields["username"])
	password := fields["password"]
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "please enter all fields.")
		return
	}

	_, err = s.accounts.Insert(r.Context(), username, hashPassword(password))
	if errors.Is(err, ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "this username is already taken.")
		return
	}
	if err != nil {
		Error("account insert failed", map[string]any{"username": username}, err)
		writeError(w, http.StatusBadRequest, "request failed.")
		return
	}

	GetMetrics().RecordSignup()
	// The plaintext password is deliberately not echoed back.
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "your account has been registered!",
		"entry":   map[string]string{"username": username},
	})
}
