package server

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeFieldsJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/recipient", strings.NewReader(
		`{"name": "Ada", "email": "ada@example.com", "id": 7, "tags": ["x"]}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	fields, err := decodeFields(req)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fields["name"] != "Ada" || fields["email"] != "ada@example.com" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	// Non-string values are dropped, not stringified.
	if _, ok := fields["id"]; ok {
		t.Fatalf("numeric field should be dropped: %v", fields)
	}
}

func TestDecodeFieldsForm(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/recipient", strings.NewReader(
		"name=Ada+Lovelace&email=ada%40example.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	fields, err := decodeFields(req)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fields["name"] != "Ada Lovelace" || fields["email"] != "ada@example.com" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestDecodeFieldsDefaultsToForm(t *testing.T) {
	// No Content-Type at all: treated as form data.
	req := httptest.NewRequest("POST", "/api/recipient", strings.NewReader("name=x&email=y"))

	fields, err := decodeFields(req)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fields["name"] != "x" || fields["email"] != "y" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestDecodeFieldsInvalid(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
	}{
		{"truncated json", "application/json", `{"name": "Ada"`},
		{"json array", "application/json", `["not", "an", "object"]`},
		{"empty json body", "application/json", ``},
		{"bad form escape", "", "name=%zz"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/recipient", strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			if _, err := decodeFields(req); !errors.Is(err, errInvalidFormat) {
				t.Fatalf("expected errInvalidFormat, got %v", err)
			}
		})
	}
}
