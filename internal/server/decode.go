// decode.go - Content-negotiated request body decoding.
//
// The API accepts either a JSON object or URL-encoded form data, chosen
// by the Content-Type header. Anything that is not declared JSON is
// decoded as a form, which matches what browser form posts send.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// errInvalidFormat is the single catch-all decode failure; handlers map
// it to 400 "invalid request format.".
var errInvalidFormat = errors.New("invalid request format")

// maxBodyBytes caps request bodies well above any legitimate payload.
const maxBodyBytes = 1 << 20

// decodeFields reads the request body and returns its string fields.
// JSON values that are not strings (numbers, nested objects) are ignored;
// the callers validate required fields afterwards.
func decodeFields(r *http.Request) (map[string]string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errInvalidFormat
	}

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var raw map[string]any
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, errInvalidFormat
		}
		fields := make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				fields[k] = s
			}
		}
		return fields, nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, errInvalidFormat
	}
	fields := make(map[string]string, len(values))
	for k := range values {
		fields[k] = values.Get(k)
	}
	return fields, nil
}
