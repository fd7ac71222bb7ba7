// Package testutil holds helpers shared by HTTP handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
)

// MakeJSONRequest sends body (JSON-encoded unless nil) to endpoint on h and
// returns the recorder and the decoded response object. The map is empty
// when the response is not a JSON object.
func MakeJSONRequest(body any, h http.Handler, endpoint string, method string) (*httptest.ResponseRecorder, map[string]any) {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, endpoint, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	resp := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	return rec, resp
}

// DecodeJSON decodes the recorded body into v.
func DecodeJSON(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
