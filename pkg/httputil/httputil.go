package httputil

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/staffdir/staffdir-backend/pkg/errors"
)

// StatusFail is the status value of every failure body
const StatusFail = "Fail"

// ReasonError is the reason reported for faults that must not leak details
const ReasonError = "Error"

// FailBody is the legacy failure envelope: {"status":"Fail","reason":"..."}
type FailBody struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// JSON sends data as a bare JSON document
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(data)
}

// Text sends a plain text body
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)

	w.Write([]byte(text))
}

// Fail sends a failure envelope with the given reason
func Fail(w http.ResponseWriter, statusCode int, reason string) {
	JSON(w, statusCode, FailBody{Status: StatusFail, Reason: reason})
}

// Fault sends the generic failure body used for every unhandled error
func Fault(w http.ResponseWriter) {
	Fail(w, http.StatusBadRequest, ReasonError)
}

// MaxBodyBytes caps the size of a decoded request body
const MaxBodyBytes = 1 << 20

// DecodeJSON decodes the request body into a generic JSON object.
// An empty body decodes as an empty object; anything other than a single
// JSON object is rejected. Bodies over MaxBodyBytes are a bad request.
func DecodeJSON(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, MaxBodyBytes)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errors.BadRequest("request body too large")
		}
		return nil, errors.BadRequest("unreadable request body")
	}
	if len(bytes.TrimSpace(buf.Bytes())) == 0 {
		return map[string]any{}, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil || payload == nil {
		return nil, errors.Validation("data must be object")
	}
	return payload, nil
}
