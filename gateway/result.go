package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Outcome is the classification of a single request.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeValidation
	OutcomeAuth
	OutcomeNetwork
	OutcomeServer
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidation:
		return "validation"
	case OutcomeAuth:
		return "auth"
	case OutcomeNetwork:
		return "network"
	case OutcomeServer:
		return "server"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// FieldError is one field-level message from the backend, kept verbatim.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Result is what Send returns for every request, whatever happened.
type Result struct {
	Outcome   Outcome
	Method    string
	Path      string
	Status    int             // HTTP status, 0 when no response was obtained
	Data      json.RawMessage // the envelope's data member
	Message   string          // message or error from the envelope
	Generic   bool            // Message was made up locally, the body carried none
	Code      string          // machine readable error code, if any
	Fields    []FieldError    // set for OutcomeValidation
	RequestID string          // X-Request-ID sent with the request
	Cause     error           // transport or encoding error
}

// OK reports OutcomeSuccess.
func (r *Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Decode unmarshals Data into target. An empty or null data member leaves target untouched.
func (r *Result) Decode(target any) error {
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// Err returns nil on success and the typed error for every other outcome.
func (r *Result) Err() error {
	switch r.Outcome {
	case OutcomeSuccess:
		return nil
	case OutcomeValidation:
		return &ValidationError{Status: r.Status, Message: r.Message, Fields: r.Fields}
	case OutcomeAuth:
		return &AuthError{Status: r.Status, Code: r.Code, Message: r.Message}
	case OutcomeNetwork:
		return &NetworkError{Method: r.Method, Path: r.Path, Err: r.Cause}
	default:
		return &ServerError{Status: r.Status, Code: r.Code, Message: r.Message, Err: r.Cause}
	}
}

// envelope is the backend's response body: {success, message, error, code, data}.
type envelope struct {
	Success bool            `json:"success"`
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`
	Code    json.RawMessage `json:"code"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
	Errors  json.RawMessage `json:"errors"`
}

// classify turns a status and body into a Result. Bodies that are not JSON still classify on status.
func classify(status int, body []byte) *Result {
	var env envelope
	parsed := len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &env) == nil

	res := &Result{
		Status:  status,
		Data:    env.Data,
		Message: firstNonEmpty(asString(env.Message), asString(env.Error)),
		Code:    asString(env.Code),
	}

	is2xx := status >= 200 && status < 300
	succeeded := is2xx && parsed && env.Success

	switch {
	case status == http.StatusUnauthorized:
		res.Outcome = OutcomeAuth
	case succeeded:
		res.Outcome = OutcomeSuccess
	case tokenRejected(res.Code, asString(env.Error), res.Message):
		res.Outcome = OutcomeAuth
	case (is2xx || status >= 400 && status < 500) && parsed:
		res.Fields = env.fieldErrors()
		if len(res.Fields) > 0 {
			res.Outcome = OutcomeValidation
		} else {
			res.Outcome = OutcomeServer
		}
	default:
		res.Outcome = OutcomeServer
	}

	if res.Outcome != OutcomeSuccess && res.Message == "" {
		res.Generic = true
		switch {
		case !parsed && !is2xx:
			res.Message = fmt.Sprintf("request failed with status %d", status)
		case !parsed:
			res.Message = "invalid response body"
		default:
			res.Message = "Request failed"
		}
	}
	return res
}

// tokenRejected matches error codes such as TOKEN_EXPIRED or INVALID_TOKEN.
func tokenRejected(code, errText, message string) bool {
	return strings.Contains(strings.ToUpper(code), "TOKEN") ||
		strings.Contains(errText, "TOKEN") ||
		strings.Contains(message, "TOKEN")
}

// fieldErrors looks for field detail in data.details, details and errors, in that order.
func (e envelope) fieldErrors() []FieldError {
	if len(e.Data) > 0 {
		var nested struct {
			Details json.RawMessage `json:"details"`
			Errors  json.RawMessage `json:"errors"`
		}
		if json.Unmarshal(e.Data, &nested) == nil {
			if fields := parseDetails(nested.Details); len(fields) > 0 {
				return fields
			}
			if fields := parseDetails(nested.Errors); len(fields) > 0 {
				return fields
			}
		}
	}
	if fields := parseDetails(e.Details); len(fields) > 0 {
		return fields
	}
	return parseDetails(e.Errors)
}

type detail struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
	Path    string `json:"path"`
	Param   string `json:"param"`
	Field   string `json:"field"`
}

// parseDetails accepts [{msg, path|param|field}], ["message"] or {"field": "message"}.
func parseDetails(raw json.RawMessage) []FieldError {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var list []detail
	if err := json.Unmarshal(raw, &list); err == nil {
		fields := make([]FieldError, 0, len(list))
		for _, d := range list {
			msg := firstNonEmpty(d.Msg, d.Message)
			if msg == "" {
				continue
			}
			fields = append(fields, FieldError{Field: firstNonEmpty(d.Path, d.Param, d.Field), Message: msg})
		}
		return fields
	}

	var messages []string
	if err := json.Unmarshal(raw, &messages); err == nil {
		fields := make([]FieldError, 0, len(messages))
		for _, m := range messages {
			fields = append(fields, FieldError{Message: m})
		}
		return fields
	}

	var byField map[string]string
	if err := json.Unmarshal(raw, &byField); err == nil {
		fields := make([]FieldError, 0, len(byField))
		for field, msg := range byField {
			fields = append(fields, FieldError{Field: field, Message: msg})
		}
		sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
		return fields
	}
	return nil
}

// asString reads a JSON string or number; anything else is "".
func asString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
