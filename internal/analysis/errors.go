package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldError is one entry of a structured validation failure, e.g.
// {"loc": ["body", "images"], "msg": "field required", "type": "value_error.missing"}.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

func (e FieldError) String() string {
	field := ""
	for i := len(e.Loc) - 1; i >= 0; i-- {
		if s, ok := e.Loc[i].(string); ok && s != "body" && s != "query" {
			field = s
			break
		}
	}
	if field == "" {
		return e.Msg
	}
	return field + ": " + e.Msg
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// ErrorMessage derives a single user-facing message from a failed response.
// A "detail" string is used as is; a list of field errors is joined into one
// message.
func ErrorMessage(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if msg := detailMessage(eb.Detail); msg != "" {
			return msg
		}
		if m := strings.TrimSpace(eb.Message); m != "" {
			return m
		}
	}
	return fmt.Sprintf("analysis service returned status %d", status)
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var fields []FieldError
	if err := json.Unmarshal(raw, &fields); err == nil {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			if p := strings.TrimSpace(f.String()); p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// ParseRetryAfter parses a Retry-After header given in seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfter(val string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
