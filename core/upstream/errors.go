package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNoRefreshToken   = errors.New("no refresh token available")
	ErrResponseTooLarge = errors.New("response body too large")
)

type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindOtherHTTP
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindOtherHTTP:
		return "http"
	case KindNetwork:
		return "network"
	}
	return "unknown"
}

// APIError classifies a failed upstream call. Status is zero for Network
// and Unknown errors.
type APIError struct {
	Kind   Kind
	Status int
	Detail string
	Err    error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("upstream %s (%d): %s", e.Kind, e.Status, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream %s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("upstream %s: %s", e.Kind, e.Detail)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// AsAPIError unwraps err to an *APIError when there is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func IsKind(err error, k Kind) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == k
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	}
	return KindOtherHTTP
}

func genericDetail(k Kind, status int) string {
	switch k {
	case KindUnauthorized:
		return "Authentication required"
	case KindForbidden:
		return "You don't have permission to access this resource"
	case KindNotFound:
		return "The requested resource was not found"
	case KindNetwork:
		return "Could not reach the API server"
	case KindOtherHTTP:
		if status >= 500 {
			return fmt.Sprintf("The API server failed to handle the request (%d)", status)
		}
		return fmt.Sprintf("The API rejected the request (%d)", status)
	}
	return "Unexpected API failure"
}

func newHTTPError(status int, body []byte) *APIError {
	k := kindForStatus(status)
	detail := extractDetail(body)
	if detail == "" {
		detail = genericDetail(k, status)
	}
	return &APIError{Kind: k, Status: status, Detail: detail}
}

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Detail: genericDetail(KindNetwork, 0), Err: err}
}

// extractDetail reads the "detail" field of a JSON error body. Structured
// details, such as validation error lists, are flattened to text.
func extractDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message", "error"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		if text := renderDetail(raw); text != "" {
			return text
		}
	}
	return ""
}

func renderDetail(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if text := renderDetailItem(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "; ")
	}
	return renderDetailItem(raw)
}

func renderDetailItem(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if msg, ok := obj["msg"].(string); ok {
		if loc := renderLoc(obj["loc"]); loc != "" {
			return loc + ": " + msg
		}
		return msg
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, obj[k]))
	}
	return strings.Join(parts, ", ")
}

func renderLoc(v any) string {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		s := fmt.Sprint(it)
		if s == "body" && len(items) > 1 {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ".")
}
