package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	apperrors "github.com/Pratikmahatara/Shoe/pkg/errors"
)

// maxErrorBody bounds how much of an upstream error body is read.
const maxErrorBody = 1 << 20

// ResponseError describes a non-2xx response from an upstream API. The raw
// JSON body is kept so callers can surface it to the shopper unchanged.
type ResponseError struct {
	Service string
	Status  int
	Message string
	Body    json.RawMessage
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Message)
}

// Unwrap maps the upstream status onto the application sentinels.
func (e *ResponseError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return apperrors.ErrNotFound
	case e.Status == http.StatusServiceUnavailable:
		return apperrors.ErrServiceUnavail
	default:
		return apperrors.ErrUpstream
	}
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into a *ResponseError. Django REST style bodies ({"detail": "..."} or
// {"field": ["msg", ...]}) are flattened into Message.
//
// The caller should only invoke this when resp.StatusCode is not 2xx. The
// response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	respErr := &ResponseError{
		Service: serviceName,
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}

	if json.Valid(bodyBytes) {
		respErr.Body = json.RawMessage(bodyBytes)
		if msg := summarize(bodyBytes); msg != "" {
			respErr.Message = msg
		}
	} else if text := strings.TrimSpace(string(bodyBytes)); text != "" {
		respErr.Message = text
	}

	return respErr
}

// summarize extracts a readable message from a JSON error body.
func summarize(body []byte) string {
	var detail struct {
		Detail string `json:"detail"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &detail) == nil {
		if detail.Detail != "" {
			return detail.Detail
		}
		if detail.Error != nil && detail.Error.Message != "" {
			return detail.Error.Message
		}
	}

	var fields map[string]any
	if json.Unmarshal(body, &fields) != nil || len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, flatten(fields[k])))
	}
	return strings.Join(parts, "; ")
}

func flatten(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		msgs := make([]string, 0, len(t))
		for _, item := range t {
			msgs = append(msgs, flatten(item))
		}
		return strings.Join(msgs, ", ")
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
