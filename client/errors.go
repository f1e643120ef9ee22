package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
)

// Category classifies a failed call.
type Category string

const (
	CategoryAuthentication Category = "AUTHENTICATION_ERROR"
	CategoryValidation     Category = "VALIDATION_ERROR"
	CategoryNetwork        Category = "NETWORK_ERROR"
	CategoryServer         Category = "SERVER_ERROR"
	CategoryTimeout        Category = "TIMEOUT_ERROR"
	CategoryUnknown        Category = "UNKNOWN_ERROR"
)

var userMessages = map[Category]core.LocalText{
	CategoryAuthentication: {
		En: "Your session has expired, please log in again.",
		Tr: "Oturumunuzun süresi doldu, lütfen tekrar giriş yapın.",
	},
	CategoryValidation: {
		En: "The data is invalid, please check it and try again.",
		Tr: "Veriler geçersiz, lütfen kontrol edip tekrar deneyin.",
	},
	CategoryNetwork: {
		En: "Could not reach the server, please check your connection and try again.",
		Tr: "Sunucuya ulaşılamadı, lütfen bağlantınızı kontrol edip tekrar deneyin.",
	},
	CategoryServer: {
		En: "A server error occurred, please try again later.",
		Tr: "Bir sunucu hatası oluştu, lütfen daha sonra tekrar deneyin.",
	},
	CategoryTimeout: {
		En: "The request took too long, please try again.",
		Tr: "İstek zaman aşımına uğradı, lütfen tekrar deneyin.",
	},
	CategoryUnknown: {
		En: "An unexpected error occurred, please try again.",
		Tr: "Beklenmeyen bir hata oluştu, lütfen tekrar deneyin.",
	},
}

// UserMessage returns the fixed message shown to users for the category.
// Turkish unless `lang` is "en".
func (c Category) UserMessage(lang string) string {
	lt, ok := userMessages[c]
	if !ok {
		lt = userMessages[CategoryUnknown]
	}
	if lang == LanguageEnglish {
		return lt.En
	}
	return lt.Tr
}

// Error is returned by every failed call of the client.
type Error struct {
	Category    Category
	Message     string
	UserMessage string
	StatusCode  int               // 0 when no response was received
	Endpoint    string            // "GET /assignments/statistics"
	Fields      map[string]string // offending JSON fields of validation errors
	Err         error
}

func (e *Error) Error() string {
	return string(e.Category) + ": " + e.Message
}

// Cause returns the underlying error.
func (e *Error) Cause() error { return e.Err }

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the call may succeed if repeated.
func (e *Error) Retryable() bool {
	switch e.Category {
	case CategoryNetwork, CategoryTimeout, CategoryServer:
		return true
	}
	return false
}

// CategoryOf returns the category of err, CategoryUnknown if err is not an *Error.
func CategoryOf(err error) Category {
	var cErr *Error
	if errors.As(err, &cErr) {
		return cErr.Category
	}
	return CategoryUnknown
}

func (c *Client) newError(cat Category, endpoint, msg string, err error) *Error {
	return &Error{
		Category:    cat,
		Message:     msg,
		UserMessage: cat.UserMessage(c.conf.Language),
		Endpoint:    endpoint,
		Err:         err,
	}
}

// statusError classifies a non-2xx response.
func (c *Client) statusError(endpoint string, status int, body []byte) *Error {
	msg, fields := parseErrorBody(body)
	if msg == "" {
		msg = http.StatusText(status)
	}

	var cat Category
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		cat = CategoryAuthentication
	case status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		cat = CategoryValidation
	case status >= http.StatusInternalServerError:
		cat = CategoryServer
	default:
		cat = CategoryUnknown
	}
	e := c.newError(cat, endpoint, msg, nil)
	e.StatusCode = status
	if cat == CategoryValidation {
		e.Fields = fields
	}
	return e
}

// transportError classifies a failure to get a response. parent is the caller's context: when
// its own deadline expired first, the configured per-attempt timeout is not what fired.
func (c *Client) transportError(parent context.Context, endpoint string, err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		if parent.Err() == context.DeadlineExceeded {
			return c.newError(CategoryTimeout, endpoint, "request deadline exceeded", err)
		}
		return c.newError(CategoryTimeout, endpoint, timeoutMessage(c.conf.Timeout), err)
	}
	if errors.Is(err, context.Canceled) {
		return c.newError(CategoryUnknown, endpoint, "request canceled", err)
	}
	return c.newError(CategoryNetwork, endpoint, err.Error(), err)
}

func timeoutMessage(d time.Duration) string {
	return fmt.Sprintf("request timed out after %dms", d.Milliseconds())
}

// parseErrorBody reads the API error envelopes: {"error": "..."} or {"field": "message", ...}.
func parseErrorBody(body []byte) (string, map[string]string) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return strings.TrimSpace(string(body)), nil
	}
	if msg, ok := raw["error"].(string); ok {
		return msg, nil
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}
	return fieldsMessage(fields), fields
}

// fieldsMessage lists the fields in a stable order: "dueDate: is required; title: ...".
func fieldsMessage(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+fields[name])
	}
	return strings.Join(parts, "; ")
}
