package validators

import (
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/dealerdesk/dealerdesk-backend/pkg/errors"
)

// ParseQueryTimestamp reads a required ISO-8601 timestamp query parameter.
// Fractional seconds are accepted; anything else is a validation error.
func ParseQueryTimestamp(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter is required").WithDetails(map[string]any{"field": key})
	}
	value, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be an ISO-8601 timestamp").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
