package validators

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/dealerdesk/dealerdesk-backend/pkg/errors"
)

func TestParseQueryTimestamp_Success(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?timestamp=2025-06-01T12:00:00Z", nil)

	got, err := ParseQueryTimestamp(req, "timestamp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestParseQueryTimestamp_FractionalSecondsAndOffset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?timestamp=2025-06-01T14:30:00.250%2B02:00", nil)

	got, err := ParseQueryTimestamp(req, "timestamp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 6, 1, 12, 30, 0, 250_000_000, time.UTC)
	if !got.UTC().Equal(want) {
		t.Fatalf("expected %s, got %s", want, got.UTC())
	}
}

func TestParseQueryTimestamp_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := ParseQueryTimestamp(req, "timestamp")
	if err == nil {
		t.Fatal("expected missing parameter to fail")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryTimestamp_Malformed(t *testing.T) {
	for _, raw := range []string{"yesterday", "2025-06-01", "1717243200"} {
		req := httptest.NewRequest(http.MethodGet, "/?timestamp="+raw, nil)
		if _, err := ParseQueryTimestamp(req, "timestamp"); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
