package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"asesor/internal/core"
)

func TestParseAsOf(t *testing.T) {
	today := core.NewDate(2025, 6, 15)
	tests := []struct {
		query   string
		want    core.Date
		wantErr bool
	}{
		{"", today, false},
		{"?as_of=2024-02-29", core.NewDate(2024, 2, 29), false},
		{"?as_of=%202024-01-01%20", core.NewDate(2024, 1, 1), false},
		{"?as_of=2024-02-30", core.Date{}, true},
		{"?as_of=today", core.Date{}, true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/summary"+tt.query, nil)
		got, err := ParseAsOf(r, today)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%q: err=%v wantErr=%v", tt.query, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errBadRequest) {
			t.Fatalf("%q: expected errBadRequest, got %v", tt.query, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("%q: got %s want %s", tt.query, got, tt.want)
		}
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", defaultRecentLimit, false},
		{"?limit=5", 5, false},
		{"?limit=500", 500, false},
		{"?limit=501", 0, true},
		{"?limit=-1", 0, true},
		{"?limit=ten", 0, true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/transactions"+tt.query, nil)
		got, err := ParseLimit(r)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("%q: got (%d, %v), want %d wantErr=%v", tt.query, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Amount core.Money `json:"amount"`
	}

	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"3,50"}`))
		var p payload
		if err := DecodeJSON(httptest.NewRecorder(), r, &p); err != nil {
			t.Fatal(err)
		}
		if p.Amount.Cents != 350 {
			t.Fatalf("got %d cents", p.Amount.Cents)
		}
	})

	t.Run("bad amount is a validation error", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"1.2.3"}`))
		var p payload
		err := DecodeJSON(httptest.NewRecorder(), r, &p)
		if !errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, errBadRequest) {
			t.Fatalf("unexpected error %v", err)
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		body := `{"amount":"` + strings.Repeat("1", maxBodyBytes) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var p payload
		if err := DecodeJSON(httptest.NewRecorder(), r, &p); !errors.Is(err, errBadRequest) {
			t.Fatalf("expected errBadRequest, got %v", err)
		}
	})
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  pan\x00 integral\x07 "); got != "pan integral" {
		t.Fatalf("got %q", got)
	}
	if got := sanitizeInput("línea\tcon tab"); got != "línea\tcon tab" {
		t.Fatalf("got %q", got)
	}
}

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	UnauthorizedError("missing token").Write(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Header().Get("WWW-Authenticate"), "Bearer") {
		t.Fatalf("missing challenge: %v", rec.Header())
	}
	if strings.TrimSpace(rec.Body.String()) != `{"error":"missing token"}` {
		t.Fatalf("body=%q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rec, r)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("empty body expected, got %d %q", rec.Code, rec.Body.String())
	}
}
