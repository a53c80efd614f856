package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1000000000000", 100000000000000, true},
		{"1000000000000.01", 0, false},
		{"92233720368547758.08", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyDecimalRoundTrip(t *testing.T) {
	m := Money{Cents: 123456}
	if got := m.Decimal().String(); got != "1234.56" {
		t.Fatalf("unexpected decimal %s", got)
	}
	if got := MoneyFromDecimal(decimal.RequireFromString("0.005")); got.Cents != 1 {
		t.Fatalf("expected half-up to 1 cent, got %d", got.Cents)
	}
	if got := MoneyFromDecimal(decimal.RequireFromString("359.994")); got.Cents != 35999 {
		t.Fatalf("expected 35999, got %d", got.Cents)
	}
}

func TestMoneyArithmeticAndFormat(t *testing.T) {
	a, b := Money{Cents: 1050}, Money{Cents: 2080}
	if got := a.Add(b).String(); got != "31.30" {
		t.Fatalf("unexpected sum %s", got)
	}
	if got := a.Sub(b).String(); got != "-10.30" {
		t.Fatalf("unexpected difference %s", got)
	}
	if got := a.Mul(30); got.Cents != 31500 {
		t.Fatalf("unexpected product %d", got.Cents)
	}
	if got := (Money{Cents: 5}).Units(); got != 0.05 {
		t.Fatalf("unexpected units %v", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Money{"amount": {Cents: 1230}})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"amount":12.30}` {
		t.Fatalf("unexpected encoding %s", b)
	}
	var out struct {
		Amount Money `json:"amount"`
	}
	for in, want := range map[string]int64{`{"amount":12.5}`: 1250, `{"amount":"7,25"}`: 725, `{"amount":null}`: 0} {
		if err := json.Unmarshal([]byte(in), &out); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if out.Amount.Cents != want {
			t.Fatalf("%s: expected %d, got %d", in, want, out.Amount.Cents)
		}
	}
	if err := json.Unmarshal([]byte(`{"amount":"abc"}`), &out); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}

func TestMoneyJSONRejectsOutOfRange(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte("1000000000000"), &m); err != nil || m.Cents != MaxAmountCents {
		t.Fatalf("largest amount should decode, got %d (err=%v)", m.Cents, err)
	}
	for _, in := range []string{
		"1e18",
		`"100000000000000000000"`,
		"92233720368547758.08",
		"-92233720368547758.08",
		"1000000000000.01",
	} {
		m = Money{Cents: 42}
		if err := json.Unmarshal([]byte(in), &m); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s: expected ErrInvalidAmount, got %v (cents=%d)", in, err, m.Cents)
		}
		if m.Cents != 42 {
			t.Fatalf("%s: value must be left untouched, got %d", in, m.Cents)
		}
	}
}
