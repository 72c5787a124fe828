package search

import (
	"errors"
	"testing"
)

func TestStatusStringAndParse(t *testing.T) {
	for _, s := range []Status{StatusActual, StatusIrrelevant, StatusBanned, StatusRemoved} {
		got, err := ParseStatus(s.String())
		if err != nil || got != s {
			t.Fatalf("round trip %v: got %v, %v", s, got, err)
		}
	}
	cases := map[string]Status{
		"actual":     StatusActual,
		" Banned ":   StatusBanned,
		"irrelevant": StatusIrrelevant,
		"REMOVED":    StatusRemoved,
	}
	for in, want := range cases {
		got, err := ParseStatus(in)
		if err != nil || got != want {
			t.Errorf("ParseStatus(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseStatus("archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("unknown status should fail, got %v", err)
	}
	if Status(42).Valid() || Status(-1).Valid() {
		t.Fatalf("out-of-range statuses must be invalid")
	}
	if Status(42).String() != "Status(42)" {
		t.Fatalf("unexpected String for invalid status: %q", Status(42).String())
	}
}

func TestStatusText(t *testing.T) {
	b, err := StatusBanned.MarshalText()
	if err != nil || string(b) != "BANNED" {
		t.Fatalf("MarshalText = %q, %v", b, err)
	}
	if _, err := Status(7).MarshalText(); err == nil {
		t.Fatalf("invalid status should not marshal")
	}
	var s Status
	if err := s.UnmarshalText([]byte("removed")); err != nil || s != StatusRemoved {
		t.Fatalf("UnmarshalText = %v, %v", s, err)
	}
	if err := s.UnmarshalText([]byte("nope")); err == nil {
		t.Fatalf("UnmarshalText should reject unknown names")
	}
}
