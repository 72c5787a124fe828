package search

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the lifecycle tag of a document. The engine only compares
// statuses for equality; their meaning belongs to the caller.
type Status int

const (
	StatusActual Status = iota
	StatusIrrelevant
	StatusBanned
	StatusRemoved
)

var statusNames = [...]string{
	StatusActual:     "ACTUAL",
	StatusIrrelevant: "IRRELEVANT",
	StatusBanned:     "BANNED",
	StatusRemoved:    "REMOVED",
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	return s >= StatusActual && s <= StatusRemoved
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus converts a status name to a Status, ignoring case and
// surrounding whitespace.
func ParseStatus(name string) (Status, error) {
	// Caser values are stateful; build one per call.
	upper := cases.Upper(language.Und).String(strings.TrimSpace(name))
	for i, n := range statusNames {
		if n == upper {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
