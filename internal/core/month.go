// Package core holds the client-side data model and the derived values
// computed from it. Authoritative copies of every entity live behind the
// backend API; this package only shapes what a single view needs.
package core

import (
	"errors"
	"fmt"
	"time"
)

// Month identifies a calendar month as seen on the wire ("YYYY-MM").
type Month struct {
	Year int
	Mon  time.Month
}

var ErrInvalidMonth = errors.New("invalid month")

// ParseMonth parses the YYYY-MM wire format.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Mon: t.Month()}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Mon: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Mon))
}

// Label renders the month for display, e.g. "March 2024".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Mon.String(), m.Year)
}

func (m Month) Validate() error {
	if m.Year < 1 || m.Mon < time.January || m.Mon > time.December {
		return ErrInvalidMonth
	}
	return nil
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Mon == 0
}

// Prev steps one month back. Stepping back is always allowed.
func (m Month) Prev() Month {
	if m.Mon == time.January {
		return Month{Year: m.Year - 1, Mon: time.December}
	}
	return Month{Year: m.Year, Mon: m.Mon - 1}
}

// Next steps one month forward without any boundary check. Callers that honor
// the selection invariant should go through NextClamped.
func (m Month) Next() Month {
	if m.Mon == time.December {
		return Month{Year: m.Year + 1, Mon: time.January}
	}
	return Month{Year: m.Year, Mon: m.Mon + 1}
}

// Before reports whether m is earlier than other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Mon < other.Mon
}

// NextClamped steps forward but never past the month containing now. The
// device clock is the source of truth for "now"; the server is not consulted.
func (m Month) NextClamped(now time.Time) Month {
	cur := MonthOf(now)
	if !m.Before(cur) {
		return m
	}
	return m.Next()
}

// AtBoundary reports whether forward navigation must be disabled, i.e. the
// selection already is (or somehow passed) the current calendar month.
func (m Month) AtBoundary(now time.Time) bool {
	return !m.Before(MonthOf(now))
}

// MarshalText implements encoding.TextMarshaler for the YYYY-MM wire format.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
