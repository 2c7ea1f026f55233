// Package clock lets services read the current time through an interface
// so tests can pin "today".
package clock

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/iliyamo/rental-availability/internal/availability"
)

type Clock interface {
	Now() time.Time
}

type system struct{}

// NewSystem returns the wall clock, in UTC.
func NewSystem() Clock { return system{} }

func (system) Now() time.Time { return time.Now().UTC() }

type fixed time.Time

// NewFixed returns a clock stopped at t.
func NewFixed(t time.Time) Clock { return fixed(t.UTC()) }

func (f fixed) Now() time.Time { return time.Time(f) }

// Today is the calendar date of c.Now() in loc (UTC when loc is nil).
func Today(c Clock, loc *time.Location) civil.Date {
	return availability.ReferenceDate(c.Now(), loc)
}
