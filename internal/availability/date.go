package availability

import (
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

var (
	isoDate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dottedDate = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})$`)
)

// ParseDate converts "YYYY-MM-DD" or "DD.MM.YYYY" into a calendar date.
// Anything else, including well-formed strings naming impossible dates,
// fails with ErrUnparseableDate.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	switch {
	case isoDate.MatchString(s):
	case dottedDate.MatchString(s):
		m := dottedDate.FindStringSubmatch(s)
		s = m[3] + "-" + m[2] + "-" + m[1]
	default:
		return civil.Date{}, &dateError{input: s}
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, &dateError{input: s, cause: err}
	}
	return d, nil
}

// ReferenceDate truncates t to a calendar date in loc.  A nil loc means UTC.
func ReferenceDate(t time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(t.In(loc))
}
