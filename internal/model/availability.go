package model

import (
	"encoding/json"
	"sort"

	"cloud.google.com/go/civil"
)

// Availability holds the derived figures for one calendar date.
//
// Fields:
//
//	Date          – the calendar date (map key in Table).
//	Reserved      – sum of quantities of reservations covering Date.
//	Available     – max(0, InitialStock - Reserved).
//	IsAvailable   – Available > 0.
//	IsFullyBooked – Reserved >= InitialStock.
//	InitialStock  – stock the figures were computed against.
type Availability struct {
	Date          civil.Date `json:"-"`
	Reserved      int        `json:"reserved"`
	Available     int        `json:"available"`
	IsAvailable   bool       `json:"is_available"`
	IsFullyBooked bool       `json:"is_fully_booked"`
	InitialStock  int        `json:"initial_stock"`
}

// NewAvailability derives the per-date figures from a reserved count.
// Over-booking is allowed and reports zero availability.
func NewAvailability(date civil.Date, reserved, initialStock int) Availability {
	available := initialStock - reserved
	if available < 0 {
		available = 0
	}
	return Availability{
		Date:          date,
		Reserved:      reserved,
		Available:     available,
		IsAvailable:   available > 0,
		IsFullyBooked: reserved >= initialStock,
		InitialStock:  initialStock,
	}
}

// Table maps each date with at least one counted reservation to its
// availability.  encoding/json writes the keys as sorted YYYY-MM-DD strings.
type Table map[civil.Date]Availability

// Dates returns the table keys in ascending order.
func (t Table) Dates() []civil.Date {
	out := make([]civil.Date, 0, len(t))
	for d := range t {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// FullyBooked returns the fully booked dates in ascending order.
func (t Table) FullyBooked() []civil.Date {
	var out []civil.Date
	for _, d := range t.Dates() {
		if t[d].IsFullyBooked {
			out = append(out, d)
		}
	}
	return out
}

// SkippedRecord describes a raw record the normalizer rejected.
type SkippedRecord struct {
	SourceID  string `json:"source_id"`
	DateRange string `json:"date_range"`
	Reason    string `json:"reason"`
}

// AvailabilityReport is what the service hands to the presentation layer
// and what gets cached per product and reference date.
type AvailabilityReport struct {
	ProductID     uint64          `json:"product_id"`
	InitialStock  int             `json:"initial_stock"`
	ReferenceDate civil.Date      `json:"reference_date"`
	Dates         Table           `json:"dates"`
	Reservations  []Reservation   `json:"reservations"`
	Skipped       []SkippedRecord `json:"skipped"`
}

// UnmarshalJSON restores each entry's Date from its key, which is the only
// place the date is serialized.
func (t *Table) UnmarshalJSON(b []byte) error {
	var m map[civil.Date]Availability
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	out := make(Table, len(m))
	for d, a := range m {
		a.Date = d
		out[d] = a
	}
	*t = out
	return nil
}
