// Package availability turns raw reservation rows into canonical
// reservations and computes per-date availability from them.  Everything
// here is a pure function of its inputs; logging goes through the
// *zap.Logger handed to an Engine.
package availability

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iliyamo/rental-availability/internal/model"
)

// RangeSeparator joins the two dates of a raw date range.
const RangeSeparator = " - "

// MaxQuantity is the largest quantity taken from a record.  Larger values
// are treated like non-numeric ones.
const MaxQuantity = math.MaxInt32

// Normalize parses a raw record into a canonical reservation.  A range
// that does not split into exactly two valid dates, or whose end precedes
// its start, yields a *NormalizationError.  Missing, non-numeric,
// non-positive and above-MaxQuantity quantities become 1.
func Normalize(raw model.RawRecord) (model.Reservation, error) {
	parts := strings.Split(raw.DateRange, RangeSeparator)
	if len(parts) != 2 {
		return model.Reservation{}, malformed(raw,
			fmt.Sprintf("expected two dates separated by %q, got %d part(s)", RangeSeparator, len(parts)), nil)
	}

	start, err := ParseDate(parts[0])
	if err != nil {
		return model.Reservation{}, malformed(raw, "start: "+err.Error(), err)
	}
	end, err := ParseDate(parts[1])
	if err != nil {
		return model.Reservation{}, malformed(raw, "end: "+err.Error(), err)
	}
	if end.Before(start) {
		return model.Reservation{}, malformed(raw, fmt.Sprintf("end %s is before start %s", end, start), nil)
	}

	return model.Reservation{
		SourceID: raw.SourceID,
		Start:    start,
		End:      end,
		Quantity: quantity(raw.Quantity),
		Status:   model.ReservationStatus(strings.TrimSpace(raw.Status.String())),
	}, nil
}

// NormalizeAll normalizes a batch.  Rejected records are returned
// separately and never stop the batch.
func NormalizeAll(raws []model.RawRecord) ([]model.Reservation, []*NormalizationError) {
	out := make([]model.Reservation, 0, len(raws))
	var skipped []*NormalizationError
	for _, raw := range raws {
		r, err := Normalize(raw)
		if err != nil {
			skipped = append(skipped, err.(*NormalizationError))
			continue
		}
		out = append(out, r)
	}
	return out, skipped
}

// quantity is the single place where a loosely typed quantity is read.
func quantity(v model.RawValue) int {
	if !v.Set {
		return 1
	}
	s := strings.TrimSpace(v.Text)
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || f < 1 || f > MaxQuantity {
			return 1
		}
		n = int(f)
	}
	if n <= 0 || n > MaxQuantity {
		return 1
	}
	return n
}

func malformed(raw model.RawRecord, reason string, cause error) *NormalizationError {
	return &NormalizationError{
		SourceID:  raw.SourceID,
		DateRange: raw.DateRange,
		Reason:    reason,
		Err:       cause,
	}
}
