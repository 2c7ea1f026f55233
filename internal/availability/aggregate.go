package availability

import (
	"math"

	"cloud.google.com/go/civil"

	"github.com/iliyamo/rental-availability/internal/model"
)

// Aggregate builds the per-date availability table.  Reservations ending
// before referenceDate are dropped; the days of a partially past
// reservation before referenceDate are not counted.  Contributions are
// summed, so the result does not depend on input order.  A negative
// initialStock is treated as zero.
func Aggregate(reservations []model.Reservation, initialStock int, referenceDate civil.Date) model.Table {
	table, _ := aggregate(reservations, initialStock, referenceDate)
	return table
}

type aggregateStats struct {
	in       int
	pastOnly int
}

func aggregate(reservations []model.Reservation, initialStock int, referenceDate civil.Date) (model.Table, aggregateStats) {
	if initialStock < 0 {
		initialStock = 0
	}
	stats := aggregateStats{in: len(reservations)}

	reserved := make(map[civil.Date]int)
	for _, r := range reservations {
		if r.End.Before(referenceDate) {
			stats.pastOnly++
			continue
		}
		d := r.Start
		if d.Before(referenceDate) {
			d = referenceDate
		}
		for ; !d.After(r.End); d = d.AddDays(1) {
			reserved[d] = addSat(reserved[d], r.Quantity)
		}
	}

	table := make(model.Table, len(reserved))
	for d, n := range reserved {
		table[d] = model.NewAvailability(d, n, initialStock)
	}
	return table, stats
}

// addSat adds two non-negative counts, stopping at math.MaxInt.
func addSat(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
