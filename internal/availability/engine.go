package availability

import (
	"fmt"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/iliyamo/rental-availability/internal/model"
)

// Engine runs the normalize/aggregate pipeline and reports what it skipped
// to the logger it was built with.  It holds no other state and is safe for
// concurrent use.
type Engine struct {
	log          *zap.Logger
	maxRangeDays int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the debug sink.  A nil logger keeps the no-op default.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMaxRangeDays rejects reservations covering more than n dates.  n <= 0
// leaves ranges unbounded.
func WithMaxRangeDays(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRangeDays = n
		}
	}
}

// New returns an Engine.  Without options it logs nothing.
func New(opts ...Option) *Engine {
	e := &Engine{log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one Compute call.
type Result struct {
	Reservations []model.Reservation
	Skipped      []*NormalizationError
	Table        model.Table
}

// SkippedRecords converts the rejected records for presentation.
func (r Result) SkippedRecords() []model.SkippedRecord {
	out := make([]model.SkippedRecord, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		out = append(out, model.SkippedRecord{
			SourceID:  s.SourceID,
			DateRange: s.DateRange,
			Reason:    s.Reason,
		})
	}
	return out
}

// Normalize is the package-level Normalize plus the range cap, with the
// rejection logged.
func (e *Engine) Normalize(raw model.RawRecord) (model.Reservation, error) {
	r, err := e.normalize(raw)
	if err != nil {
		e.logSkipped(err)
		return model.Reservation{}, err
	}
	return r, nil
}

// NormalizeAll normalizes a batch, logging each rejected record.
func (e *Engine) NormalizeAll(raws []model.RawRecord) ([]model.Reservation, []*NormalizationError) {
	out := make([]model.Reservation, 0, len(raws))
	var skipped []*NormalizationError
	for _, raw := range raws {
		r, err := e.normalize(raw)
		if err != nil {
			e.logSkipped(err)
			skipped = append(skipped, err)
			continue
		}
		out = append(out, r)
	}
	return out, skipped
}

func (e *Engine) normalize(raw model.RawRecord) (model.Reservation, *NormalizationError) {
	r, err := Normalize(raw)
	if err != nil {
		return model.Reservation{}, err.(*NormalizationError)
	}
	if e.maxRangeDays > 0 && r.Days() > e.maxRangeDays {
		return model.Reservation{}, malformed(raw,
			fmt.Sprintf("range of %d days exceeds %d", r.Days(), e.maxRangeDays), ErrRangeTooLong)
	}
	return r, nil
}

// Aggregate is the package-level Aggregate with a debug summary.
func (e *Engine) Aggregate(reservations []model.Reservation, initialStock int, referenceDate civil.Date) model.Table {
	table, stats := aggregate(reservations, initialStock, referenceDate)
	if ce := e.log.Check(zap.DebugLevel, "availability aggregated"); ce != nil {
		ce.Write(
			zap.Int("reservations", stats.in),
			zap.Int("past_dropped", stats.pastOnly),
			zap.Int("dates", len(table)),
			zap.Int("fully_booked", len(table.FullyBooked())),
			zap.Int("initial_stock", initialStock),
			zap.Stringer("reference_date", referenceDate),
		)
	}
	return table
}

// Compute runs the whole pipeline over raw records.
func (e *Engine) Compute(raws []model.RawRecord, initialStock int, referenceDate civil.Date) Result {
	reservations, skipped := e.NormalizeAll(raws)
	return Result{
		Reservations: reservations,
		Skipped:      skipped,
		Table:        e.Aggregate(reservations, initialStock, referenceDate),
	}
}

func (e *Engine) logSkipped(err *NormalizationError) {
	e.log.Debug("reservation record skipped",
		zap.String("source_id", err.SourceID),
		zap.String("date_range", err.DateRange),
		zap.Error(err),
	)
}
