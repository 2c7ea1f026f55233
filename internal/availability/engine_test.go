package availability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/rental-availability/internal/model"
)

func TestEngineComputeLogsSkippedRecords(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := New(WithLogger(zap.New(core)))

	result := engine.Compute([]model.RawRecord{
		{SourceID: "101", DateRange: "2025-06-01 - 2025-06-03", Quantity: model.RawInt(2), Status: model.Raw("processing")},
		{SourceID: "102", DateRange: "02.06.2025 - 02.06.2025", Quantity: model.Raw("2"), Status: model.Raw("pending")},
		{SourceID: "103", DateRange: "2025-06-31 - 2025-07-02", Quantity: model.RawInt(1)},
	}, 3, date(2025, 6, 1))

	require.Len(t, result.Reservations, 2)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 4, result.Table[date(2025, 6, 2)].Reserved)

	skippedLogs := logs.FilterMessage("reservation record skipped").All()
	require.Len(t, skippedLogs, 1)
	assert.Equal(t, "103", skippedLogs[0].ContextMap()["source_id"])

	summary := logs.FilterMessage("availability aggregated").All()
	require.Len(t, summary, 1)
	fields := summary[0].ContextMap()
	assert.EqualValues(t, 2, fields["reservations"])
	assert.EqualValues(t, 3, fields["dates"])
	assert.EqualValues(t, 1, fields["fully_booked"])
	assert.Equal(t, "2025-06-01", fields["reference_date"])

	skipped := result.SkippedRecords()
	require.Len(t, skipped, 1)
	assert.Equal(t, "103", skipped[0].SourceID)
	assert.Equal(t, "2025-06-31 - 2025-07-02", skipped[0].DateRange)
	assert.Contains(t, skipped[0].Reason, "start")
}

func TestEngineMaxRangeDays(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := New(WithLogger(zap.New(core)), WithMaxRangeDays(5))

	result := engine.Compute([]model.RawRecord{
		{SourceID: "long", DateRange: "2025-01-01 - 9999-12-31"},
		{SourceID: "edge", DateRange: "2025-06-01 - 2025-06-05", Quantity: model.RawInt(1)},
		{SourceID: "six", DateRange: "01.06.2025 - 06.06.2025"},
	}, 2, date(2025, 6, 1))

	require.Len(t, result.Reservations, 1)
	assert.Equal(t, "edge", result.Reservations[0].SourceID)
	assert.Len(t, result.Table, 5)

	require.Len(t, result.Skipped, 2)
	assert.ErrorIs(t, result.Skipped[0], ErrRangeTooLong)
	assert.ErrorIs(t, result.Skipped[0], ErrMalformedRange)
	assert.Contains(t, result.Skipped[0].Reason, "exceeds 5")
	assert.Equal(t, "six", result.Skipped[1].SourceID)
	assert.Equal(t, 2, logs.FilterMessage("reservation record skipped").Len())

	_, err := engine.Normalize(model.RawRecord{DateRange: "2025-06-01 - 2025-06-06"})
	assert.ErrorIs(t, err, ErrRangeTooLong)
}

func TestEngineUnboundedByDefault(t *testing.T) {
	for _, engine := range []*Engine{New(), New(WithMaxRangeDays(0))} {
		r, err := engine.Normalize(model.RawRecord{DateRange: "2025-01-01 - 2026-12-31"})
		require.NoError(t, err)
		assert.Equal(t, 730, r.Days())
	}
}

func TestEngineDefaultsToNop(t *testing.T) {
	engine := New(WithLogger(nil))
	_, err := engine.Normalize(model.RawRecord{DateRange: "bad"})
	assert.ErrorIs(t, err, ErrMalformedRange)
}

func TestEngineInfoLevelSuppressesDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	engine := New(WithLogger(zap.New(core)))
	engine.Compute([]model.RawRecord{{DateRange: "bad"}}, 1, date(2025, 1, 1))
	assert.Zero(t, logs.Len())
}

func TestEngineConcurrentUse(t *testing.T) {
	engine := New()
	raws := []model.RawRecord{
		{SourceID: "1", DateRange: "2025-06-01 - 2025-06-30", Quantity: model.RawInt(1)},
		{SourceID: "2", DateRange: "15.06.2025 - 20.06.2025", Quantity: model.RawInt(2)},
	}
	want := engine.Compute(raws, 5, date(2025, 6, 1)).Table

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := engine.Compute(raws, 5, date(2025, 6, 1)).Table
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestReferenceDateUsesLocation(t *testing.T) {
	// 23:30 UTC on 31 May is already 1 June in Berlin.
	instant := time.Date(2025, 5, 31, 23, 30, 0, 0, time.UTC)
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	assert.Equal(t, date(2025, 5, 31), ReferenceDate(instant, nil))
	assert.Equal(t, date(2025, 6, 1), ReferenceDate(instant, berlin))
}
