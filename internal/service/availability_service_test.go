package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/rental-availability/internal/availability"
	"github.com/iliyamo/rental-availability/internal/clock"
	"github.com/iliyamo/rental-availability/internal/model"
	"github.com/iliyamo/rental-availability/internal/queue"
	"github.com/iliyamo/rental-availability/internal/repository"
)

type fakeProducts struct {
	products map[uint64]model.Product
	setErr   error
	set      []*int
}

func (f *fakeProducts) GetByID(_ context.Context, id uint64) (model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return model.Product{}, repository.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProducts) SetInitialStock(_ context.Context, _, _ uint64, v *int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.set = append(f.set, v)
	return nil
}

type fakeReservations struct {
	raws     []model.RawRecord
	version  string
	versErr  error
	lists    int
	statuses []string
}

func (f *fakeReservations) ListRawByProduct(_ context.Context, _ uint64, statuses []string) ([]model.RawRecord, error) {
	f.lists++
	f.statuses = statuses
	return f.raws, nil
}

func (f *fakeReservations) Version(context.Context, uint64, []string) (string, error) {
	return f.version, f.versErr
}

type memCache struct {
	entries     map[string]model.AvailabilityReport
	getErr      error
	invalidated []uint64
}

func (m *memCache) Key(productID uint64, stock int, version string, ref civil.Date) string {
	return version + "/" + ref.String()
}

func (m *memCache) Get(_ context.Context, key string) (*model.AvailabilityReport, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	rep, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &rep, true, nil
}

func (m *memCache) Set(_ context.Context, key string, rep model.AvailabilityReport) error {
	m.entries[key] = rep
	return nil
}

func (m *memCache) InvalidateProduct(_ context.Context, productID uint64) (int, error) {
	m.invalidated = append(m.invalidated, productID)
	n := len(m.entries)
	m.entries = map[string]model.AvailabilityReport{}
	return n, nil
}

type fakePublisher struct {
	events []queue.AvailabilityInvalidatedEvent
	err    error
}

func (f *fakePublisher) PublishInvalidated(_ context.Context, ev queue.AvailabilityInvalidatedEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

var now = time.Date(2025, 5, 31, 23, 30, 0, 0, time.UTC)

func newService(t *testing.T) (*AvailabilityService, *fakeReservations, *memCache) {
	t.Helper()
	three := 3
	res := &fakeReservations{
		version: "v1",
		raws: []model.RawRecord{
			{SourceID: "1", DateRange: "2025-06-01 - 2025-06-03", Quantity: model.RawInt(2)},
			{SourceID: "2", DateRange: "02.06.2025 - 02.06.2025", Quantity: model.Raw("2")},
			{SourceID: "3", DateRange: "garbage"},
		},
	}
	mc := &memCache{entries: map[string]model.AvailabilityReport{}}
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	svc := &AvailabilityService{
		Products:        &fakeProducts{products: map[uint64]model.Product{7: {ID: 7, OwnerID: 9, Stock: 10, InitialStock: &three}}},
		Reservations:    res,
		Cache:           mc,
		Engine:          availability.New(),
		Clock:           clock.NewFixed(now),
		Location:        berlin,
		HoldingStatuses: []string{"processing"},
	}
	return svc, res, mc
}

func TestReport(t *testing.T) {
	svc, res, _ := newService(t)

	rep, err := svc.Report(context.Background(), 7, nil)
	require.NoError(t, err)

	// 23:30 UTC on 31 May is 1 June in Berlin
	june1 := civil.Date{Year: 2025, Month: time.June, Day: 1}
	assert.Equal(t, june1, rep.ReferenceDate)
	assert.Equal(t, 3, rep.InitialStock)
	assert.Equal(t, []string{"processing"}, res.statuses)
	require.Len(t, rep.Dates, 3)
	assert.True(t, rep.Dates[june1.AddDays(1)].IsFullyBooked)
	assert.Len(t, rep.Reservations, 2)
	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, "3", rep.Skipped[0].SourceID)
}

func TestReportUsesCacheUntilVersionChanges(t *testing.T) {
	svc, res, _ := newService(t)
	ctx := context.Background()

	first, err := svc.Report(ctx, 7, nil)
	require.NoError(t, err)
	second, err := svc.Report(ctx, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, res.lists)

	res.version = "v2"
	res.raws = res.raws[:1]
	third, err := svc.Report(ctx, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.lists)
	assert.Equal(t, 2, third.Dates[civil.Date{Year: 2025, Month: time.June, Day: 2}].Reserved)
}

func TestReportExplicitReferenceDate(t *testing.T) {
	svc, _, _ := newService(t)
	ref := civil.Date{Year: 2025, Month: time.June, Day: 3}

	rep, err := svc.Report(context.Background(), 7, &ref)
	require.NoError(t, err)
	assert.Equal(t, []civil.Date{ref}, rep.Dates.Dates())
}

func TestReportSurvivesCacheFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc, res, mc := newService(t)
	svc.Log = zap.New(core)

	mc.getErr = errors.New("redis down")
	_, err := svc.Report(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("availability cache read failed").Len())

	mc.getErr = nil
	res.versErr = errors.New("db hiccup")
	_, err = svc.Report(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("reservation version failed; bypassing cache").Len())
	assert.Equal(t, 2, res.lists)
}

func TestReportSkipsOverlongStoredRanges(t *testing.T) {
	svc, res, mc := newService(t)
	svc.Engine = availability.New(availability.WithMaxRangeDays(366))
	res.raws = append(res.raws, model.RawRecord{SourceID: "4", DateRange: "2025-01-01 - 9999-12-31", Quantity: model.RawInt(1)})

	rep, err := svc.Report(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Len(t, rep.Dates, 3)
	assert.Len(t, rep.Reservations, 2)
	require.Len(t, rep.Skipped, 2)
	assert.Equal(t, "4", rep.Skipped[1].SourceID)
	assert.Contains(t, rep.Skipped[1].Reason, "exceeds 366")

	require.Len(t, mc.entries, 1)
	for _, cached := range mc.entries {
		assert.Len(t, cached.Dates, 3)
	}
}

func TestReportWithoutCache(t *testing.T) {
	svc, res, _ := newService(t)
	svc.Cache = nil
	_, err := svc.Report(context.Background(), 7, nil)
	require.NoError(t, err)
	_, err = svc.Report(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.lists)
}

func TestReportUnknownProduct(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Report(context.Background(), 99, nil)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestSetInitialStockPublishes(t *testing.T) {
	svc, _, _ := newService(t)
	pub := &fakePublisher{err: errors.New("broker down")}
	svc.Events = pub
	five := 5

	require.NoError(t, svc.SetInitialStock(context.Background(), 7, 9, &five))
	require.Len(t, pub.events, 1)
	assert.Equal(t, uint64(7), pub.events[0].ProductID)
	assert.Equal(t, queue.ReasonInitialStockChanged, pub.events[0].Reason)
	assert.Equal(t, now, pub.events[0].OccurredAt)
}

func TestSetInitialStockWithoutBrokerInvalidatesDirectly(t *testing.T) {
	svc, _, mc := newService(t)
	_, err := svc.Report(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Len(t, mc.entries, 1)

	require.NoError(t, svc.SetInitialStock(context.Background(), 7, 9, nil))
	assert.Equal(t, []uint64{7}, mc.invalidated)
	assert.Empty(t, mc.entries)
}

func TestSetInitialStockPropagatesStoreErrors(t *testing.T) {
	svc, _, _ := newService(t)
	svc.Products.(*fakeProducts).setErr = repository.ErrForbidden
	pub := &fakePublisher{}
	svc.Events = pub

	assert.ErrorIs(t, svc.SetInitialStock(context.Background(), 7, 1, nil), repository.ErrForbidden)
	assert.Empty(t, pub.events)
}

func TestOwnerReport(t *testing.T) {
	svc, _, _ := newService(t)

	rep, err := svc.OwnerReport(context.Background(), 7, 9, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), rep.ProductID)

	_, err = svc.OwnerReport(context.Background(), 7, 10, nil)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	_, err = svc.OwnerReport(context.Background(), 99, 9, nil)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}
