// Package service holds the use cases behind the HTTP handlers.
package service

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/iliyamo/rental-availability/internal/availability"
	"github.com/iliyamo/rental-availability/internal/clock"
	"github.com/iliyamo/rental-availability/internal/model"
	"github.com/iliyamo/rental-availability/internal/queue"
	"github.com/iliyamo/rental-availability/internal/repository"
)

type ProductStore interface {
	GetByID(ctx context.Context, id uint64) (model.Product, error)
	SetInitialStock(ctx context.Context, id, ownerID uint64, initialStock *int) error
}

type ReservationSource interface {
	ListRawByProduct(ctx context.Context, productID uint64, statuses []string) ([]model.RawRecord, error)
	Version(ctx context.Context, productID uint64, statuses []string) (string, error)
}

type ReportCache interface {
	Key(productID uint64, initialStock int, version string, ref civil.Date) string
	Get(ctx context.Context, key string) (*model.AvailabilityReport, bool, error)
	Set(ctx context.Context, key string, rep model.AvailabilityReport) error
	InvalidateProduct(ctx context.Context, productID uint64) (int, error)
}

// EventPublisher announces that cached availability of a product is stale.
type EventPublisher interface {
	PublishInvalidated(ctx context.Context, ev queue.AvailabilityInvalidatedEvent) error
}

// AvailabilityService computes availability reports for stored products.
type AvailabilityService struct {
	Products        ProductStore
	Reservations    ReservationSource
	Cache           ReportCache    // optional
	Events          EventPublisher // optional
	Engine          *availability.Engine
	Clock           clock.Clock
	Location        *time.Location
	HoldingStatuses []string
	Log             *zap.Logger
}

// Today is the reference date used when a request does not supply one.
func (s *AvailabilityService) Today() civil.Date {
	return clock.Today(s.clk(), s.Location)
}

func (s *AvailabilityService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *AvailabilityService) clk() clock.Clock {
	if s.Clock == nil {
		return clock.NewSystem()
	}
	return s.Clock
}

// Report builds the availability report of a product as of ref, or as of
// today in the business time zone when ref is nil.  Cache failures are
// logged and otherwise ignored.
func (s *AvailabilityService) Report(ctx context.Context, productID uint64, ref *civil.Date) (model.AvailabilityReport, error) {
	p, err := s.Products.GetByID(ctx, productID)
	if err != nil {
		return model.AvailabilityReport{}, err
	}
	return s.report(ctx, p, ref)
}

// OwnerReport is Report restricted to the product's owner.
func (s *AvailabilityService) OwnerReport(ctx context.Context, productID, ownerID uint64, ref *civil.Date) (model.AvailabilityReport, error) {
	p, err := s.Products.GetByID(ctx, productID)
	if err != nil {
		return model.AvailabilityReport{}, err
	}
	if p.OwnerID != ownerID {
		return model.AvailabilityReport{}, repository.ErrForbidden
	}
	return s.report(ctx, p, ref)
}

func (s *AvailabilityService) report(ctx context.Context, p model.Product, ref *civil.Date) (model.AvailabilityReport, error) {
	productID := p.ID
	stock := p.EffectiveInitialStock()
	referenceDate := s.Today()
	if ref != nil {
		referenceDate = *ref
	}

	var key string
	if s.Cache != nil {
		version, err := s.Reservations.Version(ctx, productID, s.HoldingStatuses)
		if err != nil {
			s.logger().Warn("reservation version failed; bypassing cache", zap.Uint64("product_id", productID), zap.Error(err))
		} else {
			key = s.Cache.Key(productID, stock, version, referenceDate)
			if rep, ok, err := s.Cache.Get(ctx, key); err != nil {
				s.logger().Warn("availability cache read failed", zap.String("key", key), zap.Error(err))
			} else if ok {
				return *rep, nil
			}
		}
	}

	raws, err := s.Reservations.ListRawByProduct(ctx, productID, s.HoldingStatuses)
	if err != nil {
		return model.AvailabilityReport{}, err
	}
	res := s.Engine.Compute(raws, stock, referenceDate)
	if len(res.Skipped) > 0 {
		s.logger().Info("reservation records skipped",
			zap.Uint64("product_id", productID),
			zap.Int("skipped", len(res.Skipped)),
			zap.Int("total", len(raws)),
		)
	}
	rep := model.AvailabilityReport{
		ProductID:     productID,
		InitialStock:  stock,
		ReferenceDate: referenceDate,
		Dates:         res.Table,
		Reservations:  res.Reservations,
		Skipped:       res.SkippedRecords(),
	}

	if key != "" {
		if err := s.Cache.Set(ctx, key, rep); err != nil {
			s.logger().Warn("availability cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return rep, nil
}

// SetInitialStock configures the rental stock of a product and announces
// the change.  A failed publish does not undo the update.
func (s *AvailabilityService) SetInitialStock(ctx context.Context, productID, ownerID uint64, initialStock *int) error {
	if err := s.Products.SetInitialStock(ctx, productID, ownerID, initialStock); err != nil {
		return err
	}
	if s.Events == nil {
		_, err := s.Invalidate(ctx, productID)
		return err
	}
	ev := queue.AvailabilityInvalidatedEvent{
		ProductID:  productID,
		Reason:     queue.ReasonInitialStockChanged,
		OccurredAt: s.clk().Now(),
	}
	if err := s.Events.PublishInvalidated(ctx, ev); err != nil {
		s.logger().Warn("publish invalidation failed", zap.Uint64("product_id", productID), zap.Error(err))
	}
	return nil
}

// Invalidate drops every cached report of the product.
func (s *AvailabilityService) Invalidate(ctx context.Context, productID uint64) (int, error) {
	if s.Cache == nil {
		return 0, nil
	}
	n, err := s.Cache.InvalidateProduct(ctx, productID)
	if err != nil {
		return n, err
	}
	s.logger().Debug("availability cache invalidated", zap.Uint64("product_id", productID), zap.Int("keys", n))
	return n, nil
}
