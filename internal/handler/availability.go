package handler

import (
	"context"
	"fmt"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/rental-availability/internal/availability"
	"github.com/iliyamo/rental-availability/internal/model"
)

// MaxComputeRecords bounds the body of POST /v1/availability/compute.
const MaxComputeRecords = 1000

type AvailabilityReporter interface {
	Report(ctx context.Context, productID uint64, ref *civil.Date) (model.AvailabilityReport, error)
	Today() civil.Date
}

// AvailabilityHandler serves the public availability endpoints.
type AvailabilityHandler struct {
	Service AvailabilityReporter
	Engine  *availability.Engine
	Log     *zap.Logger
}

func NewAvailabilityHandler(svc AvailabilityReporter, engine *availability.Engine, log *zap.Logger) *AvailabilityHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AvailabilityHandler{Service: svc, Engine: engine, Log: log}
}

type productAvailabilityResp struct {
	ProductID     uint64      `json:"product_id"`
	InitialStock  int         `json:"initial_stock"`
	ReferenceDate civil.Date  `json:"reference_date"`
	Dates         model.Table `json:"dates"`
}

// GetProductAvailability: GET /v1/products/:id/availability
func (h *AvailabilityHandler) GetProductAvailability(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	rep, err := h.Service.Report(c.Request().Context(), id, nil)
	if err != nil {
		return storeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, productAvailabilityResp{
		ProductID:     rep.ProductID,
		InitialStock:  rep.InitialStock,
		ReferenceDate: rep.ReferenceDate,
		Dates:         rep.Dates,
	})
}

type computeReq struct {
	InitialStock  int               `json:"initial_stock"`
	ReferenceDate string            `json:"reference_date"`
	Records       []model.RawRecord `json:"records"`
}

type computeResp struct {
	InitialStock  int                   `json:"initial_stock"`
	ReferenceDate civil.Date            `json:"reference_date"`
	Dates         model.Table           `json:"dates"`
	Reservations  []model.Reservation   `json:"reservations"`
	Skipped       []model.SkippedRecord `json:"skipped"`
}

// Compute: POST /v1/availability/compute runs the pipeline over posted
// records without touching storage.  Reservations longer than the engine's
// range cap are skipped like malformed ones.
func (h *AvailabilityHandler) Compute(c echo.Context) error {
	var req computeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.InitialStock < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "initial_stock must not be negative"})
	}
	if len(req.Records) > MaxComputeRecords {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("at most %d records", MaxComputeRecords)})
	}
	ref, err := parseReferenceDate(req.ReferenceDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reference_date"})
	}
	referenceDate := h.Service.Today()
	if ref != nil {
		referenceDate = *ref
	}

	res := h.Engine.Compute(req.Records, req.InitialStock, referenceDate)
	return c.JSON(http.StatusOK, computeResp{
		InitialStock:  req.InitialStock,
		ReferenceDate: referenceDate,
		Dates:         res.Table,
		Reservations:  res.Reservations,
		Skipped:       res.SkippedRecords(),
	})
}
