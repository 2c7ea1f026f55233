package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/rental-availability/internal/middleware"
	"github.com/iliyamo/rental-availability/internal/model"
)

type OwnerProductService interface {
	OwnerReport(ctx context.Context, productID, ownerID uint64, ref *civil.Date) (model.AvailabilityReport, error)
	SetInitialStock(ctx context.Context, productID, ownerID uint64, initialStock *int) error
}

// OwnerProductHandler serves the owner-only product endpoints.
type OwnerProductHandler struct {
	Service OwnerProductService
	Log     *zap.Logger
}

func NewOwnerProductHandler(svc OwnerProductService, log *zap.Logger) *OwnerProductHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OwnerProductHandler{Service: svc, Log: log}
}

// GetReservations: GET /v1/owner/products/:id/reservations[?reference_date=]
// returns the full report, including the records that were skipped and why.
func (h *OwnerProductHandler) GetReservations(c echo.Context) error {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ref, err := parseReferenceDate(c.QueryParam("reference_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reference_date"})
	}
	rep, err := h.Service.OwnerReport(c.Request().Context(), id, ownerID, ref)
	if err != nil {
		return storeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rep)
}

type initialStockReq struct {
	InitialStock json.RawMessage `json:"initial_stock"`
}

// PutInitialStock: PUT /v1/owner/products/:id/initial-stock with
// {"initial_stock": n} or {"initial_stock": null} to fall back to the live
// stock.
func (h *OwnerProductHandler) PutInitialStock(c echo.Context) error {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req initialStockReq
	if err := c.Bind(&req); err != nil || len(req.InitialStock) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "initial_stock required"})
	}
	var stock *int
	if err := json.Unmarshal(req.InitialStock, &stock); err != nil || (stock != nil && *stock < 0) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "initial_stock must be a non-negative integer or null"})
	}

	if err := h.Service.SetInitialStock(c.Request().Context(), id, ownerID, stock); err != nil {
		return storeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
