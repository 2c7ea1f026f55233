// Package handler implements the HTTP endpoints.  Errors are reported as
// {"error": "..."} bodies.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/rental-availability/internal/availability"
	"github.com/iliyamo/rental-availability/internal/repository"
)

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// parseReferenceDate reads an optional date in either supported format.
// An empty string yields nil.
func parseReferenceDate(s string) (*civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := availability.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// storeError maps repository errors to responses; anything unknown is
// logged and reported as 500.
func storeError(c echo.Context, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
