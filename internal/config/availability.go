package config

import (
	"fmt"
	"time"

	"github.com/iliyamo/rental-availability/internal/model"
)

// AvailabilityConfig holds the business settings of the availability
// computation.
type AvailabilityConfig struct {
	// TimeZone decides which calendar day "today" is.
	TimeZone *time.Location
	// HoldingStatuses are the reservation statuses that consume stock.
	HoldingStatuses []string
	// MaxRangeDays caps the span of a single reservation, stored or posted.
	// Longer ones are skipped.
	MaxRangeDays int
}

func LoadAvailabilityConfig() (AvailabilityConfig, error) {
	tz := getenv("BUSINESS_TZ", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return AvailabilityConfig{}, fmt.Errorf("BUSINESS_TZ %q: %w", tz, err)
	}

	defaults := make([]string, 0, len(model.HoldingStatuses))
	for _, s := range model.HoldingStatuses {
		defaults = append(defaults, string(s))
	}

	c := AvailabilityConfig{
		TimeZone:        loc,
		HoldingStatuses: envList("HOLDING_STATUSES", defaults),
		MaxRangeDays:    envInt("AVAILABILITY_MAX_RANGE_DAYS", 366),
	}
	if c.MaxRangeDays < 1 {
		c.MaxRangeDays = 1
	}
	return c, nil
}
