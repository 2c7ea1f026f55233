package model

import (
	"cloud.google.com/go/civil"
)

// ReservationStatus is the lifecycle tag carried by a reservation.  The
// availability core never looks at it; the reservation source uses it to
// decide which rows hold stock.
type ReservationStatus string

const (
	StatusPending    ReservationStatus = "pending"
	StatusProcessing ReservationStatus = "processing"
	StatusOnHold     ReservationStatus = "on-hold"
	StatusConfirmed  ReservationStatus = "confirmed"
	StatusCompleted  ReservationStatus = "completed"
)

// HoldingStatuses lists the statuses that hold stock by default.
var HoldingStatuses = []ReservationStatus{
	StatusPending,
	StatusProcessing,
	StatusOnHold,
	StatusConfirmed,
	StatusCompleted,
}

// Reservation is the canonical form of a hold on stock for a closed date
// range.  Values are produced by the normalizer and never modified after.
//
// Fields:
//
//	SourceID – identifier of the originating order (display only).
//	Start    – first reserved calendar date.
//	End      – last reserved calendar date (Start <= End).
//	Quantity – number of units held, always >= 1.
//	Status   – lifecycle tag, passed through untouched.
type Reservation struct {
	SourceID string            `json:"source_id"`
	Start    civil.Date        `json:"start_date"`
	End      civil.Date        `json:"end_date"`
	Quantity int               `json:"quantity"`
	Status   ReservationStatus `json:"status"`
}

// Days returns the number of calendar dates covered by the reservation.
func (r Reservation) Days() int {
	return r.End.DaysSince(r.Start) + 1
}

// RawRecord is a reservation row as the external order store delivers it:
// a free-text date range plus loosely typed quantity and status.
//
// Fields:
//
//	SourceID  – order or row identifier from the store.
//	DateRange – "<date> - <date>", each half YYYY-MM-DD or DD.MM.YYYY.
//	Quantity  – units held; may be absent, non-numeric or zero.
//	Status    – lifecycle tag as stored.
type RawRecord struct {
	SourceID  string   `json:"source_id"`
	DateRange string   `json:"date_range"`
	Quantity  RawValue `json:"quantity"`
	Status    RawValue `json:"status"`
}
