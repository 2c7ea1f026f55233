package repository

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/rental-availability/internal/model"
)

// ReservationRepo reads the reservations mirrored from the order store.
// The table keeps the store's loosely typed columns as text; the
// availability package does the parsing.
//
//	reservations(id, order_id NULL, product_id, date_range, quantity NULL,
//	             status, updated_at)
type ReservationRepo struct {
	db *sql.DB
}

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ListRawByProduct returns the product's reservations whose status is in
// statuses, ordered by id.  An empty statuses slice applies no filter.
func (r *ReservationRepo) ListRawByProduct(ctx context.Context, productID uint64, statuses []string) ([]model.RawRecord, error) {
	where, args := statusFilter(productID, statuses)
	q := `SELECT id, order_id, date_range, quantity, status FROM reservations WHERE ` + where + ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	out := []model.RawRecord{}
	for rows.Next() {
		var (
			id        uint64
			orderID   sql.NullString
			dateRange string
			quantity  sql.NullString
			status    sql.NullString
		)
		if err := rows.Scan(&id, &orderID, &dateRange, &quantity, &status); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		rec := model.RawRecord{
			SourceID:  strconv.FormatUint(id, 10),
			DateRange: dateRange,
		}
		if orderID.Valid && strings.TrimSpace(orderID.String) != "" {
			rec.SourceID = orderID.String
		}
		if quantity.Valid {
			rec.Quantity = model.Raw(quantity.String)
		}
		if status.Valid {
			rec.Status = model.Raw(status.String)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return out, nil
}

// Version fingerprints the product's reservation set under the same
// status filter.  Any insert, delete or update (updated_at moves) changes
// it, so it can key cached results.
func (r *ReservationRepo) Version(ctx context.Context, productID uint64, statuses []string) (string, error) {
	where, args := statusFilter(productID, statuses)
	q := `SELECT COUNT(*), MAX(updated_at), COALESCE(MAX(id), 0) FROM reservations WHERE ` + where

	var (
		count   int64
		updated sql.NullTime
		maxID   uint64
	)
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&count, &updated, &maxID); err != nil {
		return "", fmt.Errorf("reservation version: %w", err)
	}

	sorted := append([]string(nil), statuses...)
	sort.Strings(sorted)

	h := sha1.New()
	fmt.Fprintf(h, "%d|%d|%d|%s", count, updated.Time.UnixNano(), maxID, strings.Join(sorted, ","))
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

func statusFilter(productID uint64, statuses []string) (string, []any) {
	args := []any{productID}
	if len(statuses) == 0 {
		return "product_id = ?", args
	}
	for _, s := range statuses {
		args = append(args, s)
	}
	return "product_id = ? AND status IN (?" + strings.Repeat(",?", len(statuses)-1) + ")", args
}
