package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/rental-availability/internal/model"
)

// ProductRepo reads and configures catalog products.
type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	const q = `SELECT id, owner_id, name, stock, initial_stock, updated_at FROM products WHERE id = ? LIMIT 1`
	var (
		p       model.Product
		initial sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Stock, &initial, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	if initial.Valid {
		n := int(initial.Int64)
		p.InitialStock = &n
	}
	return p, nil
}

// SetInitialStock stores the rental stock of a product owned by ownerID.
// A nil value clears it so the live stock applies again.
func (r *ProductRepo) SetInitialStock(ctx context.Context, id, ownerID uint64, initialStock *int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var owner uint64
	err = tx.QueryRowContext(ctx, `SELECT owner_id FROM products WHERE id = ? FOR UPDATE`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("lock product %d: %w", id, err)
	}
	if owner != ownerID {
		return ErrForbidden
	}

	var value any
	if initialStock != nil {
		value = *initialStock
	}
	if _, err := tx.ExecContext(ctx, `UPDATE products SET initial_stock = ? WHERE id = ?`, value, id); err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	return tx.Commit()
}
