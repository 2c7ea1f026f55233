package model

import "time"

// Product is a rentable inventory item as recorded in the `products`
// table.  Only the fields the availability computation needs are mapped.
//
// Fields:
//
//	ID           – primary key identifier.
//	OwnerID      – user ID of the owner allowed to configure the item.
//	Name         – display name.
//	Stock        – current live stock count.
//	InitialStock – configured rental stock (nil when unset).
//	UpdatedAt    – last update timestamp.
type Product struct {
	ID           uint64    // products.id
	OwnerID      uint64    // products.owner_id
	Name         string    // products.name
	Stock        int       // products.stock
	InitialStock *int      // products.initial_stock (nullable)
	UpdatedAt    time.Time // products.updated_at
}

// EffectiveInitialStock returns the configured initial stock, falling back
// to the current stock when it has never been set.  Negative values from
// the catalog are treated as zero.
func (p Product) EffectiveInitialStock() int {
	n := p.Stock
	if p.InitialStock != nil {
		n = *p.InitialStock
	}
	if n < 0 {
		return 0
	}
	return n
}
