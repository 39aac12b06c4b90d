package catalog

import "time"

// Product is a catalog entry referenced by inventory and order items.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Unit is the default unit of measurement.
	Unit string `json:"unit"`
	// AcceptedUnits lists every unit the product may be ordered in.
	AcceptedUnits []string `json:"acceptedUnits"`
	// RestockQuantity overrides the portal-wide restock default when set.
	RestockQuantity *int      `json:"restockQuantity,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AcceptsUnit reports whether the unit is valid for ordering this product.
func (p Product) AcceptsUnit(unit string) bool {
	if unit == p.Unit {
		return true
	}
	for _, accepted := range p.AcceptedUnits {
		if accepted == unit {
			return true
		}
	}
	return false
}

// Plant is a physical location that holds inventory and receives orders.
type Plant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
