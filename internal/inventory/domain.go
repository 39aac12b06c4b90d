package inventory

import "time"

// Item is the stock record for one product at one plant. Version guards
// concurrent quantity updates via compare-and-swap.
type Item struct {
	ID               string    `json:"id"`
	PlantID          string    `json:"plantId"`
	ProductID        string    `json:"productId"`
	Quantity         int       `json:"quantityAvailable"`
	Unit             string    `json:"unit"`
	ReorderThreshold int       `json:"reorderLevel"`
	Version          int64     `json:"version"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

// IsLowStock reports whether the item sits below its reorder threshold.
// Computed on every read, never stored.
func (i Item) IsLowStock() bool {
	return i.Quantity < i.ReorderThreshold
}
