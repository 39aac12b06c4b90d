package orders

import "time"

// OrderStatus is the purchase-order lifecycle state.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// forward is the single-step progression. CANCELLED is deliberately absent:
// cancellation only happens through an approved CANCEL action request.
var forward = map[OrderStatus]OrderStatus{
	StatusPending:   StatusConfirmed,
	StatusConfirmed: StatusShipped,
	StatusShipped:   StatusDelivered,
}

// Valid reports whether the status is part of the closed enumeration.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// AllowedNextStatuses returns the statuses an update may carry from the
// current one: the status itself (a no-op refresh) plus the single forward
// step. Terminal statuses allow nothing.
func AllowedNextStatuses(current OrderStatus) []OrderStatus {
	if current.Terminal() {
		return nil
	}
	allowed := []OrderStatus{current}
	if next, ok := forward[current]; ok {
		allowed = append(allowed, next)
	}
	return allowed
}

// CanTransition reports whether a direct status update from one status to
// another is permitted.
func CanTransition(from, to OrderStatus) bool {
	if from.Terminal() {
		return false
	}
	if from == to {
		return true
	}
	return forward[from] == to
}

// Item is a purchase-order line item.
type Item struct {
	ID        string `json:"id"`
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Unit      string `json:"unit"`
}

// PurchaseOrder is an order placed with a vendor for delivery to a plant.
// Version guards concurrent status updates.
type PurchaseOrder struct {
	ID                   string      `json:"id"`
	OrderNumber          string      `json:"orderNumber"`
	VendorID             string      `json:"vendorId"`
	PlantID              string      `json:"plantId"`
	Status               OrderStatus `json:"status"`
	ExpectedDeliveryDate time.Time   `json:"expectedDeliveryDate"`
	// ActualDeliveryDate is stamped once when the order first reaches
	// DELIVERED and never overwritten.
	ActualDeliveryDate *time.Time `json:"actualDeliveryDate,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	Items              []Item     `json:"items"`
	Version            int64      `json:"version"`
	CreatedBy          string     `json:"createdBy"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}
