package actions

import (
	"time"

	"github.com/supplylink/supplylink/internal/orders"
)

// Type classifies what the admin is asking of the vendor on an order.
type Type string

const (
	TypeUpdate Type = "UPDATE"
	TypeCancel Type = "CANCEL"
	TypeReturn Type = "RETURN"
)

// Status is the resolution state of an action request.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// applicability maps each action type to the order statuses it may be
// requested in. UPDATE only while the order is still mutable, CANCEL any
// time before delivery, RETURN only after the order closed.
var applicability = map[Type][]orders.OrderStatus{
	TypeUpdate: {orders.StatusPending, orders.StatusConfirmed},
	TypeCancel: {orders.StatusPending, orders.StatusConfirmed, orders.StatusShipped},
	TypeReturn: {orders.StatusDelivered, orders.StatusCancelled},
}

// Valid reports whether the type is part of the closed enumeration.
func (t Type) Valid() bool {
	_, ok := applicability[t]
	return ok
}

// ApplicableTo reports whether the action type may be requested against an
// order in the given status.
func (t Type) ApplicableTo(status orders.OrderStatus) bool {
	for _, s := range applicability[t] {
		if s == status {
			return true
		}
	}
	return false
}

// ApplicableTypes returns the action types an admin may raise against an
// order in the given status.
func ApplicableTypes(status orders.OrderStatus) []Type {
	var out []Type
	for _, t := range []Type{TypeUpdate, TypeCancel, TypeReturn} {
		if t.ApplicableTo(status) {
			out = append(out, t)
		}
	}
	return out
}

// ItemChange is one proposed line-item modification carried by an UPDATE
// request. A zero NewQuantity asks for the item's removal; whether that is
// honoured is portal policy, decided at approval time.
type ItemChange struct {
	ItemID      string `json:"itemId"`
	NewQuantity int    `json:"newQuantity"`
}

// ProposedChanges is the optional payload of an UPDATE request: a new
// promised delivery date and/or per-item quantity overwrites.
type ProposedChanges struct {
	ExpectedDeliveryDate *time.Time   `json:"expectedDeliveryDate,omitempty"`
	Items                []ItemChange `json:"itemChanges,omitempty"`
}

// Empty reports whether the payload proposes nothing.
func (c *ProposedChanges) Empty() bool {
	return c == nil || (c.ExpectedDeliveryDate == nil && len(c.Items) == 0)
}

// Request is an admin's change proposal against one order. Only the vendor
// owning that order may resolve it; a resolved request is immutable.
type Request struct {
	ID      string `json:"id"`
	OrderID string `json:"orderId"`
	// VendorID is the owner of the referenced order, denormalized so the
	// vendor's review queue is a single lookup.
	VendorID string `json:"vendorId"`
	Type     Type   `json:"type"`
	Status   Status `json:"status"`
	// Message is the admin's justification for the request.
	Message string `json:"message"`
	// Response is the vendor's resolution note.
	Response   string           `json:"response,omitempty"`
	Changes    *ProposedChanges `json:"proposedChanges,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	ResolvedAt *time.Time       `json:"resolvedAt,omitempty"`
	ResolvedBy string           `json:"resolvedBy,omitempty"`
}
