package shared

import "errors"

// Validation errors: the caller's input was malformed. Surfaced verbatim,
// no retry.
var (
	// ErrEmptyOrder indicates an order was submitted without line items.
	ErrEmptyOrder = errors.New("order requires at least one item")
	// ErrInvalidItem indicates a line item with a non-positive quantity or
	// a unit the product does not accept.
	ErrInvalidItem = errors.New("invalid order item")
	// ErrPastDeliveryDate indicates an expected delivery date before today.
	ErrPastDeliveryDate = errors.New("expected delivery date cannot be in the past")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrEmptyMessage indicates an action request without a message.
	ErrEmptyMessage = errors.New("message is required")
	// ErrReasonRequired indicates a suspension/deactivation without a reason.
	ErrReasonRequired = errors.New("a reason is required for this status change")
	// ErrResponseRequired indicates a rejection without a vendor response.
	ErrResponseRequired = errors.New("a response is required when rejecting")
)

// State errors: the operation conflicts with current entity state.
var (
	// ErrIllegalTransition indicates a status change outside the allowed set.
	ErrIllegalTransition = errors.New("status transition not allowed")
	// ErrTerminalOrder indicates an update against a delivered or cancelled order.
	ErrTerminalOrder = errors.New("order is in a terminal status")
	// ErrActionNotApplicable indicates the action type is not valid for the
	// order's current status.
	ErrActionNotApplicable = errors.New("action not applicable to order status")
	// ErrAlreadyResolved indicates a second resolution attempt on an action.
	ErrAlreadyResolved = errors.New("action has already been resolved")
	// ErrIneligibleVendor indicates an approval attempt on an incomplete vendor.
	ErrIneligibleVendor = errors.New("vendor does not meet approval requirements")
	// ErrVendorNotApproved indicates an order placed with a vendor outside
	// APPROVED status.
	ErrVendorNotApproved = errors.New("orders may only target approved vendors")
	// ErrStockNotLow indicates a restock draft requested for an item still at
	// or above its reorder level.
	ErrStockNotLow = errors.New("item is not below its reorder level")
)

// Resource and concurrency errors.
var (
	// ErrInsufficientStock indicates a consume request exceeding availability.
	ErrInsufficientStock = errors.New("insufficient stock available")
	// ErrConflict indicates a lost optimistic-concurrency race; callers may
	// re-fetch and retry.
	ErrConflict = errors.New("concurrent modification detected")
	// ErrPartialItemWrite indicates the order header was persisted but one or
	// more item writes failed; the order stands and item writes may be retried.
	ErrPartialItemWrite = errors.New("order created but item persistence incomplete")
)

// Transport-level errors.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
