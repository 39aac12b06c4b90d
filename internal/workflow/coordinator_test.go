package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/supplylink/supplylink/internal/actions"
	"github.com/supplylink/supplylink/internal/orders"
	"github.com/supplylink/supplylink/internal/shared"
)

type fakeActions struct {
	requests map[string]actions.Request
}

func (f *fakeActions) Get(_ context.Context, id string) (actions.Request, error) {
	r, ok := f.requests[id]
	if !ok {
		return actions.Request{}, shared.ErrNotFound
	}
	return r, nil
}

func (f *fakeActions) Approve(_ context.Context, id, vendorID, resolvedBy, response string) (actions.Request, error) {
	r, ok := f.requests[id]
	if !ok {
		return actions.Request{}, shared.ErrNotFound
	}
	if r.VendorID != vendorID {
		return actions.Request{}, shared.ErrForbidden
	}
	if r.Status != actions.StatusPending {
		return actions.Request{}, shared.ErrAlreadyResolved
	}
	if response == "" {
		response = "Approved"
	}
	now := time.Now()
	r.Status = actions.StatusApproved
	r.Response = response
	r.ResolvedBy = resolvedBy
	r.ResolvedAt = &now
	f.requests[id] = r
	return r, nil
}

func (f *fakeActions) Reject(_ context.Context, id, vendorID, resolvedBy, response string) (actions.Request, error) {
	if response == "" {
		return actions.Request{}, shared.ErrResponseRequired
	}
	r, ok := f.requests[id]
	if !ok {
		return actions.Request{}, shared.ErrNotFound
	}
	if r.VendorID != vendorID {
		return actions.Request{}, shared.ErrForbidden
	}
	if r.Status != actions.StatusPending {
		return actions.Request{}, shared.ErrAlreadyResolved
	}
	r.Status = actions.StatusRejected
	r.Response = response
	r.ResolvedBy = resolvedBy
	f.requests[id] = r
	return r, nil
}

type fakeOrders struct {
	orders map[string]orders.PurchaseOrder
	// cancelConflicts makes ForceCancel fail with ErrConflict that many times.
	cancelConflicts int
	cancelCalls     int
}

func (f *fakeOrders) Get(_ context.Context, id string) (orders.PurchaseOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return orders.PurchaseOrder{}, shared.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) ForceCancel(_ context.Context, id string) (orders.PurchaseOrder, error) {
	f.cancelCalls++
	if f.cancelConflicts > 0 {
		f.cancelConflicts--
		return orders.PurchaseOrder{}, shared.ErrConflict
	}
	o, ok := f.orders[id]
	if !ok {
		return orders.PurchaseOrder{}, shared.ErrNotFound
	}
	if o.Status == orders.StatusDelivered {
		return orders.PurchaseOrder{}, shared.ErrTerminalOrder
	}
	o.Status = orders.StatusCancelled
	f.orders[id] = o
	return o, nil
}

func (f *fakeOrders) UpdateExpectedDeliveryDate(_ context.Context, orderID string, date time.Time) error {
	o, ok := f.orders[orderID]
	if !ok {
		return shared.ErrNotFound
	}
	o.ExpectedDeliveryDate = date
	f.orders[orderID] = o
	return nil
}

func (f *fakeOrders) UpdateItemQuantity(_ context.Context, orderID, itemID string, quantity int) error {
	o, ok := f.orders[orderID]
	if !ok {
		return shared.ErrNotFound
	}
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			o.Items[i].Quantity = quantity
			f.orders[orderID] = o
			return nil
		}
	}
	return shared.ErrNotFound
}

func (f *fakeOrders) RemoveItem(_ context.Context, orderID, itemID string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return shared.ErrNotFound
	}
	if len(o.Items) <= 1 {
		return shared.ErrEmptyOrder
	}
	kept := o.Items[:0]
	for _, item := range o.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	o.Items = kept
	f.orders[orderID] = o
	return nil
}

type fakeKeys struct {
	keys map[string]bool
}

func (f *fakeKeys) CheckAndInsert(_ context.Context, key, _ string) error {
	if f.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	f.keys[key] = true
	return nil
}

func (f *fakeKeys) Delete(_ context.Context, key string) error {
	delete(f.keys, key)
	return nil
}

func fixture(orderStatus orders.OrderStatus, actionType actions.Type, changes *actions.ProposedChanges) (*fakeActions, *fakeOrders, *fakeKeys) {
	order := orders.PurchaseOrder{
		ID:       "order-1",
		VendorID: "vendor-1",
		Status:   orderStatus,
		Items: []orders.Item{
			{ID: "item-1", OrderID: "order-1", ProductID: "steel", Quantity: 10, Unit: "kg"},
			{ID: "item-2", OrderID: "order-1", ProductID: "bolts", Quantity: 100, Unit: "pieces"},
		},
	}
	request := actions.Request{
		ID:       "req-1",
		OrderID:  "order-1",
		VendorID: "vendor-1",
		Type:     actionType,
		Status:   actions.StatusPending,
		Message:  "please review",
		Changes:  changes,
	}
	return &fakeActions{requests: map[string]actions.Request{request.ID: request}},
		&fakeOrders{orders: map[string]orders.PurchaseOrder{order.ID: order}},
		&fakeKeys{keys: map[string]bool{}}
}

func quantityChanges(changes ...actions.ItemChange) *actions.ProposedChanges {
	return &actions.ProposedChanges{Items: changes}
}

func TestApproveCancelForcesCancellation(t *testing.T) {
	actionStore, orderStore, keys := fixture(orders.StatusConfirmed, actions.TypeCancel, nil)
	c := NewCoordinator(actionStore, orderStore, keys, ZeroQuantityReject, nil)

	resolved, err := c.ApproveAction(context.Background(), "req-1", "vendor-1", "user-7", "")
	require.NoError(t, err)
	require.Equal(t, actions.StatusApproved, resolved.Status)
	require.Equal(t, "Approved", resolved.Response)
	require.Equal(t, orders.StatusCancelled, orderStore.orders["order-1"].Status)
}

func TestApproveUpdateRewritesItems(t *testing.T) {
	actionStore, orderStore, keys := fixture(orders.StatusPending, actions.TypeUpdate, quantityChanges(actions.ItemChange{ItemID: "item-1", NewQuantity: 5}))
	c := NewCoordinator(actionStore, orderStore, keys, ZeroQuantityReject, nil)

	_, err := c.ApproveAction(context.Background(), "req-1", "vendor-1", "user-7", "ok")
	require.NoError(t, err)
	require.Equal(t, 5, orderStore.orders["order-1"].Items[0].Quantity)
}

func TestApproveUpdateMovesDeliveryDate(t *testing.T) {
	newDate := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	changes := &actions.ProposedChanges{
		ExpectedDeliveryDate: &newDate,
		Items:                []actions.ItemChange{{ItemID: "item-1", NewQuantity: 7}},
	}
	actionStore, orderStore, keys := fixture(orders.StatusConfirmed, actions.TypeUpdate, changes)
	c := NewCoordinator(actionStore, orderStore, keys, ZeroQuantityReject, nil)

	_, err := c.ApproveAction(context.Background(), "req-1", "vendor-1", "user-7", "ok")
	require.NoError(t, err)
	require.Equal(t, newDate, orderStore.orders["order-1"].ExpectedDeliveryDate)
	require.Equal(t, 7, orderStore.orders["order-1"].Items[0].Quantity)
}

// Only the vendor owning the order may resolve its requests.
func TestApproveForeignVendorForbidden(t *testing.T) {
	actionStore, orderStore, keys := fixture(orders.StatusPending, actions.TypeCancel, nil)
	c := NewCoordinator(actionStore, orderStore, keys, ZeroQuantityReject, nil)

	_, err := c.ApproveAction(context.Background(), "req-1", "vendor-2", "user-9", "")
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.Equal(t, actions.StatusPending, actionStore.requests["req-1"].Status)
	require.Zero(t, orderStore.cancelCalls)
}

func TestApproveUpdateZeroQuantityRejectPolicy(t *testing.T) {
	actionStore, orderStore, keys := fixture(orders.StatusPending, actions.TypeUpdate, quantityChanges(actions.ItemChange{ItemID: "item-1", NewQuantity: 0}))
	c := NewCoordinator(actionStore, orderStore, keys, ZeroQuantityReject, nil)

	_, err := c.ApproveAction(context.Background(), "req-1", "vendor-1", "user-7", "")
	require.ErrorIs(t, err, shared.ErrInvalidQuantity)
	// Nothing was resolved or mutated.
	require.Equal(t, actions.StatusPending, actionStore.requests["req-1"].Status)
	require.Len(t, orderStore.orders["order-1"].Items, 2)
}

func TestApproveUpdateZeroQuantityRemovePolicy(t *testing.T) {
	actionStore, orderStore, keys := fixture(orders.StatusPending, actions.TypeUpdate, quantityChanges(actions.ItemChange{ItemID: "item-1", NewQuantity: 0}))
	c := NewCoordinator(actionStore, orderStore, keys, ZeroQuantityRemove, nil)

	_, err := c.ApproveAction(context.Background(), "req-1", "vendor-1", "user-7", "")
	require.NoError(t, err)
	require.Len(t, orderStore.orders["order-1"].Items, 1)
	require.Equal(t, "item-2", orderStore.orders["order-1"].Items[0].ID)
}

func TestApproveReturnLeavesOrderUntouched(t *testing.T) {
	actionStore, orderStore, keys := fixture(orders.StatusDelivered, actions.TypeReturn, nil)
	c := NewCoordinator(actionStore, orderStore, keys, ZeroQuantityReject, nil)

	resolved, err := c.ApproveAction(context.Background(), "req-1", "vendor-1", "user-7", "send it back")
	require.NoError(t, err)
	require.Equal(t, actions.StatusApproved, resolved.Status)
	require.Equal(t, orders.StatusDelivered, orderStore.orders["order-1"].Status)
	require.Zero(t, orderStore.cancelCalls)
}

// The order may have moved since the request was filed; an approval that no
// longer applies is refused before the record flips.
func TestApproveStaleRequestNotApplicable(t *testing.T) {
	actionStore, orderStore, keys := fixture(orders.StatusDelivered, actions.TypeCancel, nil)
	c := NewCoordinator(actionStore, orderStore, keys, ZeroQuantityReject, nil)

	_, err := c.ApproveAction(context.Background(), "req-1", "vendor-1", "user-7", "")
	require.ErrorIs(t, err, shared.ErrActionNotApplicable)
	require.Equal(t, actions.StatusPending, actionStore.requests["req-1"].Status)
	require.Zero(t, orderStore.cancelCalls)
}

func TestApproveRetriesVersionRaceOnce(t *testing.T) {
	actionStore, orderStore, keys := fixture(orders.StatusPending, actions.TypeCancel, nil)
	orderStore.cancelConflicts = 1
	c := NewCoordinator(actionStore, orderStore, keys, ZeroQuantityReject, nil)

	_, err := c.ApproveAction(context.Background(), "req-1", "vendor-1", "user-7", "")
	require.NoError(t, err)
	require.Equal(t, 2, orderStore.cancelCalls)
	require.Equal(t, orders.StatusCancelled, orderStore.orders["order-1"].Status)
}

func TestApplyFailureReleasesIdempotencyKey(t *testing.T) {
	actionStore, orderStore, keys := fixture(orders.StatusPending, actions.TypeCancel, nil)
	orderStore.cancelConflicts = 5
	c := NewCoordinator(actionStore, orderStore, keys, ZeroQuantityReject, nil)

	_, err := c.ApproveAction(context.Background(), "req-1", "vendor-1", "user-7", "")
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Empty(t, keys.keys)
	// The approval itself is durable even though the apply failed.
	require.Equal(t, actions.StatusApproved, actionStore.requests["req-1"].Status)
}

func TestApplySkipsWhenKeyAlreadyUsed(t *testing.T) {
	actionStore, orderStore, keys := fixture(orders.StatusPending, actions.TypeCancel, nil)
	keys.keys["action-apply:req-1"] = true
	c := NewCoordinator(actionStore, orderStore, keys, ZeroQuantityReject, nil)

	_, err := c.ApproveAction(context.Background(), "req-1", "vendor-1", "user-7", "")
	require.NoError(t, err)
	require.Zero(t, orderStore.cancelCalls)
}

func TestApproveAlreadyResolved(t *testing.T) {
	actionStore, orderStore, keys := fixture(orders.StatusPending, actions.TypeCancel, nil)
	r := actionStore.requests["req-1"]
	r.Status = actions.StatusRejected
	actionStore.requests["req-1"] = r
	c := NewCoordinator(actionStore, orderStore, keys, ZeroQuantityReject, nil)

	_, err := c.ApproveAction(context.Background(), "req-1", "vendor-1", "user-7", "")
	require.ErrorIs(t, err, shared.ErrAlreadyResolved)
}

func TestRejectDelegates(t *testing.T) {
	actionStore, orderStore, keys := fixture(orders.StatusPending, actions.TypeCancel, nil)
	c := NewCoordinator(actionStore, orderStore, keys, ZeroQuantityReject, nil)

	_, err := c.RejectAction(context.Background(), "req-1", "vendor-1", "user-7", "")
	require.ErrorIs(t, err, shared.ErrResponseRequired)

	resolved, err := c.RejectAction(context.Background(), "req-1", "vendor-1", "user-7", "cannot do")
	require.NoError(t, err)
	require.Equal(t, actions.StatusRejected, resolved.Status)
	require.Equal(t, orders.StatusPending, orderStore.orders["order-1"].Status)
}
