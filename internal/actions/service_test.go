package actions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/supplylink/supplylink/internal/orders"
	"github.com/supplylink/supplylink/internal/shared"
)

type fakeRepo struct {
	requests map[string]Request
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{requests: map[string]Request{}}
}

func (f *fakeRepo) Create(_ context.Context, request Request) (Request, error) {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	request.Status = StatusPending
	f.requests[request.ID] = request
	return request, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (Request, error) {
	r, ok := f.requests[id]
	if !ok {
		return Request{}, shared.ErrNotFound
	}
	return r, nil
}

func (f *fakeRepo) ListByOrder(_ context.Context, orderID string) ([]Request, error) {
	var out []Request
	for _, r := range f.requests {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByVendor(_ context.Context, vendorID string) ([]Request, error) {
	var out []Request
	for _, r := range f.requests {
		if r.VendorID == vendorID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListPending(_ context.Context) ([]Request, error) {
	var out []Request
	for _, r := range f.requests {
		if r.Status == StatusPending {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) Resolve(_ context.Context, id string, status Status, response, resolvedBy string, at time.Time) error {
	r, ok := f.requests[id]
	if !ok {
		return shared.ErrNotFound
	}
	if r.Status != StatusPending {
		return shared.ErrAlreadyResolved
	}
	r.Status = status
	r.Response = response
	r.ResolvedBy = resolvedBy
	r.ResolvedAt = &at
	f.requests[id] = r
	return nil
}

type fakeOrderSource struct {
	orders map[string]orders.PurchaseOrder
}

func (f *fakeOrderSource) Get(_ context.Context, id string) (orders.PurchaseOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return orders.PurchaseOrder{}, shared.ErrNotFound
	}
	return o, nil
}

func orderInStatus(status orders.OrderStatus) orders.PurchaseOrder {
	id := uuid.NewString()
	return orders.PurchaseOrder{
		ID:       id,
		VendorID: "vendor-1",
		Status:   status,
		Items:    []orders.Item{{ID: "item-1", OrderID: id, ProductID: "steel", Quantity: 10, Unit: "kg"}},
	}
}

func newTestService(source *fakeOrderSource) (*Service, *fakeRepo) {
	repo := newFakeRepo()
	clock := shared.FixedClock{At: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewService(repo, source, nil, nil, clock, nil), repo
}

func itemChanges(changes ...ItemChange) *ProposedChanges {
	return &ProposedChanges{Items: changes}
}

func TestProposeApplicability(t *testing.T) {
	all := []orders.OrderStatus{orders.StatusPending, orders.StatusConfirmed, orders.StatusShipped, orders.StatusDelivered, orders.StatusCancelled}
	allowed := map[Type][]orders.OrderStatus{
		TypeUpdate: {orders.StatusPending, orders.StatusConfirmed},
		TypeCancel: {orders.StatusPending, orders.StatusConfirmed, orders.StatusShipped},
		TypeReturn: {orders.StatusDelivered, orders.StatusCancelled},
	}
	for actionType, okStatuses := range allowed {
		for _, status := range all {
			order := orderInStatus(status)
			source := &fakeOrderSource{orders: map[string]orders.PurchaseOrder{order.ID: order}}
			svc, _ := newTestService(source)

			var changes *ProposedChanges
			if actionType == TypeUpdate {
				changes = itemChanges(ItemChange{ItemID: "item-1", NewQuantity: 5})
			}
			_, err := svc.Propose(context.Background(), order.ID, actionType, "please review", changes)

			expectOK := false
			for _, s := range okStatuses {
				if s == status {
					expectOK = true
				}
			}
			if expectOK {
				require.NoError(t, err, "%s on %s", actionType, status)
			} else {
				require.ErrorIs(t, err, shared.ErrActionNotApplicable, "%s on %s", actionType, status)
			}
		}
	}
}

func TestProposeRequiresMessage(t *testing.T) {
	order := orderInStatus(orders.StatusPending)
	source := &fakeOrderSource{orders: map[string]orders.PurchaseOrder{order.ID: order}}
	svc, _ := newTestService(source)

	_, err := svc.Propose(context.Background(), order.ID, TypeCancel, "", nil)
	require.ErrorIs(t, err, shared.ErrEmptyMessage)

	// Whitespace is not a justification either.
	_, err = svc.Propose(context.Background(), order.ID, TypeCancel, "   \t\n", nil)
	require.ErrorIs(t, err, shared.ErrEmptyMessage)
}

func TestProposeStampsOrderVendor(t *testing.T) {
	order := orderInStatus(orders.StatusPending)
	source := &fakeOrderSource{orders: map[string]orders.PurchaseOrder{order.ID: order}}
	svc, _ := newTestService(source)

	request, err := svc.Propose(context.Background(), order.ID, TypeCancel, "supplier issue", nil)
	require.NoError(t, err)
	require.Equal(t, "vendor-1", request.VendorID)
	require.Equal(t, StatusPending, request.Status)
}

func TestProposeUpdateValidatesChanges(t *testing.T) {
	order := orderInStatus(orders.StatusPending)
	source := &fakeOrderSource{orders: map[string]orders.PurchaseOrder{order.ID: order}}
	svc, _ := newTestService(source)

	_, err := svc.Propose(context.Background(), order.ID, TypeUpdate, "adjust", itemChanges(ItemChange{ItemID: "ghost", NewQuantity: 5}))
	require.ErrorIs(t, err, shared.ErrInvalidItem)

	_, err = svc.Propose(context.Background(), order.ID, TypeUpdate, "adjust", itemChanges(ItemChange{ItemID: "item-1", NewQuantity: -1}))
	require.ErrorIs(t, err, shared.ErrInvalidQuantity)

	// Zero is a valid proposal; the removal policy applies at approval.
	_, err = svc.Propose(context.Background(), order.ID, TypeUpdate, "drop it", itemChanges(ItemChange{ItemID: "item-1", NewQuantity: 0}))
	require.NoError(t, err)

	// Changes are optional on UPDATE: the message alone may carry the ask.
	request, err := svc.Propose(context.Background(), order.ID, TypeUpdate, "please expedite", nil)
	require.NoError(t, err)
	require.Nil(t, request.Changes)
}

func TestProposeUpdateCarriesDeliveryDate(t *testing.T) {
	order := orderInStatus(orders.StatusConfirmed)
	source := &fakeOrderSource{orders: map[string]orders.PurchaseOrder{order.ID: order}}
	svc, _ := newTestService(source)

	newDate := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	request, err := svc.Propose(context.Background(), order.ID, TypeUpdate, "push out two weeks", &ProposedChanges{ExpectedDeliveryDate: &newDate})
	require.NoError(t, err)
	require.NotNil(t, request.Changes)
	require.Equal(t, newDate, *request.Changes.ExpectedDeliveryDate)
}

func TestProposeCancelDropsChanges(t *testing.T) {
	order := orderInStatus(orders.StatusPending)
	source := &fakeOrderSource{orders: map[string]orders.PurchaseOrder{order.ID: order}}
	svc, _ := newTestService(source)

	request, err := svc.Propose(context.Background(), order.ID, TypeCancel, "supplier issue", itemChanges(ItemChange{ItemID: "item-1", NewQuantity: 5}))
	require.NoError(t, err)
	require.Nil(t, request.Changes)
}

func seedPending(repo *fakeRepo) Request {
	request, _ := repo.Create(context.Background(), Request{OrderID: "order-1", VendorID: "vendor-1", Type: TypeCancel, Message: "please review"})
	return request
}

func TestApproveDefaultsResponse(t *testing.T) {
	svc, repo := newTestService(&fakeOrderSource{})
	request := seedPending(repo)

	resolved, err := svc.Approve(context.Background(), request.ID, "vendor-1", "user-7", "")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, resolved.Status)
	require.Equal(t, "Approved", resolved.Response)
	require.Equal(t, "user-7", resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolvedAt)
}

// Only the vendor owning the referenced order may resolve a request.
func TestResolveForeignVendorForbidden(t *testing.T) {
	svc, repo := newTestService(&fakeOrderSource{})
	request := seedPending(repo)

	_, err := svc.Approve(context.Background(), request.ID, "vendor-2", "user-9", "")
	require.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.Reject(context.Background(), request.ID, "vendor-2", "user-9", "no")
	require.ErrorIs(t, err, shared.ErrForbidden)

	stored, _ := repo.Get(context.Background(), request.ID)
	require.Equal(t, StatusPending, stored.Status)
}

func TestRejectRequiresResponse(t *testing.T) {
	svc, repo := newTestService(&fakeOrderSource{})
	request := seedPending(repo)

	_, err := svc.Reject(context.Background(), request.ID, "vendor-1", "user-7", "")
	require.ErrorIs(t, err, shared.ErrResponseRequired)
	_, err = svc.Reject(context.Background(), request.ID, "vendor-1", "user-7", "  \t ")
	require.ErrorIs(t, err, shared.ErrResponseRequired)

	resolved, err := svc.Reject(context.Background(), request.ID, "vendor-1", "user-7", "cannot accommodate")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, resolved.Status)
	require.Equal(t, "cannot accommodate", resolved.Response)
}

func TestResolveTwiceFails(t *testing.T) {
	svc, repo := newTestService(&fakeOrderSource{})
	request := seedPending(repo)

	first, err := svc.Approve(context.Background(), request.ID, "vendor-1", "user-7", "")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), request.ID, "vendor-1", "user-8", "")
	require.ErrorIs(t, err, shared.ErrAlreadyResolved)
	_, err = svc.Reject(context.Background(), request.ID, "vendor-1", "user-8", "no")
	require.ErrorIs(t, err, shared.ErrAlreadyResolved)

	// The first resolution's terminal fields survive untouched.
	stored, _ := repo.Get(context.Background(), request.ID)
	require.Equal(t, first.Status, stored.Status)
	require.Equal(t, first.Response, stored.Response)
	require.Equal(t, first.ResolvedBy, stored.ResolvedBy)
}
