package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/supplylink/supplylink/internal/catalog"
	"github.com/supplylink/supplylink/internal/shared"
	"github.com/supplylink/supplylink/internal/vendors"
)

type fakeRepo struct {
	orders map[string]PurchaseOrder
	items  map[string]Item
	// failItemsAfter fails AddItem once this many items were written.
	failItemsAfter int
	// conflictsLeft forces CompareAndSetStatus failures to simulate a
	// racing writer.
	conflictsLeft int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[string]PurchaseOrder{}, items: map[string]Item{}, failItemsAfter: -1}
}

func (f *fakeRepo) CreateOrder(_ context.Context, order PurchaseOrder) (PurchaseOrder, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	order.Version = 1
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeRepo) AddItem(_ context.Context, item Item) (Item, error) {
	if f.failItemsAfter == 0 {
		return Item{}, errors.New("write failed")
	}
	if f.failItemsAfter > 0 {
		f.failItemsAfter--
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	f.items[item.ID] = item
	return item, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (PurchaseOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return PurchaseOrder{}, shared.ErrNotFound
	}
	o.Items = nil
	for _, item := range f.items {
		if item.OrderID == id {
			o.Items = append(o.Items, item)
		}
	}
	return o, nil
}

func (f *fakeRepo) List(_ context.Context, vendorID string) ([]PurchaseOrder, error) {
	var out []PurchaseOrder
	for id := range f.orders {
		o, _ := f.Get(context.Background(), id)
		if vendorID == "" || o.VendorID == vendorID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeRepo) CompareAndSetStatus(_ context.Context, id string, status OrderStatus, expectedVersion int64, stampDelivered, expectedDelivery *time.Time) error {
	o, ok := f.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		o.Version++
		f.orders[id] = o
		return shared.ErrConflict
	}
	if o.Version != expectedVersion {
		return shared.ErrConflict
	}
	o.Status = status
	o.Version++
	if stampDelivered != nil && o.ActualDeliveryDate == nil {
		o.ActualDeliveryDate = stampDelivered
	}
	if expectedDelivery != nil {
		o.ExpectedDeliveryDate = *expectedDelivery
	}
	f.orders[id] = o
	return nil
}

func (f *fakeRepo) UpdateItemQuantity(_ context.Context, itemID string, quantity int) error {
	item, ok := f.items[itemID]
	if !ok {
		return shared.ErrNotFound
	}
	item.Quantity = quantity
	f.items[itemID] = item
	return nil
}

func (f *fakeRepo) DeleteItem(_ context.Context, itemID string) error {
	if _, ok := f.items[itemID]; !ok {
		return shared.ErrNotFound
	}
	delete(f.items, itemID)
	return nil
}

func (f *fakeRepo) CountByStatus(_ context.Context) (map[OrderStatus]int, error) {
	counts := map[OrderStatus]int{}
	for _, o := range f.orders {
		counts[o.Status]++
	}
	return counts, nil
}

type fakeCatalog struct {
	products map[string]catalog.Product
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, shared.ErrNotFound
	}
	return p, nil
}

type fakeVendors struct {
	vendors map[string]vendors.Vendor
}

func (f *fakeVendors) Get(_ context.Context, id string) (vendors.Vendor, error) {
	v, ok := f.vendors[id]
	if !ok {
		return vendors.Vendor{}, shared.ErrNotFound
	}
	return v, nil
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *fakeRepo) *Service {
	products := &fakeCatalog{products: map[string]catalog.Product{
		"steel": {ID: "steel", Name: "Steel Sheet", Unit: "kg", AcceptedUnits: []string{"kg", "tons"}},
		"bolts": {ID: "bolts", Name: "Hex Bolts", Unit: "pieces"},
	}}
	directory := &fakeVendors{vendors: map[string]vendors.Vendor{
		"vendor-1": {ID: "vendor-1", Name: "Acme Industrial", Status: vendors.StatusApproved},
		"vendor-2": {ID: "vendor-2", Name: "Beta Supplies", Status: vendors.StatusPending},
	}}
	return NewService(repo, products, directory, nil, shared.FixedClock{At: testNow}, nil)
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		VendorID:             "vendor-1",
		PlantID:              "plant-1",
		ExpectedDeliveryDate: testNow.AddDate(0, 0, 7),
		Items: []ItemInput{
			{ProductID: "steel", Quantity: 500, Unit: "kg"},
			{ProductID: "bolts", Quantity: 1000, Unit: "pieces"},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)
	require.Len(t, order.Items, 2)
	require.Regexp(t, `^PO-20240301-[0-9A-F]{8}$`, order.OrderNumber)
	require.Nil(t, order.ActualDeliveryDate)
}

// Orders may only target APPROVED vendors, whatever the client sends.
func TestCreateOrderRejectsUnapprovedVendor(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	input := validInput()
	input.VendorID = "vendor-2"
	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrVendorNotApproved)
	require.Empty(t, repo.orders)

	input.VendorID = "vendor-gone"
	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	svc := newTestService(newFakeRepo())
	input := validInput()
	input.Items = nil

	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrEmptyOrder)
}

func TestCreateOrderRejectsPastDeliveryDate(t *testing.T) {
	svc := newTestService(newFakeRepo())
	input := validInput()
	input.ExpectedDeliveryDate = testNow.AddDate(0, 0, -1)

	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrPastDeliveryDate)
}

// The comparison is date-only: a delivery date of "today" is valid even
// when the clock is already past midnight.
func TestCreateOrderAcceptsToday(t *testing.T) {
	svc := newTestService(newFakeRepo())
	input := validInput()
	input.ExpectedDeliveryDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
}

func TestCreateOrderRejectsBadItems(t *testing.T) {
	svc := newTestService(newFakeRepo())

	input := validInput()
	input.Items[0].Quantity = 0
	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrInvalidItem)

	input = validInput()
	input.Items[0].Unit = "liters"
	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrInvalidItem)

	input = validInput()
	input.Items[0].ProductID = "unknown"
	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrInvalidItem)
}

// A failed item write does not roll back the order header: the order stands
// with whatever items persisted and the caller learns about the gap.
func TestCreateOrderPartialItemWrite(t *testing.T) {
	repo := newFakeRepo()
	repo.failItemsAfter = 1
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), validInput())
	require.ErrorIs(t, err, shared.ErrPartialItemWrite)
	require.NotEmpty(t, order.ID)
	require.Len(t, order.Items, 1)

	stored, getErr := repo.Get(context.Background(), order.ID)
	require.NoError(t, getErr)
	require.Equal(t, StatusPending, stored.Status)
}

func seedOrder(repo *fakeRepo, status OrderStatus) PurchaseOrder {
	order, _ := repo.CreateOrder(context.Background(), PurchaseOrder{
		OrderNumber: "PO-20240301-TEST0001",
		VendorID:    "vendor-1",
		PlantID:     "plant-1",
		Status:      status,
	})
	item, _ := repo.AddItem(context.Background(), Item{OrderID: order.ID, ProductID: "steel", Quantity: 10, Unit: "kg"})
	order.Items = []Item{item}
	return order
}

func TestAdvanceWalksForward(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusPending)

	for _, next := range []OrderStatus{StatusConfirmed, StatusShipped, StatusDelivered} {
		updated, err := svc.Advance(context.Background(), order.ID, next, nil)
		require.NoError(t, err)
		require.Equal(t, next, updated.Status)
	}

	final, _ := repo.Get(context.Background(), order.ID)
	require.NotNil(t, final.ActualDeliveryDate)
	require.Equal(t, testNow, *final.ActualDeliveryDate)
}

func TestAdvanceRejectsSkips(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusPending)

	_, err := svc.Advance(context.Background(), order.ID, StatusShipped, nil)
	require.ErrorIs(t, err, shared.ErrIllegalTransition)
	_, err = svc.Advance(context.Background(), order.ID, StatusDelivered, nil)
	require.ErrorIs(t, err, shared.ErrIllegalTransition)
}

func TestAdvanceRejectsBackward(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusShipped)

	_, err := svc.Advance(context.Background(), order.ID, StatusConfirmed, nil)
	require.ErrorIs(t, err, shared.ErrIllegalTransition)
}

func TestAdvanceNoOpKeepsVersion(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusConfirmed)

	updated, err := svc.Advance(context.Background(), order.ID, StatusConfirmed, nil)
	require.NoError(t, err)
	require.Equal(t, order.Version, updated.Version)
}

func TestAdvanceRejectsCancelled(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusPending)

	_, err := svc.Advance(context.Background(), order.ID, StatusCancelled, nil)
	require.ErrorIs(t, err, shared.ErrIllegalTransition)
}

func TestAdvanceTerminalOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusCancelled)

	_, err := svc.Advance(context.Background(), order.ID, StatusConfirmed, nil)
	require.ErrorIs(t, err, shared.ErrTerminalOrder)

	// Even the no-op refresh is refused once the order is terminal.
	_, err = svc.Advance(context.Background(), order.ID, StatusCancelled, nil)
	require.ErrorIs(t, err, shared.ErrIllegalTransition)
}

func TestAdvanceSurfacesVersionConflict(t *testing.T) {
	repo := newFakeRepo()
	repo.conflictsLeft = 1
	svc := newTestService(repo)
	order := seedOrder(repo, StatusPending)

	_, err := svc.Advance(context.Background(), order.ID, StatusConfirmed, nil)
	require.ErrorIs(t, err, shared.ErrConflict)
}

// Delivery date is write-once: cancelling then somehow re-delivering must
// not overwrite the first stamp.
func TestDeliveredStampWriteOnce(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusShipped)

	earlier := testNow.AddDate(0, 0, -3)
	stored := repo.orders[order.ID]
	stored.ActualDeliveryDate = &earlier
	repo.orders[order.ID] = stored

	updated, err := svc.Advance(context.Background(), order.ID, StatusDelivered, nil)
	require.NoError(t, err)
	require.Equal(t, earlier, *updated.ActualDeliveryDate)
}

func TestForceCancel(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	for _, status := range []OrderStatus{StatusPending, StatusConfirmed, StatusShipped} {
		order := seedOrder(repo, status)
		cancelled, err := svc.ForceCancel(context.Background(), order.ID)
		require.NoError(t, err, "from %s", status)
		require.Equal(t, StatusCancelled, cancelled.Status)
	}
}

func TestForceCancelDeliveredFails(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusDelivered)

	_, err := svc.ForceCancel(context.Background(), order.ID)
	require.ErrorIs(t, err, shared.ErrTerminalOrder)
}

func TestForceCancelIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusCancelled)

	cancelled, err := svc.ForceCancel(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
}

func TestForceCancelRetriesVersionRace(t *testing.T) {
	repo := newFakeRepo()
	repo.conflictsLeft = 2
	svc := newTestService(repo)
	order := seedOrder(repo, StatusPending)

	cancelled, err := svc.ForceCancel(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
}

// A no-op status refresh may still move the promised date; that is the one
// side effect the refresh path is allowed.
func TestAdvanceNoOpUpdatesDeliveryDate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusConfirmed)

	newDate := testNow.AddDate(0, 0, 14)
	updated, err := svc.Advance(context.Background(), order.ID, StatusConfirmed, &newDate)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, updated.Status)
	require.Equal(t, newDate, updated.ExpectedDeliveryDate)
}

func TestAdvanceWithDeliveryDate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusPending)

	newDate := testNow.AddDate(0, 0, 10)
	updated, err := svc.Advance(context.Background(), order.ID, StatusConfirmed, &newDate)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, updated.Status)
	require.Equal(t, newDate, updated.ExpectedDeliveryDate)
}

func TestUpdateExpectedDeliveryDate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusConfirmed)

	newDate := testNow.AddDate(0, 0, 21)
	require.NoError(t, svc.UpdateExpectedDeliveryDate(context.Background(), order.ID, newDate))
	stored, _ := repo.Get(context.Background(), order.ID)
	require.Equal(t, newDate, stored.ExpectedDeliveryDate)
	require.Equal(t, StatusConfirmed, stored.Status)

	delivered := seedOrder(repo, StatusDelivered)
	err := svc.UpdateExpectedDeliveryDate(context.Background(), delivered.ID, newDate)
	require.ErrorIs(t, err, shared.ErrTerminalOrder)
}

func TestRemoveItemRefusesToEmptyOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusPending)

	err := svc.RemoveItem(context.Background(), order.ID, order.Items[0].ID)
	require.ErrorIs(t, err, shared.ErrEmptyOrder)
}

func TestUpdateItemQuantity(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := seedOrder(repo, StatusConfirmed)

	err := svc.UpdateItemQuantity(context.Background(), order.ID, order.Items[0].ID, 25)
	require.NoError(t, err)
	require.Equal(t, 25, repo.items[order.Items[0].ID].Quantity)

	err = svc.UpdateItemQuantity(context.Background(), order.ID, order.Items[0].ID, 0)
	require.ErrorIs(t, err, shared.ErrInvalidQuantity)
}
