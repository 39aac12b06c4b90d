package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/supplylink/supplylink/internal/inventory"
	"github.com/supplylink/supplylink/internal/shared"
)

type fakeStock struct {
	items   map[string]inventory.Item
	suggest int
}

func (f *fakeStock) Get(_ context.Context, id string) (inventory.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return inventory.Item{}, shared.ErrNotFound
	}
	return item, nil
}

func (f *fakeStock) SuggestRestock(_ context.Context, _ inventory.Item) (int, error) {
	return f.suggest, nil
}

func TestOrderDraftFromLowStockItem(t *testing.T) {
	stock := &fakeStock{
		items: map[string]inventory.Item{
			"item-1": {ID: "item-1", PlantID: "plant-1", ProductID: "bolts", Quantity: 40, Unit: "pieces", ReorderThreshold: 50},
		},
		suggest: 200,
	}
	planner := NewRestockPlanner(stock)

	draft, err := planner.OrderDraft(context.Background(), "item-1")
	require.NoError(t, err)
	require.Equal(t, "plant-1", draft.PlantID)
	require.Len(t, draft.Items, 1)
	require.Equal(t, "bolts", draft.Items[0].ProductID)
	require.Equal(t, 200, draft.Items[0].Quantity)
	require.Equal(t, "pieces", draft.Items[0].Unit)
}

func TestOrderDraftUnknownItem(t *testing.T) {
	planner := NewRestockPlanner(&fakeStock{items: map[string]inventory.Item{}})

	_, err := planner.OrderDraft(context.Background(), "ghost")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOrderDraftRefusesStockedItem(t *testing.T) {
	stock := &fakeStock{
		items: map[string]inventory.Item{
			"item-1": {ID: "item-1", PlantID: "plant-1", ProductID: "bolts", Quantity: 50, Unit: "pieces", ReorderThreshold: 50},
		},
		suggest: 200,
	}
	planner := NewRestockPlanner(stock)

	_, err := planner.OrderDraft(context.Background(), "item-1")
	require.ErrorIs(t, err, shared.ErrStockNotLow)
}
