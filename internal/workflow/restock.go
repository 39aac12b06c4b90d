package workflow

import (
	"context"

	"github.com/supplylink/supplylink/internal/inventory"
	"github.com/supplylink/supplylink/internal/orders"
	"github.com/supplylink/supplylink/internal/shared"
)

// StockSource is the slice of the inventory service the planner needs.
type StockSource interface {
	Get(ctx context.Context, id string) (inventory.Item, error)
	SuggestRestock(ctx context.Context, item inventory.Item) (int, error)
}

// RestockPlanner turns a low-stock inventory item into a one-line purchase
// order draft. The admin completes the draft with a vendor and a delivery
// date before placing it.
type RestockPlanner struct {
	stock StockSource
}

func NewRestockPlanner(stock StockSource) *RestockPlanner {
	return &RestockPlanner{stock: stock}
}

// OrderDraft pre-fills an order for the item's plant with the suggested
// restock quantity in the item's own unit. Only items below their reorder
// level qualify.
func (p *RestockPlanner) OrderDraft(ctx context.Context, itemID string) (orders.CreateOrderInput, error) {
	item, err := p.stock.Get(ctx, itemID)
	if err != nil {
		return orders.CreateOrderInput{}, err
	}
	if !item.IsLowStock() {
		return orders.CreateOrderInput{}, shared.ErrStockNotLow
	}
	quantity, err := p.stock.SuggestRestock(ctx, item)
	if err != nil {
		return orders.CreateOrderInput{}, err
	}
	return orders.CreateOrderInput{
		PlantID: item.PlantID,
		Items: []orders.ItemInput{
			{ProductID: item.ProductID, Quantity: quantity, Unit: item.Unit},
		},
	}, nil
}
