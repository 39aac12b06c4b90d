package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/supplylink/supplylink/internal/inventory"
)

// RestockScanner sweeps every plant for items below their reorder
// threshold and mails the procurement inbox one digest per plant.
type RestockScanner struct {
	Inventory *inventory.Service
	Client    *Client
	Recipient string
	Logger    *slog.Logger

	// Suggestions counts restock lines produced across all scans.
	Suggestions prometheus.Counter
}

// RegisterMetrics registers the scanner's counters.
func (s *RestockScanner) RegisterMetrics(reg prometheus.Registerer) {
	s.Suggestions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "supplylink_restock_suggestions_total",
		Help: "Restock suggestions produced by the low-stock scan.",
	})
	reg.MustRegister(s.Suggestions)
}

// HandleRestockScan processes TaskTypeRestockScan tasks, scanning plants
// concurrently with a small bound.
func (s *RestockScanner) HandleRestockScan(ctx context.Context, t *asynq.Task) error {
	var payload RestockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	plants, err := s.Inventory.PlantIDs(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, plantID := range plants {
		plantID := plantID
		g.Go(func() error {
			return s.scanPlant(ctx, plantID)
		})
	}
	return g.Wait()
}

func (s *RestockScanner) scanPlant(ctx context.Context, plantID string) error {
	items, err := s.Inventory.LowStock(ctx, plantID)
	if err != nil {
		return fmt.Errorf("scan plant %s: %w", plantID, err)
	}
	if len(items) == 0 {
		return nil
	}

	var lines []string
	for _, item := range items {
		qty, err := s.Inventory.SuggestRestock(ctx, item)
		if err != nil {
			return fmt.Errorf("suggest restock for %s: %w", item.ID, err)
		}
		lines = append(lines, fmt.Sprintf("product %s: %d %s on hand (reorder level %d), suggest ordering %d",
			item.ProductID, item.Quantity, item.Unit, item.ReorderThreshold, qty))
		if s.Suggestions != nil {
			s.Suggestions.Inc()
		}
	}

	if s.Logger != nil {
		s.Logger.Info("low-stock digest", slog.String("plant_id", plantID), slog.Int("items", len(items)))
	}
	if s.Client == nil || s.Recipient == "" {
		return nil
	}
	_, err = s.Client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      s.Recipient,
		Subject: fmt.Sprintf("Low stock at plant %s (%d items)", plantID, len(items)),
		Body:    strings.Join(lines, "\n"),
	})
	return err
}
