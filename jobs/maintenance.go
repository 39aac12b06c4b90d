package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/supplylink/supplylink/internal/shared"
)

// Maintenance owns housekeeping tasks.
type Maintenance struct {
	Keys   *shared.IdempotencyStore
	Logger *slog.Logger
}

// HandleIdempotencyCleanup prunes idempotency keys past the retention
// window.
func (m *Maintenance) HandleIdempotencyCleanup(ctx context.Context, t *asynq.Task) error {
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retain := time.Duration(payload.RetainHours) * time.Hour
	if retain <= 0 {
		retain = 72 * time.Hour
	}
	if err := m.Keys.Cleanup(ctx, retain); err != nil {
		return err
	}
	if m.Logger != nil {
		m.Logger.Info("idempotency keys pruned", slog.Duration("retention", retain))
	}
	return nil
}
