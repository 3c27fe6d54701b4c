package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/vuln-analysis-service/internal/events"
	"github.com/spec-kit/vuln-analysis-service/internal/repository"
)

// StartArtifactJanitor periodically evicts artifacts whose TTL index entry
// has expired. It runs until the context is cancelled.
func StartArtifactJanitor(ctx context.Context, store *repository.ArtifactStore, dispatcher events.Dispatcher, interval time.Duration, logger *zap.Logger) {
	if store == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := store.SweepExpired(ctx)
				if err != nil {
					logger.Warn("artifact sweep failed", zap.Error(err))
					continue
				}
				if removed == 0 {
					continue
				}
				logger.Info("expired artifacts evicted", zap.Int("removed", removed))
				if dispatcher != nil {
					_ = dispatcher.Publish(ctx, events.Event{
						ID:        uuid.NewString(),
						Type:      events.EventArtifactsEvicted,
						Timestamp: time.Now().UTC(),
						Payload:   events.ArtifactsEvictedPayload{Removed: removed},
					})
				}
			}
		}
	}()
}
