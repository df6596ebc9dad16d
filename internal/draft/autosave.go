package draft

import (
	"context"
	"log/slog"
	"time"
)

const DefaultAutosaveInterval = 30 * time.Second

// Saver persists one draft. ReportService satisfies it.
type Saver interface {
	SaveDraft(ctx context.Context, draftID string) error
}

type Autosaver struct {
	collector *Collector
	saver     Saver
	interval  time.Duration
	logger    *slog.Logger
}

func NewAutosaver(collector *Collector, saver Saver, interval time.Duration, logger *slog.Logger) *Autosaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	return &Autosaver{collector: collector, saver: saver, interval: interval, logger: logger}
}

// Run flushes dirty drafts every interval until ctx is cancelled, then
// flushes once more and returns.
func (a *Autosaver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("autosave started", "interval", a.interval)
	for {
		select {
		case <-ctx.Done():
			// ctx is already done, so the final flush gets its own deadline.
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			a.Flush(flushCtx)
			cancel()
			a.logger.Info("autosave stopped")
			return nil
		case <-ticker.C:
			a.Flush(ctx)
		}
	}
}

// Flush saves every dirty draft once and returns how many succeeded.
// Failed drafts stay dirty and are retried on the next call.
func (a *Autosaver) Flush(ctx context.Context) int {
	saved := 0
	for _, d := range a.collector.Dirty() {
		if err := a.saver.SaveDraft(ctx, d.ID); err != nil {
			a.logger.Error("autosave failed", "draft_id", d.ID, "activity_id", d.ActivityID, "error", err)
			continue
		}
		saved++
	}
	if saved > 0 {
		a.logger.Debug("autosave flushed drafts", "count", saved)
	}
	return saved
}
