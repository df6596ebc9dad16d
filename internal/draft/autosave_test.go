package draft

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vbonduro/actreport/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSaver struct {
	mu        sync.Mutex
	collector *Collector
	saved     []string
	fail      map[string]bool
}

func (s *recordingSaver) SaveDraft(ctx context.Context, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail[draftID] {
		return errors.New("disk full")
	}
	d, err := s.collector.Get(draftID)
	if err != nil {
		return err
	}
	s.saved = append(s.saved, draftID)
	return s.collector.MarkSaved(draftID, d.ActivityID, d.Version)
}

func (s *recordingSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dirtyDraft(t *testing.T, c *Collector, activityID int64) *Draft {
	d := c.Open(&domain.Report{Activity: domain.Activity{ID: activityID}})
	d, err := c.Update(d.ID, func(r *domain.Report) error {
		r.Activity.Venue = "Hall"
		return nil
	})
	require.NoError(t, err)
	return d
}

func TestAutosaverFlush(t *testing.T) {
	c := NewCollector()
	saver := &recordingSaver{collector: c}
	a := NewAutosaver(c, saver, time.Hour, discardLogger())

	dirtyDraft(t, c, 1)
	dirtyDraft(t, c, 2)
	c.New()

	assert.Equal(t, 2, a.Flush(context.Background()))
	assert.Empty(t, c.Dirty())
	assert.Equal(t, 0, a.Flush(context.Background()))
}

func TestAutosaverRetriesFailedDrafts(t *testing.T) {
	c := NewCollector()
	d := dirtyDraft(t, c, 1)
	saver := &recordingSaver{collector: c, fail: map[string]bool{d.ID: true}}
	a := NewAutosaver(c, saver, time.Hour, discardLogger())

	assert.Equal(t, 0, a.Flush(context.Background()))
	require.Len(t, c.Dirty(), 1)

	saver.mu.Lock()
	saver.fail = nil
	saver.mu.Unlock()
	assert.Equal(t, 1, a.Flush(context.Background()))
}

func TestAutosaverRunTicks(t *testing.T) {
	c := NewCollector()
	saver := &recordingSaver{collector: c}
	a := NewAutosaver(c, saver, 10*time.Millisecond, discardLogger())
	dirtyDraft(t, c, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	assert.Eventually(t, func() bool { return saver.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestAutosaverFlushesOnShutdown(t *testing.T) {
	c := NewCollector()
	saver := &recordingSaver{collector: c}
	a := NewAutosaver(c, saver, time.Hour, discardLogger())
	dirtyDraft(t, c, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, a.Run(ctx))
	assert.Equal(t, 1, saver.count())
}

func TestNewAutosaverDefaultsInterval(t *testing.T) {
	a := NewAutosaver(NewCollector(), &recordingSaver{}, 0, discardLogger())
	assert.Equal(t, DefaultAutosaveInterval, a.interval)
}
