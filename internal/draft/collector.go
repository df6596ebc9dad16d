// Package draft holds in-progress reports between form submissions and
// periodically saves the ones that already exist in the database.
package draft

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/actreport/internal/domain"
)

var ErrDraftNotFound = errors.New("draft not found")

// Draft is a snapshot of one report being edited.
type Draft struct {
	ID         string
	ActivityID int64
	Version    uint64
	Dirty      bool
	Report     *domain.Report
	UpdatedAt  time.Time
	SavedAt    time.Time
}

func (d *Draft) clone() *Draft {
	c := *d
	c.Report = d.Report.Clone()
	return &c
}

// Collector keeps drafts in memory, keyed by a random id.
type Collector struct {
	mu         sync.Mutex
	drafts     map[string]*Draft
	byActivity map[int64]string
	now        func() time.Time
}

func NewCollector() *Collector {
	return &Collector{
		drafts:     make(map[string]*Draft),
		byActivity: make(map[int64]string),
		now:        time.Now,
	}
}

// New starts an empty draft that has never been saved.
func (c *Collector) New() *Draft {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := &Draft{
		ID:        uuid.NewString(),
		Report:    &domain.Report{},
		UpdatedAt: c.now(),
	}
	c.drafts[d.ID] = d
	return d.clone()
}

// Open returns the draft already editing the persisted report, or starts one
// from it.
func (c *Collector) Open(r *domain.Report) *Draft {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.byActivity[r.Activity.ID]; ok {
		if d, ok := c.drafts[id]; ok {
			return d.clone()
		}
	}

	now := c.now()
	d := &Draft{
		ID:         uuid.NewString(),
		ActivityID: r.Activity.ID,
		Report:     r.Clone(),
		UpdatedAt:  now,
		SavedAt:    now,
	}
	c.drafts[d.ID] = d
	c.byActivity[d.ActivityID] = d.ID
	return d.clone()
}

func (c *Collector) Get(id string) (*Draft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return d.clone(), nil
}

// Update applies fn to the draft's report under the collector lock. The draft
// is marked dirty and its version bumped unless fn returns an error.
func (c *Collector) Update(id string, fn func(r *domain.Report) error) (*Draft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}

	work := d.Report.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	work.Activity.ID = d.ActivityID
	d.Report = work
	d.Version++
	d.Dirty = true
	d.UpdatedAt = c.now()
	return d.clone(), nil
}

// MarkSaved records a successful save of the snapshot taken at version. The
// dirty flag is only cleared when nothing changed since that snapshot.
func (c *Collector) MarkSaved(id string, activityID int64, version uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.drafts[id]
	if !ok {
		return ErrDraftNotFound
	}

	if d.ActivityID == 0 && activityID != 0 {
		d.ActivityID = activityID
		d.Report.Activity.ID = activityID
		c.byActivity[activityID] = id
	}
	if d.Version == version {
		d.Dirty = false
	}
	d.SavedAt = c.now()
	return nil
}

// Dirty returns snapshots of the drafts with unsaved edits that have already
// been persisted once.
func (c *Collector) Dirty() []*Draft {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*Draft
	for _, d := range c.drafts {
		if d.Dirty && d.ActivityID != 0 {
			out = append(out, d.clone())
		}
	}
	return out
}

func (c *Collector) Discard(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.drafts[id]; ok {
		delete(c.byActivity, d.ActivityID)
		delete(c.drafts, id)
	}
}

// DiscardActivity drops whichever draft is editing the activity.
func (c *Collector) DiscardActivity(activityID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.byActivity[activityID]; ok {
		delete(c.drafts, id)
		delete(c.byActivity, activityID)
	}
}
