package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/actreport/internal/domain"
)

// ReportStore persists a whole report (activity plus child records) as one unit.
type ReportStore struct {
	db           *sql.DB
	activities   *ActivityStore
	speakers     *SpeakerStore
	participants *ParticipantStore
	preparers    *PreparerStore
	photos       *PhotoStore
}

func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{
		db:           db,
		activities:   NewActivityStore(db),
		speakers:     NewSpeakerStore(db),
		participants: NewParticipantStore(db),
		preparers:    NewPreparerStore(db),
		photos:       NewPhotoStore(db),
	}
}

// Save inserts the activity when its ID is zero and updates it otherwise, then
// replaces every child list. Everything happens in one transaction, so a
// failure leaves the previously saved report untouched.
func (s *ReportStore) Save(ctx context.Context, r *domain.Report) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			slog.Error("failed to roll back report save", "error", rerr)
		}
	}()

	id := r.Activity.ID
	if id == 0 {
		id, err = s.activities.WithTx(tx).Create(ctx, &r.Activity)
		if err != nil {
			return 0, err
		}
	} else if err := s.activities.WithTx(tx).Update(ctx, &r.Activity); err != nil {
		return 0, err
	}

	if err := s.speakers.WithTx(tx).Replace(ctx, id, r.Speakers); err != nil {
		return 0, err
	}
	if err := s.participants.WithTx(tx).Replace(ctx, id, r.Participants); err != nil {
		return 0, err
	}
	if err := s.preparers.WithTx(tx).Replace(ctx, id, r.Preparers); err != nil {
		return 0, err
	}
	if err := s.photos.WithTx(tx).Replace(ctx, id, r.Photos); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit report: %w", err)
	}
	return id, nil
}

// Load returns the full report for an activity, or nil when it does not exist.
func (s *ReportStore) Load(ctx context.Context, activityID int64) (*domain.Report, error) {
	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}

	r := &domain.Report{Activity: *a}
	if r.Speakers, err = s.speakers.ListByActivityID(ctx, activityID); err != nil {
		return nil, err
	}
	if r.Participants, err = s.participants.ListByActivityID(ctx, activityID); err != nil {
		return nil, err
	}
	if r.Preparers, err = s.preparers.ListByActivityID(ctx, activityID); err != nil {
		return nil, err
	}
	if r.Photos, err = s.photos.ListByActivityID(ctx, activityID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReportStore) List(ctx context.Context) ([]*domain.ActivitySummary, error) {
	return s.activities.List(ctx)
}

func (s *ReportStore) Delete(ctx context.Context, activityID int64) error {
	return s.activities.Delete(ctx, activityID)
}
