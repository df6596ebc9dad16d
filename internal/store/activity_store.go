package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/actreport/internal/domain"
)

type ActivityStore struct {
	db querier
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// WithTx returns a copy of the store that runs its statements on tx.
func (s *ActivityStore) WithTx(tx *sql.Tx) *ActivityStore {
	return &ActivityStore{db: tx}
}

const activityColumns = `id, activity_type, sub_category, sub_category_other, start_date, end_date,
	start_time, end_time, venue, collaboration_sponsor, highlights, key_takeaway, summary,
	follow_up_plan, created_at, updated_at`

func (s *ActivityStore) Create(ctx context.Context, a *domain.Activity) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (
			activity_type, sub_category, sub_category_other, start_date, end_date,
			start_time, end_time, venue, collaboration_sponsor, highlights,
			key_takeaway, summary, follow_up_plan
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ActivityType, a.SubCategory, a.SubCategoryOther, a.StartDate, a.EndDate,
		a.StartTime, a.EndTime, a.Venue, a.CollaborationSponsor, a.Highlights,
		a.KeyTakeaway, a.Summary, a.FollowUpPlan)
	if err != nil {
		return 0, fmt.Errorf("failed to create activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

func (s *ActivityStore) Update(ctx context.Context, a *domain.Activity) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE activities SET
			activity_type = ?, sub_category = ?, sub_category_other = ?,
			start_date = ?, end_date = ?, start_time = ?, end_time = ?,
			venue = ?, collaboration_sponsor = ?, highlights = ?,
			key_takeaway = ?, summary = ?, follow_up_plan = ?,
			updated_at = datetime('now')
		WHERE id = ?
	`, a.ActivityType, a.SubCategory, a.SubCategoryOther, a.StartDate, a.EndDate,
		a.StartTime, a.EndTime, a.Venue, a.CollaborationSponsor, a.Highlights,
		a.KeyTakeaway, a.Summary, a.FollowUpPlan, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return requireAffected(result, "activity")
}

func (s *ActivityStore) GetByID(ctx context.Context, id int64) (*domain.Activity, error) {
	a := &domain.Activity{}
	err := s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id).Scan(
		&a.ID, &a.ActivityType, &a.SubCategory, &a.SubCategoryOther, &a.StartDate, &a.EndDate,
		&a.StartTime, &a.EndTime, &a.Venue, &a.CollaborationSponsor, &a.Highlights,
		&a.KeyTakeaway, &a.Summary, &a.FollowUpPlan, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// List returns every activity, newest first.
func (s *ActivityStore) List(ctx context.Context) ([]*domain.ActivitySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, activity_type, start_date, venue, created_at
		FROM activities ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer closeRows(rows)

	var out []*domain.ActivitySummary
	for rows.Next() {
		a := &domain.ActivitySummary{}
		if err := rows.Scan(&a.ID, &a.ActivityType, &a.StartDate, &a.Venue, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return out, nil
}

// Delete removes the activity; child rows go with it through ON DELETE CASCADE.
func (s *ActivityStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return requireAffected(result, "activity")
}
