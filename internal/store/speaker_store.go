package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/actreport/internal/domain"
)

type SpeakerStore struct {
	db querier
}

func NewSpeakerStore(db *sql.DB) *SpeakerStore {
	return &SpeakerStore{db: db}
}

func (s *SpeakerStore) WithTx(tx *sql.Tx) *SpeakerStore {
	return &SpeakerStore{db: tx}
}

func (s *SpeakerStore) Create(ctx context.Context, activityID int64, position int, sp *domain.Speaker) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO speakers (
			activity_id, position, name, title_position, organization,
			contact_info, presentation_title, profile_text, profile_image_key
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, activityID, position, sp.Name, sp.TitlePosition, sp.Organization,
		sp.ContactInfo, sp.PresentationTitle, sp.ProfileText, sp.ProfileImageKey)
	if err != nil {
		return 0, fmt.Errorf("failed to create speaker: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// ListByActivityID returns speakers in the order they were entered.
func (s *SpeakerStore) ListByActivityID(ctx context.Context, activityID int64) ([]domain.Speaker, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, activity_id, name, title_position, organization, contact_info,
			presentation_title, profile_text, profile_image_key
		FROM speakers WHERE activity_id = ? ORDER BY position, id
	`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list speakers: %w", err)
	}
	defer closeRows(rows)

	var speakers []domain.Speaker
	for rows.Next() {
		var sp domain.Speaker
		if err := rows.Scan(&sp.ID, &sp.ActivityID, &sp.Name, &sp.TitlePosition, &sp.Organization,
			&sp.ContactInfo, &sp.PresentationTitle, &sp.ProfileText, &sp.ProfileImageKey); err != nil {
			return nil, fmt.Errorf("failed to scan speaker: %w", err)
		}
		speakers = append(speakers, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating speakers: %w", err)
	}
	return speakers, nil
}

// Replace swaps the activity's speakers for the given list.
func (s *SpeakerStore) Replace(ctx context.Context, activityID int64, speakers []domain.Speaker) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM speakers WHERE activity_id = ?`, activityID); err != nil {
		return fmt.Errorf("failed to clear speakers: %w", err)
	}
	for i := range speakers {
		if _, err := s.Create(ctx, activityID, i, &speakers[i]); err != nil {
			return err
		}
	}
	return nil
}
