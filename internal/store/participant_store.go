package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/actreport/internal/domain"
)

type ParticipantStore struct {
	db querier
}

func NewParticipantStore(db *sql.DB) *ParticipantStore {
	return &ParticipantStore{db: db}
}

func (s *ParticipantStore) WithTx(tx *sql.Tx) *ParticipantStore {
	return &ParticipantStore{db: tx}
}

func (s *ParticipantStore) ListByActivityID(ctx context.Context, activityID int64) ([]domain.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, activity_id, participant_type, count
		FROM participants WHERE activity_id = ? ORDER BY id
	`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer closeRows(rows)

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.ActivityID, &p.Type, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}

func (s *ParticipantStore) Replace(ctx context.Context, activityID int64, participants []domain.Participant) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM participants WHERE activity_id = ?`, activityID); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	for _, p := range participants {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO participants (activity_id, participant_type, count) VALUES (?, ?, ?)`,
			activityID, p.Type, p.Count,
		); err != nil {
			return fmt.Errorf("failed to create participant: %w", err)
		}
	}
	return nil
}
