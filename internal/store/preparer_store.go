package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/actreport/internal/domain"
)

type PreparerStore struct {
	db querier
}

func NewPreparerStore(db *sql.DB) *PreparerStore {
	return &PreparerStore{db: db}
}

func (s *PreparerStore) WithTx(tx *sql.Tx) *PreparerStore {
	return &PreparerStore{db: tx}
}

func (s *PreparerStore) ListByActivityID(ctx context.Context, activityID int64) ([]domain.Preparer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, activity_id, name, designation, signature_key
		FROM report_preparers WHERE activity_id = ? ORDER BY position, id
	`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list preparers: %w", err)
	}
	defer closeRows(rows)

	var preparers []domain.Preparer
	for rows.Next() {
		var p domain.Preparer
		if err := rows.Scan(&p.ID, &p.ActivityID, &p.Name, &p.Designation, &p.SignatureKey); err != nil {
			return nil, fmt.Errorf("failed to scan preparer: %w", err)
		}
		preparers = append(preparers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preparers: %w", err)
	}
	return preparers, nil
}

func (s *PreparerStore) Replace(ctx context.Context, activityID int64, preparers []domain.Preparer) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM report_preparers WHERE activity_id = ?`, activityID); err != nil {
		return fmt.Errorf("failed to clear preparers: %w", err)
	}
	for i, p := range preparers {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO report_preparers (activity_id, position, name, designation, signature_key)
			VALUES (?, ?, ?, ?, ?)
		`, activityID, i, p.Name, p.Designation, p.SignatureKey); err != nil {
			return fmt.Errorf("failed to create preparer: %w", err)
		}
	}
	return nil
}
