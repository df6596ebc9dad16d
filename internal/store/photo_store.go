package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/actreport/internal/domain"
)

type PhotoStore struct {
	db querier
}

func NewPhotoStore(db *sql.DB) *PhotoStore {
	return &PhotoStore{db: db}
}

func (s *PhotoStore) WithTx(tx *sql.Tx) *PhotoStore {
	return &PhotoStore{db: tx}
}

func (s *PhotoStore) ListByActivityID(ctx context.Context, activityID int64) ([]domain.Photo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, activity_id, storage_key, mime_type, photo_type, caption
		FROM activity_photos WHERE activity_id = ? ORDER BY position, id
	`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer closeRows(rows)

	var photos []domain.Photo
	for rows.Next() {
		var p domain.Photo
		if err := rows.Scan(&p.ID, &p.ActivityID, &p.StorageKey, &p.MimeType, &p.PhotoType, &p.Caption); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}
	return photos, nil
}

func (s *PhotoStore) Replace(ctx context.Context, activityID int64, photos []domain.Photo) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM activity_photos WHERE activity_id = ?`, activityID); err != nil {
		return fmt.Errorf("failed to clear photos: %w", err)
	}
	for i, p := range photos {
		mimeType := p.MimeType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		photoType := p.PhotoType
		if photoType == "" {
			photoType = domain.PhotoTypeActivity
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO activity_photos (activity_id, position, storage_key, mime_type, photo_type, caption)
			VALUES (?, ?, ?, ?, ?, ?)
		`, activityID, i, p.StorageKey, mimeType, photoType, p.Caption); err != nil {
			return fmt.Errorf("failed to create photo: %w", err)
		}
	}
	return nil
}
