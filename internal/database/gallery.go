package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"

	"quad-image/internal/logging"
	"quad-image/internal/metrics"
)

// AddGalleryImages appends imageIDs to the gallery. Each row gets a
// timestamp one millisecond after the previous one, never going backwards,
// so listing order matches insertion order. An image already in the
// gallery is skipped silently. Any other failure stops the batch; rows
// written before it stay written.
func (d *Database) AddGalleryImages(ctx context.Context, token string, imageIDs []string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("add_gallery_images", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		err = ErrClosed
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	added := d.now().UnixMilli()
	if added <= d.lastAdded {
		added = d.lastAdded + 1
	}

	for _, imageID := range imageIDs {
		query, args, buildErr := psql.Insert("gallery_images").
			Columns("gallery_token", "image_id", "added").
			Values(token, imageID, added).
			ToSql()
		if buildErr != nil {
			err = fmt.Errorf("failed to build insert for %s: %w", imageID, buildErr)
			return err
		}

		_, execErr := d.db.ExecContext(ctx, query, args...)
		if isConstraintViolation(execErr) {
			metrics.GalleryDuplicateInserts.Inc()
			logging.Debug("Image %s already in gallery %s", imageID, token)
			continue
		}
		if execErr != nil {
			err = fmt.Errorf("failed to add %s to gallery: %w", imageID, execErr)
			return err
		}

		metrics.GalleryImagesAdded.Inc()
		d.lastAdded = added
		added++
	}

	return nil
}

// ListGalleryImages returns the gallery's image ids, most recently added
// first.
func (d *Database) ListGalleryImages(ctx context.Context, token string) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_gallery_images", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		err = ErrClosed
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args, err := psql.Select("image_id").
		From("gallery_images").
		Where(sq.Eq{"gallery_token": token}).
		OrderBy("added DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build gallery query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query gallery: %w", err)
	}
	defer rows.Close()

	images := []string{}
	for rows.Next() {
		var imageID string
		if err = rows.Scan(&imageID); err != nil {
			return nil, fmt.Errorf("failed to scan gallery row: %w", err)
		}
		images = append(images, imageID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gallery rows: %w", err)
	}
	return images, nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
