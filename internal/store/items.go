package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/takascemberi/takas/internal/model"
)

// ErrNotFound is returned by writes that target a missing or deleted row.
var ErrNotFound = errors.New("not found")

const itemColumns = `id, owner_id, category, title, description,
	title_en, title_ar, description_en, description_ar,
	image_mime, status, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var category, description, imageMime sql.NullString
	var titleEn, titleAr, descriptionEn, descriptionAr sql.NullString
	err := row.Scan(&item.ID, &item.OwnerID, &category, &item.Title, &description,
		&titleEn, &titleAr, &descriptionEn, &descriptionAr,
		&imageMime, &item.Status, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
	if err != nil {
		return nil, err
	}
	item.Category = category.String
	item.Description = description.String
	item.ImageMime = imageMime.String
	item.TitleEn = nullable(titleEn)
	item.TitleAr = nullable(titleAr)
	item.DescriptionEn = nullable(descriptionEn)
	item.DescriptionAr = nullable(descriptionAr)
	return item, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// CreateItem creates a new active listing without translations.
func CreateItem(ctx context.Context, db *sql.DB, ownerID, category, title, description string) (*model.Item, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, owner_id, category, title, description) VALUES (?, ?, ?, ?, ?)`,
		id, ownerID, category, title, description,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all non-deleted items, optionally filtered by status.
func ListItems(ctx context.Context, db *sql.DB, status string) ([]model.Item, error) {
	var rows *sql.Rows
	var err error

	if status != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM items
			 WHERE deleted_at IS NULL AND status = ? ORDER BY created_at, id`, status,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM items
			 WHERE deleted_at IS NULL ORDER BY created_at, id`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem updates a listing. When the title or description changes the
// stored translations are cleared so the item is picked up again by the
// translation workflow.
func UpdateItem(ctx context.Context, db *sql.DB, id, category, title, description, status string) error {
	// SET expressions see the row as it was before the update.
	result, err := db.ExecContext(ctx,
		`UPDATE items SET
		     title_en       = CASE WHEN title = ? AND coalesce(description, '') = ? THEN title_en ELSE NULL END,
		     title_ar       = CASE WHEN title = ? AND coalesce(description, '') = ? THEN title_ar ELSE NULL END,
		     description_en = CASE WHEN title = ? AND coalesce(description, '') = ? THEN description_en ELSE NULL END,
		     description_ar = CASE WHEN title = ? AND coalesce(description, '') = ? THEN description_ar ELSE NULL END,
		     category = ?, title = ?, description = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		title, description, title, description, title, description, title, description,
		category, title, description, status, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return expectRow(result, "updating item")
}

// DeleteItem soft-deletes an item.
func DeleteItem(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return expectRow(result, "deleting item")
}

// SetItemImage sets an item's photo.
func SetItemImage(ctx context.Context, db *sql.DB, id string, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return expectRow(result, "setting item image")
}

// GetItemImage returns an item's photo and MIME type. Both are empty when the
// item has no photo.
func GetItemImage(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

// SetItemTranslations writes all four translated fields and bumps updated_at.
func SetItemTranslations(ctx context.Context, db *sql.DB, id string, t model.Translations) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET title_en = ?, title_ar = ?, description_en = ?, description_ar = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		t.TitleEn, t.TitleAr, t.DescriptionEn, t.DescriptionAr, id,
	)
	if err != nil {
		return fmt.Errorf("setting item translations: %w", err)
	}
	return expectRow(result, "setting item translations")
}

func expectRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
