package store

import (
	"context"
	"database/sql"

	"github.com/takascemberi/takas/internal/model"
)

// ItemRepository is the persistence contract for listings. Lookups return a
// nil item (and nil error) when the item does not exist.
type ItemRepository interface {
	CreateItem(ctx context.Context, ownerID, category, title, description string) (*model.Item, error)
	GetItem(ctx context.Context, id string) (*model.Item, error)
	ListItems(ctx context.Context, status string) ([]model.Item, error)
	UpdateItem(ctx context.Context, id, category, title, description, status string) error
	DeleteItem(ctx context.Context, id string) error
	SetItemImage(ctx context.Context, id string, image []byte, mime string) error
	GetItemImage(ctx context.Context, id string) ([]byte, string, error)
	SetItemTranslations(ctx context.Context, id string, t model.Translations) error
}

// SQLiteItems is the ItemRepository backed by the local SQLite database.
type SQLiteItems struct {
	DB *sql.DB
}

var _ ItemRepository = (*SQLiteItems)(nil)

func (s *SQLiteItems) CreateItem(ctx context.Context, ownerID, category, title, description string) (*model.Item, error) {
	return CreateItem(ctx, s.DB, ownerID, category, title, description)
}

func (s *SQLiteItems) GetItem(ctx context.Context, id string) (*model.Item, error) {
	return GetItem(ctx, s.DB, id)
}

func (s *SQLiteItems) ListItems(ctx context.Context, status string) ([]model.Item, error) {
	return ListItems(ctx, s.DB, status)
}

func (s *SQLiteItems) UpdateItem(ctx context.Context, id, category, title, description, status string) error {
	return UpdateItem(ctx, s.DB, id, category, title, description, status)
}

func (s *SQLiteItems) DeleteItem(ctx context.Context, id string) error {
	return DeleteItem(ctx, s.DB, id)
}

func (s *SQLiteItems) SetItemImage(ctx context.Context, id string, image []byte, mime string) error {
	return SetItemImage(ctx, s.DB, id, image, mime)
}

func (s *SQLiteItems) GetItemImage(ctx context.Context, id string) ([]byte, string, error) {
	return GetItemImage(ctx, s.DB, id)
}

func (s *SQLiteItems) SetItemTranslations(ctx context.Context, id string, t model.Translations) error {
	return SetItemTranslations(ctx, s.DB, id, t)
}
