// Package docstore keeps listings in Cloud Firestore, for deployments where
// the web client reads them directly from the hosted document store.
package docstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/google/uuid"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/takascemberi/takas/internal/model"
	"github.com/takascemberi/takas/internal/store"
)

// Collection and field names shared with the web client.
const (
	itemsCollection = "items"
	mediaCollection = "media"
	photoDoc        = "photo"

	fieldOwnerID       = "ownerId"
	fieldCategory      = "category"
	fieldTitle         = "title"
	fieldDescription   = "description"
	fieldTitleEn       = "titleEn"
	fieldTitleAr       = "titleAr"
	fieldDescriptionEn = "descriptionEn"
	fieldDescriptionAr = "descriptionAr"
	fieldImageMime     = "imageMime"
	fieldStatus        = "status"
	fieldCreatedAt     = "createdAt"
	fieldUpdatedAt     = "updatedAt"
	fieldDeletedAt     = "deletedAt"
)

// Items is a store.ItemRepository backed by Firestore.
type Items struct {
	client *firestore.Client
	now    func() time.Time
}

var _ store.ItemRepository = (*Items)(nil)

// Open connects to the Firestore database of projectID. An empty
// credentialsFile falls back to application default credentials.
func Open(ctx context.Context, projectID, credentialsFile string) (*Items, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening firestore: %w", err)
	}
	return New(client), nil
}

// New wraps an existing Firestore client.
func New(client *firestore.Client) *Items {
	return &Items{client: client, now: func() time.Time { return time.Now().UTC() }}
}

// Close releases the underlying client.
func (s *Items) Close() error {
	return s.client.Close()
}

func (s *Items) doc(id string) *firestore.DocumentRef {
	return s.client.Collection(itemsCollection).Doc(id)
}

func (s *Items) photo(id string) *firestore.DocumentRef {
	return s.doc(id).Collection(mediaCollection).Doc(photoDoc)
}

func (s *Items) CreateItem(ctx context.Context, ownerID, category, title, description string) (*model.Item, error) {
	now := s.now()
	item := &model.Item{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Category:    category,
		Title:       title,
		Description: description,
		Status:      model.ItemStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.doc(item.ID).Create(ctx, itemData(item)); err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	return item, nil
}

// GetItem returns an item by ID, or nil if it does not exist.
func (s *Items) GetItem(ctx context.Context, id string) (*model.Item, error) {
	snap, err := s.doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return itemFromData(snap.Ref.ID, snap.Data()), nil
}

// ListItems returns all non-deleted items, optionally filtered by status,
// oldest first.
func (s *Items) ListItems(ctx context.Context, itemStatus string) ([]model.Item, error) {
	q := s.client.Collection(itemsCollection).Query
	if itemStatus != "" {
		q = q.Where(fieldStatus, "==", itemStatus)
	}
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	items := make([]model.Item, 0, len(snaps))
	for _, snap := range snaps {
		item := itemFromData(snap.Ref.ID, snap.Data())
		if item.DeletedAt != nil {
			continue
		}
		items = append(items, *item)
	}
	// Sorted here since ordering on createdAt with a status filter needs a
	// composite index.
	slices.SortFunc(items, func(a, b model.Item) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return items, nil
}

// UpdateItem updates a listing and clears its translations when the title or
// description changes.
func (s *Items) UpdateItem(ctx context.Context, id, category, title, description, itemStatus string) error {
	ref := s.doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current, err := liveItem(tx, ref)
		if err != nil {
			return err
		}
		return tx.Update(ref, itemUpdates(current, category, title, description, itemStatus, s.now()))
	})
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes an item.
func (s *Items) DeleteItem(ctx context.Context, id string) error {
	ref := s.doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := liveItem(tx, ref); err != nil {
			return err
		}
		now := s.now()
		return tx.Update(ref, []firestore.Update{
			{Path: fieldDeletedAt, Value: now},
			{Path: fieldUpdatedAt, Value: now},
		})
	})
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// SetItemImage stores the photo in the item's media subcollection.
func (s *Items) SetItemImage(ctx context.Context, id string, image []byte, mime string) error {
	ref := s.doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := liveItem(tx, ref); err != nil {
			return err
		}
		if err := tx.Set(s.photo(id), map[string]any{"data": image, "mime": mime}); err != nil {
			return err
		}
		return tx.Update(ref, []firestore.Update{
			{Path: fieldImageMime, Value: mime},
			{Path: fieldUpdatedAt, Value: s.now()},
		})
	})
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's photo and MIME type. Both are empty when the
// item has no photo.
func (s *Items) GetItemImage(ctx context.Context, id string) ([]byte, string, error) {
	snap, err := s.photo(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	data := snap.Data()
	image, _ := data["data"].([]byte)
	mime, _ := data["mime"].(string)
	return image, mime, nil
}

// SetItemTranslations writes all four translated fields and bumps updatedAt.
func (s *Items) SetItemTranslations(ctx context.Context, id string, t model.Translations) error {
	_, err := s.doc(id).Update(ctx, []firestore.Update{
		{Path: fieldTitleEn, Value: t.TitleEn},
		{Path: fieldTitleAr, Value: t.TitleAr},
		{Path: fieldDescriptionEn, Value: t.DescriptionEn},
		{Path: fieldDescriptionAr, Value: t.DescriptionAr},
		{Path: fieldUpdatedAt, Value: s.now()},
	})
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("setting item translations: %w", store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("setting item translations: %w", err)
	}
	return nil
}

// liveItem reads ref inside tx and fails with store.ErrNotFound when the item
// is missing or soft-deleted.
func liveItem(tx *firestore.Transaction, ref *firestore.DocumentRef) (*model.Item, error) {
	snap, err := tx.Get(ref)
	if status.Code(err) == codes.NotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	item := itemFromData(ref.ID, snap.Data())
	if item.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	return item, nil
}

func itemData(it *model.Item) map[string]any {
	return map[string]any{
		fieldOwnerID:       it.OwnerID,
		fieldCategory:      it.Category,
		fieldTitle:         it.Title,
		fieldDescription:   it.Description,
		fieldTitleEn:       it.TitleEn,
		fieldTitleAr:       it.TitleAr,
		fieldDescriptionEn: it.DescriptionEn,
		fieldDescriptionAr: it.DescriptionAr,
		fieldImageMime:     it.ImageMime,
		fieldStatus:        it.Status,
		fieldCreatedAt:     it.CreatedAt,
		fieldUpdatedAt:     it.UpdatedAt,
		fieldDeletedAt:     it.DeletedAt,
	}
}

// itemFromData maps a document onto an Item. Documents written by the web
// client may lack fields or carry null; those map to zero values.
func itemFromData(id string, data map[string]any) *model.Item {
	it := &model.Item{
		ID:            id,
		OwnerID:       str(data[fieldOwnerID]),
		Category:      str(data[fieldCategory]),
		Title:         str(data[fieldTitle]),
		Description:   str(data[fieldDescription]),
		TitleEn:       optStr(data[fieldTitleEn]),
		TitleAr:       optStr(data[fieldTitleAr]),
		DescriptionEn: optStr(data[fieldDescriptionEn]),
		DescriptionAr: optStr(data[fieldDescriptionAr]),
		ImageMime:     str(data[fieldImageMime]),
		Status:        str(data[fieldStatus]),
		CreatedAt:     timestamp(data[fieldCreatedAt]),
		UpdatedAt:     timestamp(data[fieldUpdatedAt]),
	}
	if t := timestamp(data[fieldDeletedAt]); !t.IsZero() {
		it.DeletedAt = &t
	}
	return it
}

// itemUpdates builds the field updates for UpdateItem.
func itemUpdates(current *model.Item, category, title, description, itemStatus string, now time.Time) []firestore.Update {
	updates := []firestore.Update{
		{Path: fieldCategory, Value: category},
		{Path: fieldTitle, Value: title},
		{Path: fieldDescription, Value: description},
		{Path: fieldStatus, Value: itemStatus},
		{Path: fieldUpdatedAt, Value: now},
	}
	if current.Title != title || current.Description != description {
		for _, f := range []string{fieldTitleEn, fieldTitleAr, fieldDescriptionEn, fieldDescriptionAr} {
			updates = append(updates, firestore.Update{Path: f, Value: nil})
		}
	}
	return updates
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func optStr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func timestamp(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}
