package model

import (
	"strings"
	"time"
)

// Item is a listing offered for barter. Title and Description are written in
// the source language; the translated fields stay nil until the translation
// workflow fills them in.
type Item struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"ownerId"`
	Category      string     `json:"category,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	TitleEn       *string    `json:"titleEn"`
	TitleAr       *string    `json:"titleAr"`
	DescriptionEn *string    `json:"descriptionEn"`
	DescriptionAr *string    `json:"descriptionAr"`
	ImageMime     string     `json:"imageMime,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
}

// Item statuses.
const (
	ItemStatusActive  = "active"
	ItemStatusExpired = "expired"
	ItemStatusTraded  = "traded"
)

// ValidItemStatus reports whether s is a known item status.
func ValidItemStatus(s string) bool {
	switch s {
	case ItemStatusActive, ItemStatusExpired, ItemStatusTraded:
		return true
	}
	return false
}

// NeedsTranslation reports whether the item is missing its English or Arabic
// title. Only the titles are checked; the description fields are written
// together with them.
func (it *Item) NeedsTranslation() bool {
	return blank(it.TitleEn) || blank(it.TitleAr)
}

// Translations returns the currently stored translations, with missing fields
// left empty.
func (it *Item) Translations() Translations {
	return Translations{
		TitleEn:       deref(it.TitleEn),
		TitleAr:       deref(it.TitleAr),
		DescriptionEn: deref(it.DescriptionEn),
		DescriptionAr: deref(it.DescriptionAr),
	}
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
