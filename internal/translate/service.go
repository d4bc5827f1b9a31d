package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/takascemberi/takas/internal/model"
)

// Defaults for bulk runs.
const (
	DefaultBatchSize     = 5
	DefaultBatchInterval = time.Second
)

// ErrItemNotFound is returned when the requested item does not exist.
var ErrItemNotFound = errors.New("item not found")

// ItemStore is the subset of the item repository the workflow needs.
type ItemStore interface {
	GetItem(ctx context.Context, id string) (*model.Item, error)
	ListItems(ctx context.Context, status string) ([]model.Item, error)
	SetItemTranslations(ctx context.Context, id string, t model.Translations) error
}

// Pacer gates the start of each batch. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// SourceLang is the language listings are written in. Default: Turkish.
	SourceLang string
	// BatchSize is the number of items translated concurrently. Default: 5.
	BatchSize int
	// BatchInterval is the minimum spacing between batch starts. Default: 1s.
	// A negative value disables pacing.
	BatchInterval time.Duration
	// Pacer replaces the limiter built from BatchInterval.
	Pacer  Pacer
	Logger *slog.Logger
}

// Service translates listings and persists the results.
type Service struct {
	store     ItemStore
	tr        Translator
	source    string
	batchSize int
	pacer     Pacer
	logger    *slog.Logger
}

// NewService creates a translation service.
func NewService(store ItemStore, tr Translator, opts ServiceOptions) *Service {
	s := &Service{
		store:     store,
		tr:        tr,
		source:    opts.SourceLang,
		batchSize: opts.BatchSize,
		pacer:     opts.Pacer,
		logger:    opts.Logger,
	}
	if s.source == "" {
		s.source = model.LangTurkish
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	if s.pacer == nil {
		interval := opts.BatchInterval
		if interval == 0 {
			interval = DefaultBatchInterval
		}
		limit := rate.Inf
		if interval > 0 {
			limit = rate.Every(interval)
		}
		s.pacer = rate.NewLimiter(limit, 1)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ItemResult describes a single-item translation.
type ItemResult struct {
	ItemID string
	// AlreadyTranslated is set when nothing was done.
	AlreadyTranslated bool
	Translations      model.Translations
	// Fallbacks is the number of fields that kept the source text.
	Fallbacks int
}

// TranslateItem translates one item if its English or Arabic title is
// missing. Items that are already translated are left untouched.
func (s *Service) TranslateItem(ctx context.Context, id string) (*ItemResult, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading item %s: %w", id, err)
	}
	if item == nil || item.DeletedAt != nil {
		return nil, ErrItemNotFound
	}

	if !item.NeedsTranslation() {
		return &ItemResult{ItemID: id, AlreadyTranslated: true, Translations: item.Translations()}, nil
	}

	content := TranslateContent(ctx, s.tr, s.source, item.Title, item.Description)
	// A canceled run turns every call into a fallback; do not store those.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("translating item %s: %w", id, err)
	}
	translations := content.Translations()
	if err := s.store.SetItemTranslations(ctx, id, translations); err != nil {
		return nil, fmt.Errorf("saving translations for item %s: %w", id, err)
	}

	s.logger.Info("item translated", "item", id, "fallbacks", content.Fallbacks())
	return &ItemResult{ItemID: id, Translations: translations, Fallbacks: content.Fallbacks()}, nil
}

// Summary reports a bulk run.
type Summary struct {
	// Total is the number of active items that needed translation.
	Total int `json:"total"`
	// Translated is the number of items whose translations were saved.
	Translated int `json:"translated"`
	// Failed is the number of items whose save failed.
	Failed int `json:"failed"`
	// Fallbacks is the number of saved fields that kept the source text.
	Fallbacks int `json:"fallbacks"`
}

type outcome struct {
	attempted bool
	saved     bool
	fallbacks int
}

// TranslateAll translates every active item that is missing translations.
// Items are processed in concurrent batches whose starts are spaced by the
// pacer. A failure on one item is logged and does not stop the run. Only a
// failure to list the items, or ctx ending between batches, returns an error;
// in the latter case the summary covers the items attempted so far. Items
// translated after ctx ended are counted as failed and never written.
func (s *Service) TranslateAll(ctx context.Context) (Summary, error) {
	items, err := s.store.ListItems(ctx, model.ItemStatusActive)
	if err != nil {
		return Summary{}, fmt.Errorf("listing active items: %w", err)
	}

	var pending []model.Item
	for _, item := range items {
		if item.NeedsTranslation() {
			pending = append(pending, item)
		}
	}

	s.logger.Info("bulk translation started", "active", len(items), "pending", len(pending), "batch_size", s.batchSize)

	outcomes := make([]outcome, len(pending))
	for start := 0; start < len(pending); start += s.batchSize {
		if err := s.pacer.Wait(ctx); err != nil {
			summary := summarize(len(pending), outcomes)
			s.logger.Warn("bulk translation interrupted", "error", err, "translated", summary.Translated)
			return summary, fmt.Errorf("bulk translation interrupted: %w", err)
		}

		end := min(start+s.batchSize, len(pending))
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Go(func() { outcomes[i] = s.translatePending(ctx, &pending[i]) })
		}
		wg.Wait()
	}

	summary := summarize(len(pending), outcomes)
	s.logger.Info("bulk translation finished",
		"total", summary.Total, "translated", summary.Translated,
		"failed", summary.Failed, "fallbacks", summary.Fallbacks)
	return summary, nil
}

func (s *Service) translatePending(ctx context.Context, item *model.Item) outcome {
	content := TranslateContent(ctx, s.tr, s.source, item.Title, item.Description)
	if err := ctx.Err(); err != nil {
		s.logger.Warn("item translation abandoned", "item", item.ID, "error", err)
		return outcome{attempted: true}
	}
	if err := s.store.SetItemTranslations(ctx, item.ID, content.Translations()); err != nil {
		s.logger.Error("failed to save item translations", "item", item.ID, "error", err)
		return outcome{attempted: true}
	}
	return outcome{attempted: true, saved: true, fallbacks: content.Fallbacks()}
}

func summarize(total int, outcomes []outcome) Summary {
	sum := Summary{Total: total}
	for _, o := range outcomes {
		switch {
		case o.saved:
			sum.Translated++
			sum.Fallbacks += o.fallbacks
		case o.attempted:
			sum.Failed++
		}
	}
	return sum
}
