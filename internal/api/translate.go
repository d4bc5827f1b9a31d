package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/takascemberi/takas/internal/model"
	"github.com/takascemberi/takas/internal/translate"
)

// TranslateHandler exposes the listing translation workflow.
type TranslateHandler struct {
	Service *translate.Service
	// Lifetime, when set, is canceled on shutdown and stops work in flight.
	Lifetime context.Context
}

type itemTranslatedResponse struct {
	Message      string             `json:"message"`
	Translations model.Translations `json:"translations"`
}

type bulkTranslatedResponse struct {
	Message string `json:"message"`
	translate.Summary
}

// detach returns a context that ignores the client going away but still ends
// with the process. A canceled request would otherwise turn every pending
// call into a fallback and store source text as translations.
func (h *TranslateHandler) detach(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	if h.Lifetime == nil {
		return ctx, cancel
	}
	stop := context.AfterFunc(h.Lifetime, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// TranslateItem handles POST /api/translate-item/{itemId}.
func (h *TranslateHandler) TranslateItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("itemId")
	ctx, cancel := h.detach(r)
	defer cancel()

	res, err := h.Service.TranslateItem(ctx, id)
	switch {
	case errors.Is(err, translate.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
	case err != nil && ctx.Err() != nil:
		slog.Warn("item translation stopped by shutdown", "item", id)
		jsonError(w, http.StatusServiceUnavailable, "server shutting down")
	case err != nil:
		slog.Error("failed to translate item", "item", id, "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to translate item")
	case res.AlreadyTranslated:
		jsonMessage(w, "already translated")
	default:
		jsonResponse(w, http.StatusOK, itemTranslatedResponse{
			Message:      "item translated",
			Translations: res.Translations,
		})
	}
}

// TranslateAll handles POST /api/translate-all-items. The run keeps going if
// the client disconnects.
func (h *TranslateHandler) TranslateAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.detach(r)
	defer cancel()

	summary, err := h.Service.TranslateAll(ctx)
	// Work cut short by shutdown is reported as such even if the last batch
	// ran to the end with failed writes.
	if ctx.Err() != nil {
		slog.Warn("bulk translation stopped by shutdown", "translated", summary.Translated, "total", summary.Total)
		jsonError(w, http.StatusServiceUnavailable, "server shutting down")
		return
	}
	if err != nil {
		slog.Error("bulk translation failed", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, bulkTranslatedResponse{
		Message: "bulk translation finished",
		Summary: summary,
	})
}
