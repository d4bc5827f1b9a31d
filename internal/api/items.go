package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/takascemberi/takas/internal/imaging"
	"github.com/takascemberi/takas/internal/model"
	"github.com/takascemberi/takas/internal/store"
)

// ItemsHandler handles listing endpoints.
type ItemsHandler struct {
	Items store.ItemRepository
}

type createItemRequest struct {
	OwnerID     string `json:"ownerId"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateItemRequest struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Status is left unchanged when omitted.
	Status *string `json:"status"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidItemStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	items, err := h.Items.ListItems(r.Context(), status)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Items.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		jsonError(w, http.StatusBadRequest, "title required")
		return
	}
	if req.OwnerID == "" {
		jsonError(w, http.StatusBadRequest, "ownerId required")
		return
	}

	item, err := h.Items.CreateItem(r.Context(), req.OwnerID, req.Category, req.Title, req.Description)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item created", "user", GetClaims(r.Context()).Username, "item", item.ID)
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/items/{id}. Changing the title or description
// drops the stored translations.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		jsonError(w, http.StatusBadRequest, "title required")
		return
	}
	if req.Status != nil && !model.ValidItemStatus(*req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	status := ""
	if req.Status != nil {
		status = *req.Status
	} else {
		current, err := h.Items.GetItem(r.Context(), id)
		if err != nil {
			slog.Error("failed to get item", "item", id, "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to update item")
			return
		}
		if current == nil || current.DeletedAt != nil {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		status = current.Status
	}

	err := h.Items.UpdateItem(r.Context(), id, req.Category, req.Title, req.Description, status)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		slog.Error("failed to update item", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	item, err := h.Items.GetItem(r.Context(), id)
	if err != nil || item == nil {
		slog.Error("failed to reload item", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.Items.DeleteItem(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		slog.Error("failed to delete item", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	slog.Info("item deleted", "user", GetClaims(r.Context()).Username, "item", id)
	jsonMessage(w, "item deleted")
}

// UploadImage handles PUT /api/items/{id}/image. The photo is sent as the
// "image" field of a multipart form.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Normalize(file)
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	case errors.Is(err, imaging.ErrUnsupported):
		jsonError(w, http.StatusBadRequest, "image must be JPEG, PNG, or WebP")
		return
	case err != nil:
		jsonError(w, http.StatusBadRequest, "invalid image")
		return
	}

	err = h.Items.SetItemImage(r.Context(), id, photo.Data, photo.MIME)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		slog.Error("failed to save image", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonMessage(w, "image uploaded")
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := h.Items.GetItemImage(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
