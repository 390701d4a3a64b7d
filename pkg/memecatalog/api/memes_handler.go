package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/meme-catalog/pkg/memecatalog"
)

// multipartMemory is the in-memory threshold for multipart parsing
const multipartMemory = 8 << 20

// MemeResponse is the response body for a meme
type MemeResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UpdateMemeRequest is the request body for renaming a meme
type UpdateMemeRequest struct {
	Name *string `json:"name"`
}

// Bind validates the decoded body for render.Bind
func (u *UpdateMemeRequest) Bind(r *http.Request) error {
	if u.Name == nil {
		return &memecatalog.ValidationError{Field: "name", Reason: "is required"}
	}
	return nil
}

// MemesHandler handles HTTP requests for memes
type MemesHandler struct {
	service memecatalog.Service
	logger  *slog.Logger
}

// NewMemesHandler creates a new memes handler
func NewMemesHandler(service memecatalog.Service, logger *slog.Logger) *MemesHandler {
	return &MemesHandler{
		service: service,
		logger:  defaultLogger(logger),
	}
}

// Routes returns the routes for memes
func (h *MemesHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListMemes)
	r.Post("/", h.CreateMeme)
	r.Get("/{id}", h.GetMeme)
	r.Put("/{id}", h.UpdateMeme)
	r.Delete("/{id}", h.DeleteMeme)

	return r
}

func toResponse(a *memecatalog.Asset) MemeResponse {
	return MemeResponse{ID: a.ID, Name: a.Name}
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, &memecatalog.ValidationError{Field: "id", Reason: fmt.Sprintf("must be a positive integer, got %q", raw)}
	}
	return id, nil
}

// ListMemes returns a page of memes
func (h *MemesHandler) ListMemes(w http.ResponseWriter, r *http.Request) {
	page, size, err := parsePageParams(r)
	if err != nil {
		writeDetail(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	assets, err := h.service.ListAssets(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]MemeResponse, 0, len(assets))
	for _, a := range assets {
		items = append(items, toResponse(a))
	}

	render.JSON(w, r, paginate(items, page, size))
}

// GetMeme streams a meme's payload as an attachment
func (h *MemesHandler) GetMeme(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	payload, err := h.service.GetAssetPayload(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename="+payload.FileName)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload.Data); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write payload", "id", id, "error", err)
	}
}

// CreateMeme creates a meme from a multipart form with name and image fields
func (h *MemesHandler) CreateMeme(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.writeError(w, r, err)
			return
		}
		writeDetail(w, r, http.StatusUnprocessableEntity, "expected multipart form with name and image fields")
		return
	}
	defer r.MultipartForm.RemoveAll()

	name := r.FormValue("name")
	file, header, err := r.FormFile("image")
	if err != nil {
		h.writeError(w, r, &memecatalog.ValidationError{Field: "image", Reason: "is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	asset, err := h.service.CreateAsset(r.Context(), memecatalog.CreateAssetRequest{
		Name:        name,
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toResponse(asset))
}

// UpdateMeme renames a meme
func (h *MemesHandler) UpdateMeme(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req UpdateMemeRequest
	if err := render.Bind(r, &req); err != nil {
		var maxBytes *http.MaxBytesError
		var verr *memecatalog.ValidationError
		if errors.As(err, &maxBytes) || errors.As(err, &verr) {
			h.writeError(w, r, err)
			return
		}
		writeDetail(w, r, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}

	asset, err := h.service.UpdateAssetName(r.Context(), memecatalog.UpdateAssetNameRequest{
		ID:   id,
		Name: *req.Name,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, toResponse(asset))
}

// DeleteMeme deletes a meme and returns what was deleted
func (h *MemesHandler) DeleteMeme(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	asset, err := h.service.DeleteAsset(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, toResponse(asset))
}
