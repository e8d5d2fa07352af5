package upload

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/imaging"
	"github.com/rewear/rewear-api/internal/pkg/response"
	"github.com/rewear/rewear-api/internal/pkg/storage"
)

// UploadResult is returned after a successful upload
type UploadResult struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// Handler accepts garment photos, normalizes them, and stores the
// original plus a catalog thumbnail
type Handler struct {
	store     *storage.Store
	processor *imaging.Processor
}

// NewHandler creates upload handler. store may be nil when object
// storage is not configured; uploads then answer 503.
func NewHandler(store *storage.Store, processor *imaging.Processor) *Handler {
	return &Handler{store: store, processor: processor}
}

// Upload handles POST /uploads
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if !h.store.Enabled() {
		response.ServiceUnavailable(w, "File uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxFileSize)
	if err := r.ParseMultipartForm(storage.MaxFileSize); err != nil {
		response.BadRequest(w, "File too large or malformed form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "Missing file field")
		return
	}
	defer file.Close()

	if !imaging.ValidateType(header.Filename) {
		response.BadRequest(w, "Unsupported image type (jpeg, png, gif, webp)")
		return
	}
	if !imaging.ValidateSize(header.Size, storage.MaxFileSize) {
		response.BadRequest(w, "File too large")
		return
	}

	processed, err := h.processor.Process(file)
	if err != nil {
		response.BadRequest(w, "File is not a valid image")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" || ext == ".webp" {
		// Re-encoded output is jpeg or png, never webp
		ext = ".jpg"
	}

	url, err := h.store.Put(r.Context(), userID, ext, processed.ContentType, processed.Original)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("image upload failed")
		response.InternalError(w)
		return
	}

	thumbURL, err := h.store.Put(r.Context(), userID, ext, processed.ContentType, processed.Thumbnail)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("thumbnail upload failed")
		response.InternalError(w)
		return
	}

	log.Info().
		Str("user_id", userID.String()).
		Int("size", int(header.Size)).
		Int("width", processed.Width).
		Int("height", processed.Height).
		Msg("image uploaded")

	response.Created(w, UploadResult{
		URL:          url,
		ThumbnailURL: thumbURL,
		Width:        processed.Width,
		Height:       processed.Height,
	})
}

// Routes returns upload routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Upload)

	return r
}
