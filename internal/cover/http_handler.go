package cover

import (
	"errors"
	"io"
	"net/http"

	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/logger"
)

// multipartOverhead is allowed on top of the image size for form headers
// and boundaries.
const multipartOverhead = 64 << 10

type HTTPHandler struct {
	store *Store
	log   logger.Logger
}

func NewHTTPHandler(store *Store, log logger.Logger) *HTTPHandler {
	return &HTTPHandler{store: store, log: log}
}

// Upload handles POST /covers
// @Summary Upload a cover image
// @Tags covers
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "JPEG, PNG, GIF or WebP image"
// @Success 201 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope
// @Failure 413 {object} httpx.Envelope
// @Router /covers [post]
func (h *HTTPHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.store.maxBytes+multipartOverhead)

	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Image too large", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "A file field named \"file\" is required", nil)
		return
	}
	defer file.Close()

	obj, err := h.store.Save(r.Context(), file)
	switch {
	case err == nil:
		httpx.JSONSuccessCreated(w, r, obj)
	case errors.Is(err, ErrUnsupportedType), errors.Is(err, ErrEmpty):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Only JPEG, PNG, GIF and WebP images are accepted", nil)
	case errors.Is(err, ErrTooLarge):
		httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Image too large", nil)
	default:
		h.log.Error("store cover failed",
			logger.String("request_id", httpx.RequestIDFrom(r)),
			logger.Error(err))
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

// Serve handles GET /covers/{name}
func (h *HTTPHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rc, err := h.store.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.log.Error("open cover failed", logger.String("name", name), logger.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", ContentType(name))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Debug("serve cover interrupted", logger.String("name", name), logger.Error(err))
	}
}
