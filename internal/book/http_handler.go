package book

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/logger"
)

const maxPageSize = 100

type HTTPHandler struct {
	service *Service
	log     logger.Logger
}

func NewHTTPHandler(service *Service, log logger.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

// List handles GET /books
// @Summary List books
// @Description Newest first. Without limit the whole collection is returned.
// @Tags books
// @Produce json
// @Param q query string false "Case-insensitive title or author substring"
// @Param category query string false "Exact category"
// @Param status query string false "to-read, reading or finished"
// @Param limit query int false "Page size (1-100)"
// @Param cursor query string false "Opaque cursor from meta.next_cursor"
// @Success 200 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope
// @Router /books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := Query{
		Owner:    httpx.UserIDFrom(r),
		Search:   strings.TrimSpace(query.Get("q")),
		Category: strings.TrimSpace(query.Get("category")),
	}

	if s := query.Get("status"); s != "" {
		status, err := ParseStatus(s)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "status must be one of: to-read, reading, finished", nil)
			return
		}
		params.Status = status
	}

	if l := query.Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 1 || limit > maxPageSize {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "limit must be between 1 and 100", nil)
			return
		}
		params.Limit = limit
	}

	if c := query.Get("cursor"); c != "" {
		cursor, err := DecodeCursor(c)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid cursor", nil)
			return
		}
		params.After = cursor
	}

	books, err := h.service.List(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	meta := map[string]any{"count": len(books)}
	if params.Limit > 0 && len(books) == params.Limit {
		if next := EncodeCursor(CursorFor(books[len(books)-1])); next != "" {
			meta["next_cursor"] = next
		}
	}
	httpx.JSONSuccess(w, r, books, meta)
}

// Get handles GET /books/{id}
// @Summary Get a book
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.Envelope
// @Failure 404 {object} httpx.Envelope
// @Router /books/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Create handles POST /books
// @Summary Add a book
// @Tags books
// @Accept json
// @Produce json
// @Param request body Draft true "New book"
// @Success 201 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope
// @Router /books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d Draft
	if !httpx.DecodeJSON(w, r, &d) {
		return
	}

	b, err := h.service.Create(r.Context(), httpx.UserIDFrom(r), d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, b)
}

// Update handles PUT and PATCH /books/{id}. Only the fields present in the
// body change.
// @Summary Update a book
// @Tags books
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param request body Patch true "Fields to change"
// @Success 200 {object} httpx.Envelope
// @Failure 400 {object} httpx.Envelope
// @Failure 404 {object} httpx.Envelope
// @Router /books/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p Patch
	if !httpx.DecodeJSON(w, r, &p) {
		return
	}

	b, err := h.service.Update(r.Context(), httpx.UserIDFrom(r), r.PathValue("id"), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Delete handles DELETE /books/{id}
// @Summary Delete a book
// @Tags books
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.Envelope
// @Failure 404 {object} httpx.Envelope
// @Router /books/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), httpx.UserIDFrom(r), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONMessage(w, r, "Book deleted successfully")
}

// Stats handles GET /books/stats
// @Summary Collection statistics
// @Tags books
// @Produce json
// @Success 200 {object} httpx.Envelope
// @Router /books/stats [get]
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, stats, nil)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", httpx.DetailsFrom(verr.Fields))
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	default:
		h.log.Error("book request failed",
			logger.String("request_id", httpx.RequestIDFrom(r)),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
