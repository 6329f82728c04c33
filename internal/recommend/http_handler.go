package recommend

import (
	"context"
	"net/http"

	"bookshelf/internal/book"
	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/logger"
)

// BookLister loads the caller's books.
type BookLister interface {
	List(ctx context.Context, q book.Query) ([]book.Book, error)
}

type HTTPHandler struct {
	service *Service
	books   BookLister
	log     logger.Logger
}

func NewHTTPHandler(service *Service, books BookLister, log logger.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, books: books, log: log}
}

// RecommendReq lets a caller describe a shelf instead of using the stored
// one.
type RecommendReq struct {
	Books []BookSummary `json:"books"`
}

// Get handles GET /recommendations
// @Summary Recommendations for the caller's stored books
// @Tags recommendations
// @Produce json
// @Success 200 {object} httpx.Envelope
// @Router /recommendations [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, nil)
}

// Post handles POST /recommendations. An empty body or an empty books list
// falls back to the stored books.
// @Summary Recommendations for a given list of books
// @Tags recommendations
// @Accept json
// @Produce json
// @Param request body RecommendReq false "Books to base suggestions on"
// @Success 200 {object} httpx.Envelope
// @Router /recommendations [post]
func (h *HTTPHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req RecommendReq
	if r.ContentLength != 0 {
		if !httpx.DecodeJSON(w, r, &req) {
			return
		}
	}
	h.respond(w, r, req.Books)
}

func (h *HTTPHandler) respond(w http.ResponseWriter, r *http.Request, given []BookSummary) {
	owned := given
	if len(owned) == 0 {
		books, err := h.books.List(r.Context(), book.Query{Owner: httpx.UserIDFrom(r)})
		if err != nil {
			h.log.Error("load books for recommendations failed",
				logger.String("request_id", httpx.RequestIDFrom(r)),
				logger.Error(err))
			httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
			return
		}
		owned = Summaries(books)
	}

	res := h.service.Recommend(r.Context(), owned)
	httpx.JSONSuccess(w, r, res, map[string]any{"count": len(res.Suggestions)})
}
