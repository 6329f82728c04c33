// Package dashboard renders an HTML summary of a reader's shelf.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/logger"
	"bookshelf/internal/shelf"
)

//go:embed templates/*.html
var templateFS embed.FS

// BookLister loads the caller's books.
type BookLister interface {
	List(ctx context.Context, q book.Query) ([]book.Book, error)
}

// Chip is one category filter link.
type Chip struct {
	Label  string
	Href   string
	Active bool
}

// Page is the data handed to the template.
type Page struct {
	Stats      book.Stats
	Filters    shelf.Filters
	View       shelf.ViewMode
	Categories []Chip
	Statuses   []book.Status
	Books      []book.Book
	Total      int
	Year       int
	ListHref   string
	GridHref   string
	ClearHref  string
}

type Handler struct {
	books BookLister
	log   logger.Logger
	tmpl  *template.Template
	now   func() time.Time
}

func NewHandler(books BookLister, log logger.Logger) *Handler {
	tmpl := template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
		"statusLabel": statusLabel,
		"percent":     func(f float64) string { return fmt.Sprintf("%.0f%%", f) },
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}).ParseFS(templateFS, "templates/dashboard.html"))

	return &Handler{books: books, log: log, tmpl: tmpl, now: time.Now}
}

// ServeHTTP handles GET /dashboard. Unknown status or view values are
// ignored rather than rejected.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.List(r.Context(), book.Query{Owner: httpx.UserIDFrom(r)})
	if err != nil {
		h.log.Error("load books for dashboard failed",
			logger.String("request_id", httpx.RequestIDFrom(r)),
			logger.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	page := h.build(books, r.URL.Query())

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, page); err != nil {
		h.log.Error("render dashboard failed", logger.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (h *Handler) build(books []book.Book, q url.Values) Page {
	st := shelf.New()
	st.ReplaceAll(books)

	st.SetSearchQuery(strings.TrimSpace(q.Get("q")))
	st.SetCategoryFilter(q.Get("category"))
	if status, err := book.ParseStatus(q.Get("status")); err == nil {
		st.SetStatusFilter(status)
	}
	if view, ok := shelf.ParseViewMode(q.Get("view")); ok {
		st.SetViewMode(view)
	}

	now := h.now()
	filters := st.Filters()
	view := st.ViewMode()

	page := Page{
		Stats:     book.ComputeStats(st.Books(), now),
		Filters:   filters,
		View:      view,
		Statuses:  book.Statuses,
		Books:     st.FilteredBooks(),
		Total:     st.Len(),
		Year:      now.Year(),
		ListHref:  href(filters, shelf.ViewList),
		GridHref:  href(filters, shelf.ViewGrid),
		ClearHref: href(shelf.Filters{}, view),
	}

	page.Categories = append(page.Categories, Chip{
		Label:  "All",
		Href:   href(withCategory(filters, ""), view),
		Active: filters.Category == "",
	})
	for _, c := range st.Categories() {
		page.Categories = append(page.Categories, Chip{
			Label:  c,
			Href:   href(withCategory(filters, c), view),
			Active: filters.Category == c,
		})
	}
	return page
}

func withCategory(f shelf.Filters, c string) shelf.Filters {
	f.Category = c
	return f
}

func href(f shelf.Filters, view shelf.ViewMode) string {
	v := url.Values{}
	if f.Search != "" {
		v.Set("q", f.Search)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if view != shelf.ViewGrid {
		v.Set("view", string(view))
	}
	if len(v) == 0 {
		return "?"
	}
	return "?" + v.Encode()
}

func statusLabel(s book.Status) string {
	switch s {
	case book.StatusReading:
		return "Reading"
	case book.StatusFinished:
		return "Finished"
	default:
		return "To read"
	}
}
