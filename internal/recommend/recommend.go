// Package recommend suggests what to read next from the books a user
// already tracks. Suggestions come from a chat-completion model when one is
// configured and from fixed per-genre lists otherwise.
package recommend

import (
	"context"
	"strings"

	"bookshelf/internal/book"
)

// MaxSuggestions caps every result.
const MaxSuggestions = 4

// Source tells where a Result came from.
type Source string

const (
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

type Suggestion struct {
	Title      string `json:"title" yaml:"title"`
	Author     string `json:"author" yaml:"author"`
	Reason     string `json:"reason" yaml:"reason"`
	Confidence int    `json:"confidence" yaml:"confidence"`
	Genre      string `json:"genre" yaml:"genre"`
	CoverURL   string `json:"cover_url,omitempty" yaml:"cover_url,omitempty"`
}

// Result is never empty.
type Result struct {
	Suggestions []Suggestion `json:"suggestions"`
	Source      Source       `json:"source"`
	Genre       string       `json:"preferred_genre"`
}

// BookSummary is what a generator is told about one owned book.
type BookSummary struct {
	Title    string      `json:"title"`
	Author   string      `json:"author"`
	Category string      `json:"category"`
	Status   book.Status `json:"reading_status"`
	Progress int         `json:"progress_percentage"`
}

func Summaries(books []book.Book) []BookSummary {
	out := make([]BookSummary, len(books))
	for i, b := range books {
		out[i] = BookSummary{
			Title:    b.Title,
			Author:   b.Author,
			Category: b.Category,
			Status:   b.ReadingStatus,
			Progress: b.ProgressPercentage,
		}
	}
	return out
}

// Generator produces raw suggestions. Results are cleaned up by the Service.
type Generator interface {
	Generate(ctx context.Context, books []BookSummary) ([]Suggestion, error)
}

// CoverFinder resolves a cover image URL for a title and author.
type CoverFinder interface {
	FindCover(ctx context.Context, title, author string) (string, error)
}

// normalize drops suggestions without a title or author, or for books the
// user already has, clamps confidence to 1..10 and keeps at most
// MaxSuggestions.
func normalize(in []Suggestion, owned []BookSummary) []Suggestion {
	have := make(map[string]struct{}, len(owned))
	for _, b := range owned {
		have[titleKey(b.Title)] = struct{}{}
	}

	out := make([]Suggestion, 0, MaxSuggestions)
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s.Title = strings.TrimSpace(s.Title)
		s.Author = strings.TrimSpace(s.Author)
		s.Reason = strings.TrimSpace(s.Reason)
		s.Genre = strings.TrimSpace(s.Genre)
		s.CoverURL = strings.TrimSpace(s.CoverURL)
		if s.Title == "" || s.Author == "" {
			continue
		}
		k := titleKey(s.Title)
		if _, ok := have[k]; ok {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		s.Confidence = min(max(s.Confidence, 1), 10)
		out = append(out, s)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

func titleKey(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
