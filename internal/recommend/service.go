package recommend

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bookshelf/internal/platform/logger"
)

const coverLookupTimeout = 3 * time.Second

type Service struct {
	gen      Generator
	covers   CoverFinder
	fallback *Fallback
	log      logger.Logger
	tracer   trace.Tracer
}

// NewService wires a recommender. gen and covers may be nil: without a
// generator every result comes from the fallback lists, and without a
// cover finder suggestions keep whatever cover URL they already have.
func NewService(gen Generator, covers CoverFinder, fallback *Fallback, log logger.Logger) *Service {
	if fallback == nil {
		fallback = DefaultFallback()
	}
	return &Service{
		gen:      gen,
		covers:   covers,
		fallback: fallback,
		log:      log,
		tracer:   otel.Tracer("bookshelf/recommend"),
	}
}

// Recommend returns up to MaxSuggestions suggestions for a reader owning
// books. It does not fail: generation problems fall back to the fixed list
// for the reader's preferred genre.
func (s *Service) Recommend(ctx context.Context, owned []BookSummary) Result {
	ctx, span := s.tracer.Start(ctx, "recommend.recommend", trace.WithAttributes(attribute.Int("books", len(owned))))
	defer span.End()

	genre := PreferredGenre(owned)
	res := Result{Genre: genre}

	if s.gen != nil {
		raw, err := s.gen.Generate(ctx, owned)
		switch {
		case err == nil:
			res.Suggestions = normalize(raw, owned)
		case errors.Is(err, ErrNotConfigured):
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.log.Warn("recommendation generation failed, using fallback", logger.Error(err))
		}
	}

	if len(res.Suggestions) > 0 {
		res.Source = SourceGenerated
	} else {
		res.Source = SourceFallback
		res.Suggestions = s.fallbackFor(genre, owned)
		list := s.fallback.Key(genre)
		span.SetAttributes(attribute.String("fallback.list", list))
		s.log.Debug("serving fallback suggestions", logger.String("list", list), logger.String("genre", genre))
	}
	span.SetAttributes(attribute.String("source", string(res.Source)))

	s.resolveCovers(ctx, res.Suggestions)
	return res
}

// fallbackFor prefers suggestions the reader does not own, but never comes
// back empty.
func (s *Service) fallbackFor(genre string, owned []BookSummary) []Suggestion {
	list := s.fallback.For(genre)
	if out := normalize(list, owned); len(out) > 0 {
		return out
	}
	return normalize(list, nil)
}

func (s *Service) resolveCovers(ctx context.Context, suggestions []Suggestion) {
	if s.covers == nil {
		return
	}
	for i := range suggestions {
		if suggestions[i].CoverURL != "" {
			continue
		}
		lookupCtx, cancel := context.WithTimeout(ctx, coverLookupTimeout)
		url, err := s.covers.FindCover(lookupCtx, suggestions[i].Title, suggestions[i].Author)
		cancel()
		if err != nil {
			s.log.Debug("cover lookup failed",
				logger.String("title", suggestions[i].Title),
				logger.Error(err))
			continue
		}
		suggestions[i].CoverURL = url
	}
}
