package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/config"
	"bookshelf/internal/platform/logger"
	"bookshelf/internal/platform/openlibrary"
)

func main() {
	var (
		count    = flag.Int("count", 25, "Number of generated demo books")
		subjects = flag.String("subjects", "", "Comma separated Open Library subjects to import real books from")
		perTopic = flag.Int("per-subject", 10, "Books to import per subject")
		owner    = flag.String("owner", "", "User id that owns the seeded books")
	)
	flag.Parse()

	config.LoadEnvFiles()

	log, err := logger.New(os.Getenv("LOG_LEVEL"), true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, config.DSNFromEnv())
	if err != nil {
		log.Fatal("connect to database failed", logger.Error(err))
	}
	defer pool.Close()

	svc := book.NewService(book.NewPostgresRepo(pool, 5*time.Second))
	now := time.Now()
	rng := rand.New(rand.NewSource(now.UnixNano()))

	drafts := generateDrafts(rng, *count, now)
	if *subjects != "" {
		ol := openlibrary.NewClient(userAgent(), 1, 2)
		for _, subject := range strings.Split(*subjects, ",") {
			subject = strings.TrimSpace(subject)
			if subject == "" {
				continue
			}
			res, err := ol.SearchBySubject(ctx, subject, *perTopic)
			if err != nil {
				log.Warn("open library search failed", logger.String("subject", subject), logger.Error(err))
				continue
			}
			imported := draftsFromDocs(rng, subject, res.Docs, now)
			log.Info("fetched books", logger.String("subject", subject), logger.Int("count", len(imported)))
			drafts = append(drafts, imported...)
		}
	}

	created := 0
	for _, d := range drafts {
		if _, err := svc.Create(ctx, *owner, d); err != nil {
			log.Warn("skip book", logger.String("title", d.Title), logger.Error(err))
			continue
		}
		created++
	}
	log.Info("seed complete", logger.Int("created", created), logger.Int("skipped", len(drafts)-created))

	var total int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM books").Scan(&total); err == nil {
		log.Info("total books in database", logger.Int("total", total))
	}
}

func userAgent() string {
	if ua := os.Getenv("OPENLIBRARY_USER_AGENT"); ua != "" {
		return ua
	}
	return "bookshelf-seed/1.0"
}

var categories = []string{"Fiction", "Sci-Fi", "Fantasy", "History", "Science", "Programming", "Mystery", "Biography"}

var authors = []string{
	"Ada Palmer", "Ted Chiang", "Mary Beard", "N. K. Jemisin", "Carl Sagan",
	"Ursula K. Le Guin", "Rebecca Solnit", "Kazuo Ishiguro", "Donald Knuth",
}

// generateDrafts makes n demo books spread over every reading status.
func generateDrafts(rng *rand.Rand, n int, now time.Time) []book.Draft {
	out := make([]book.Draft, 0, n)
	for i := 0; i < n; i++ {
		d := book.Draft{
			Title:    fmt.Sprintf("%s of %s", getRandomWord(rng), getRandomWord(rng)),
			Author:   authors[rng.Intn(len(authors))],
			Category: categories[rng.Intn(len(categories))],
		}
		withReadingState(rng, &d, now)
		out = append(out, d)
	}
	return out
}

// draftsFromDocs turns search results into drafts, skipping results without
// a title or author.
func draftsFromDocs(rng *rand.Rand, subject string, docs []openlibrary.Doc, now time.Time) []book.Draft {
	category := categoryFor(subject)
	out := make([]book.Draft, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Title) == "" || doc.Author() == "" {
			continue
		}
		d := book.Draft{Title: doc.Title, Author: doc.Author(), Category: category}
		if doc.CoverID > 0 {
			u := openlibrary.CoverURL(doc.CoverID)
			d.CoverURL = &u
		}
		withReadingState(rng, &d, now)
		out = append(out, d)
	}
	return out
}

// categoryFor turns "science_fiction" into "Science Fiction".
func categoryFor(subject string) string {
	words := strings.Fields(strings.ReplaceAll(subject, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func withReadingState(rng *rand.Rand, d *book.Draft, now time.Time) {
	started := now.AddDate(0, 0, -rng.Intn(365)).Format(book.DateLayout)
	switch rng.Intn(3) {
	case 0:
		d.ReadingStatus = book.StatusToRead
	case 1:
		d.ReadingStatus = book.StatusReading
		d.ProgressPercentage = 1 + rng.Intn(99)
		d.DateStarted = &started
	default:
		d.ReadingStatus = book.StatusFinished
		finished := now.Format(book.DateLayout)
		d.DateStarted = &started
		d.DateFinished = &finished
	}
}

func getRandomWord(rng *rand.Rand) string {
	words := []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
	return words[rng.Intn(len(words))]
}
