package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const bookColumns = `id, user_id, title, author, category, cover_url, reading_status,
	progress_percentage, date_started, date_finished, reading_notes, created_at, updated_at`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
	tracer  trace.Tracer
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{
		db:      db,
		timeout: timeout,
		tracer:  otel.Tracer("bookshelf/book"),
	}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "book.repo."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (r *PostgresRepo) List(ctx context.Context, q Query) (_ []Book, err error) {
	ctx, span := r.startSpan(ctx, "list",
		attribute.Bool("filter.search", q.Search != ""),
		attribute.String("filter.category", q.Category),
		attribute.String("filter.status", string(q.Status)),
		attribute.Int("limit", q.Limit),
	)
	defer func() { endSpan(span, err) }()

	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.Owner != "" {
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", argn))
		args = append(args, q.Owner)
		argn++
	}

	if q.Category != "" {
		clauses = append(clauses, fmt.Sprintf("category = $%d", argn))
		args = append(args, q.Category)
		argn++
	}

	if q.Status != "" {
		clauses = append(clauses, fmt.Sprintf("reading_status = $%d", argn))
		args = append(args, string(q.Status))
		argn++
	}

	if q.Search != "" {
		clauses = append(clauses, fmt.Sprintf(`(title ILIKE $%d ESCAPE '\' OR author ILIKE $%d ESCAPE '\')`, argn, argn))
		args = append(args, "%"+escapeLike(q.Search)+"%")
		argn++
	}

	if !q.After.IsZero() {
		afterID, perr := uuid.Parse(q.After.AfterID)
		if perr != nil {
			return nil, invalid("cursor", "cursor is malformed")
		}
		clauses = append(clauses, fmt.Sprintf("(created_at, id) < ($%d, $%d)", argn, argn+1))
		args = append(args, q.After.createdAt(), afterID)
		argn += 2
	}

	sql := fmt.Sprintf(`SELECT %s FROM books WHERE %s ORDER BY created_at DESC, id DESC`,
		bookColumns, strings.Join(clauses, " AND "))
	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT $%d", argn)
		args = append(args, q.Limit)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	span.SetAttributes(attribute.Int("result.count", len(out)))
	return out, nil
}

func (r *PostgresRepo) Get(ctx context.Context, owner, id string) (_ Book, err error) {
	ctx, span := r.startSpan(ctx, "get", attribute.String("book.id", id))
	defer func() { endSpan(span, err) }()

	bookID, perr := uuid.Parse(id)
	if perr != nil {
		return Book{}, ErrNotFound
	}

	const query = `SELECT ` + bookColumns + `
		FROM books
		WHERE id = $1 AND ($2 = '' OR user_id = $2)`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, bookID, owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (r *PostgresRepo) Create(ctx context.Context, owner string, d Draft) (_ Book, err error) {
	ctx, span := r.startSpan(ctx, "create", attribute.String("book.category", d.Category))
	defer func() { endSpan(span, err) }()

	const query = `
		INSERT INTO books (user_id, title, author, category, cover_url, reading_status,
		                   progress_percentage, date_started, date_finished, reading_notes,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query,
		owner, d.Title, d.Author, d.Category, d.CoverURL, string(d.ReadingStatus),
		d.ProgressPercentage, dateParam(d.DateStarted), dateParam(d.DateFinished), d.ReadingNotes,
	))
	if err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}
	span.SetAttributes(attribute.String("book.id", b.ID))
	return b, nil
}

func (r *PostgresRepo) Update(ctx context.Context, owner, id string, mutate func(Book) (Book, error)) (_ Book, err error) {
	ctx, span := r.startSpan(ctx, "update", attribute.String("book.id", id))
	defer func() { endSpan(span, err) }()

	bookID, perr := uuid.Parse(id)
	if perr != nil {
		return Book{}, ErrNotFound
	}

	const selectSQL = `SELECT ` + bookColumns + `
		FROM books
		WHERE id = $1 AND ($2 = '' OR user_id = $2)
		FOR UPDATE`

	const updateSQL = `
		UPDATE books SET
			title = $2,
			author = $3,
			category = $4,
			cover_url = $5,
			reading_status = $6,
			progress_percentage = $7,
			date_started = $8,
			date_finished = $9,
			reading_notes = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var updated Book
	err = pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		current, err := scanBook(tx.QueryRow(timeoutCtx, selectSQL, bookID, owner))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		next, err := mutate(current)
		if err != nil {
			return err
		}

		updated, err = scanBook(tx.QueryRow(timeoutCtx, updateSQL, bookID,
			next.Title, next.Author, next.Category, next.CoverURL, string(next.ReadingStatus),
			next.ProgressPercentage, dateParam(next.DateStarted), dateParam(next.DateFinished), next.ReadingNotes,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			return Book{}, err
		}
		return Book{}, fmt.Errorf("update book: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, owner, id string) (err error) {
	ctx, span := r.startSpan(ctx, "delete", attribute.String("book.id", id))
	defer func() { endSpan(span, err) }()

	bookID, perr := uuid.Parse(id)
	if perr != nil {
		return ErrNotFound
	}

	const query = `DELETE FROM books WHERE id = $1 AND ($2 = '' OR user_id = $2)`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	commandTag, err := r.db.Exec(timeoutCtx, query, bookID, owner)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping reports whether the database answers.
func (r *PostgresRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.Ping(timeoutCtx)
}

func scanBook(row pgx.Row) (Book, error) {
	var (
		b        Book
		status   string
		started  pgtype.Date
		finished pgtype.Date
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.Title, &b.Author, &b.Category, &b.CoverURL, &status,
		&b.ProgressPercentage, &started, &finished, &b.ReadingNotes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return Book{}, err
	}
	b.ReadingStatus = Status(status)
	b.DateStarted = dateValue(started)
	b.DateFinished = dateValue(finished)
	return b, nil
}

func dateParam(s *string) pgtype.Date {
	if s == nil {
		return pgtype.Date{}
	}
	t, err := time.Parse(DateLayout, *s)
	if err != nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}

func dateValue(d pgtype.Date) *string {
	if !d.Valid {
		return nil
	}
	s := d.Time.Format(DateLayout)
	return &s
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
