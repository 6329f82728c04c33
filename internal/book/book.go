package book

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bookshelf/internal/platform/validate"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrValidation is the sentinel wrapped by every ValidationError.
	ErrValidation = errors.New("invalid book")
)

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []validate.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: []validate.FieldError{{Field: field, Message: msg}}}
}

// Status is the reading status of a book.
type Status string

const (
	StatusToRead   Status = "to-read"
	StatusReading  Status = "reading"
	StatusFinished Status = "finished"
)

// Statuses lists every reading status in display order.
var Statuses = []Status{StatusToRead, StatusReading, StatusFinished}

func (s Status) Valid() bool {
	switch s {
	case StatusToRead, StatusReading, StatusFinished:
		return true
	default:
		return false
	}
}

// ParseStatus accepts a status in any letter case, with or without
// surrounding whitespace.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid status: %s", s)
	}
	return st, nil
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Book represents one tracked title.
type Book struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id,omitempty"`
	Title              string    `json:"title"`
	Author             string    `json:"author"`
	Category           string    `json:"category"`
	CoverURL           *string   `json:"cover_url,omitempty"`
	ReadingStatus      Status    `json:"reading_status"`
	ProgressPercentage int       `json:"progress_percentage"`
	DateStarted        *string   `json:"date_started,omitempty"`
	DateFinished       *string   `json:"date_finished,omitempty"`
	ReadingNotes       *string   `json:"reading_notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ReadingState groups the fields that must agree with each other.
type ReadingState struct {
	Status   Status
	Progress int
	Started  *string
	Finished *string
}

// Reconcile makes the state self-consistent: finished books are at 100%
// with both dates set, books being read have a start date and no finish
// date, and unread books are at 0% with no dates. Missing dates become the
// calendar day of now.
func (rs ReadingState) Reconcile(now time.Time) ReadingState {
	today := now.Format(DateLayout)
	switch rs.Status {
	case StatusFinished:
		rs.Progress = 100
		if rs.Started == nil {
			rs.Started = &today
		}
		if rs.Finished == nil {
			f := today
			rs.Finished = &f
		}
	case StatusReading:
		rs.Progress = min(max(rs.Progress, 0), 100)
		if rs.Started == nil {
			rs.Started = &today
		}
		rs.Finished = nil
	default:
		rs.Status = StatusToRead
		rs.Progress = 0
		rs.Started = nil
		rs.Finished = nil
	}
	return rs
}

func (b Book) readingState() ReadingState {
	return ReadingState{
		Status:   b.ReadingStatus,
		Progress: b.ProgressPercentage,
		Started:  b.DateStarted,
		Finished: b.DateFinished,
	}
}

func (b *Book) setReadingState(rs ReadingState) {
	b.ReadingStatus = rs.Status
	b.ProgressPercentage = rs.Progress
	b.DateStarted = rs.Started
	b.DateFinished = rs.Finished
}

// Draft carries the fields of a book that does not exist yet.
type Draft struct {
	Title              string  `json:"title" validate:"notblank,max=500"`
	Author             string  `json:"author" validate:"notblank,max=300"`
	Category           string  `json:"category" validate:"notblank,max=100"`
	CoverURL           *string `json:"cover_url,omitempty" validate:"omitempty,url"`
	ReadingStatus      Status  `json:"reading_status,omitempty" validate:"oneof=to-read reading finished"`
	ProgressPercentage int     `json:"progress_percentage" validate:"gte=0,lte=100"`
	DateStarted        *string `json:"date_started,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateFinished       *string `json:"date_finished,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ReadingNotes       *string `json:"reading_notes,omitempty" validate:"omitempty,max=10000"`
}

// Normalize trims the draft, applies defaults, validates it and reconciles
// its reading state. It is the only way a Draft should reach storage.
func (d Draft) Normalize(now time.Time) (Draft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Author = strings.TrimSpace(d.Author)
	d.Category = strings.TrimSpace(d.Category)
	d.CoverURL = trimOptional(d.CoverURL)
	d.DateStarted = trimOptional(d.DateStarted)
	d.DateFinished = trimOptional(d.DateFinished)
	d.ReadingNotes = trimOptional(d.ReadingNotes)
	if d.ReadingStatus == "" {
		d.ReadingStatus = StatusToRead
	}

	if fields := validate.Struct(d); len(fields) > 0 {
		return Draft{}, &ValidationError{Fields: fields}
	}

	rs := ReadingState{
		Status:   d.ReadingStatus,
		Progress: d.ProgressPercentage,
		Started:  d.DateStarted,
		Finished: d.DateFinished,
	}.Reconcile(now)
	d.ReadingStatus = rs.Status
	d.ProgressPercentage = rs.Progress
	d.DateStarted = rs.Started
	d.DateFinished = rs.Finished
	return d, nil
}

// Patch names the fields an update changes; nil fields are left alone.
// A non-nil optional field holding "" clears that field.
type Patch struct {
	Title              *string `json:"title,omitempty"`
	Author             *string `json:"author,omitempty"`
	Category           *string `json:"category,omitempty"`
	CoverURL           *string `json:"cover_url,omitempty"`
	ReadingStatus      *Status `json:"reading_status,omitempty"`
	ProgressPercentage *int    `json:"progress_percentage,omitempty"`
	DateStarted        *string `json:"date_started,omitempty"`
	DateFinished       *string `json:"date_finished,omitempty"`
	ReadingNotes       *string `json:"reading_notes,omitempty"`
}

// IsEmpty reports whether the patch names no field at all.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

func (p Patch) touchesReadingState() bool {
	return p.ReadingStatus != nil || p.ProgressPercentage != nil ||
		p.DateStarted != nil || p.DateFinished != nil
}

// Validate trims the patch and checks every named field.
func (p Patch) Validate() (Patch, error) {
	var fields []validate.FieldError
	add := func(ve *ValidationError) { fields = append(fields, ve.Fields...) }

	for _, f := range []struct {
		name string
		val  **string
	}{{"title", &p.Title}, {"author", &p.Author}, {"category", &p.Category}} {
		if *f.val == nil {
			continue
		}
		s := strings.TrimSpace(**f.val)
		*f.val = &s
		if s == "" {
			add(invalid(f.name, f.name+" is required"))
		}
	}

	for _, f := range []**string{&p.CoverURL, &p.DateStarted, &p.DateFinished, &p.ReadingNotes} {
		if *f != nil {
			s := strings.TrimSpace(**f)
			*f = &s
		}
	}

	if p.CoverURL != nil && *p.CoverURL != "" {
		if u, err := url.ParseRequestURI(*p.CoverURL); err != nil || u.Scheme == "" || u.Host == "" {
			add(invalid("cover_url", "cover_url must be a valid URL"))
		}
	}
	if p.ReadingStatus != nil && !p.ReadingStatus.Valid() {
		add(invalid("reading_status", "reading_status must be one of: to-read, reading, finished"))
	}
	if p.ProgressPercentage != nil && (*p.ProgressPercentage < 0 || *p.ProgressPercentage > 100) {
		add(invalid("progress_percentage", "progress_percentage must be between 0 and 100"))
	}
	for _, f := range []struct {
		name string
		val  *string
	}{{"date_started", p.DateStarted}, {"date_finished", p.DateFinished}} {
		if f.val == nil || *f.val == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, *f.val); err != nil {
			add(invalid(f.name, f.name+" must be a date in the form "+DateLayout))
		}
	}

	if len(fields) > 0 {
		return Patch{}, &ValidationError{Fields: fields}
	}
	return p, nil
}

// Apply merges p into b and then reconciles reading state when p names one
// of its fields, so a patch that touches nothing else changes exactly what
// it names.
func (b Book) Apply(p Patch, now time.Time) Book {
	b = b.Merge(p)
	if p.touchesReadingState() {
		b.setReadingState(b.readingState().Reconcile(now))
	}
	return b
}

// Merge returns a copy of b with the named fields of p copied in and every
// other field untouched. No consistency rule is applied.
func (b Book) Merge(p Patch) Book {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.CoverURL != nil {
		b.CoverURL = optional(*p.CoverURL)
	}
	if p.ReadingNotes != nil {
		b.ReadingNotes = optional(*p.ReadingNotes)
	}
	if p.ReadingStatus != nil {
		b.ReadingStatus = *p.ReadingStatus
	}
	if p.ProgressPercentage != nil {
		b.ProgressPercentage = *p.ProgressPercentage
	}
	if p.DateStarted != nil {
		b.DateStarted = optional(*p.DateStarted)
	}
	if p.DateFinished != nil {
		b.DateFinished = optional(*p.DateFinished)
	}
	return b
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	return optional(strings.TrimSpace(*s))
}
