// Package cover stores uploaded book cover images.
package cover

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const namePrefix = "book-cover-"

var (
	// ErrUnsupportedType is returned for content that is not a known image
	// format.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("image too large")
	// ErrEmpty is returned for a zero-byte upload.
	ErrEmpty = errors.New("image is empty")
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

var nameRe = regexp.MustCompile(`^book-cover-[0-9a-f-]{36}\.(jpg|png|gif|webp)$`)

// ValidName reports whether name could have been produced by Store.Save.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

// ContentType returns the MIME type for a stored object's name.
func ContentType(name string) string {
	return contentTypes[strings.TrimPrefix(path.Ext(name), ".")]
}

// Object describes a stored cover.
type Object struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Store names, checks and saves cover images.
type Store struct {
	bucket   Bucket
	maxBytes int64
	baseURL  string
	newID    func() string
}

func NewStore(bucket Bucket, maxBytes int64, publicBaseURL string) *Store {
	return &Store{
		bucket:   bucket,
		maxBytes: maxBytes,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
		newID:    uuid.NewString,
	}
}

// Save sniffs the image type from the first bytes of r and stores at most
// maxBytes of it.
func (s *Store) Save(ctx context.Context, r io.Reader) (Object, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) {
		return Object{}, fmt.Errorf("read image: %w", err)
	}
	if len(head) == 0 {
		return Object{}, ErrEmpty
	}

	ext, ok := extensions[http.DetectContentType(head)]
	if !ok {
		return Object{}, ErrUnsupportedType
	}

	lr := &limitedReader{r: br, n: s.maxBytes}
	name := namePrefix + s.newID() + "." + ext
	if err := s.bucket.Put(ctx, name, lr); err != nil {
		if lr.exceeded {
			return Object{}, ErrTooLarge
		}
		return Object{}, err
	}
	return Object{Name: name, URL: s.URL(name)}, nil
}

// URL is the public address of a stored object.
func (s *Store) URL(name string) string {
	return s.baseURL + "/" + name
}

func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.bucket.Open(ctx, name)
}

// limitedReader fails instead of truncating once more than n bytes are read.
type limitedReader struct {
	r        io.Reader
	n        int64
	exceeded bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n < 0 {
		l.exceeded = true
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.n+1 {
		p = p[:l.n+1]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	if l.n < 0 {
		l.exceeded = true
		return 0, ErrTooLarge
	}
	return n, err
}
