// Package client talks to the bookshelf API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/validate"
	"bookshelf/internal/recommend"
)

const defaultTimeout = 15 * time.Second

// APIError is a failed response that is neither a validation error nor a
// missing book.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client is a typed client for the books API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListOptions narrows a listing. Zero values do not filter; a zero Limit
// returns every book.
type ListOptions struct {
	Search   string
	Category string
	Status   book.Status
	Limit    int
	Cursor   string
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Search != "" {
		v.Set("q", o.Search)
	}
	if o.Category != "" {
		v.Set("category", o.Category)
	}
	if o.Status != "" {
		v.Set("status", string(o.Status))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Cursor != "" {
		v.Set("cursor", o.Cursor)
	}
	return v
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []httpx.ErrorDetail `json:"details"`
	Meta    struct {
		NextCursor string `json:"next_cursor"`
	} `json:"meta"`
}

// List returns one page of books and the cursor of the next page, which is
// empty on the last page.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]book.Book, string, error) {
	path := "/books"
	if q := opts.values().Encode(); q != "" {
		path += "?" + q
	}
	var books []book.Book
	env, err := c.do(ctx, http.MethodGet, path, nil, &books)
	if err != nil {
		return nil, "", err
	}
	return books, env.Meta.NextCursor, nil
}

func (c *Client) Get(ctx context.Context, id string) (book.Book, error) {
	var b book.Book
	_, err := c.do(ctx, http.MethodGet, "/books/"+url.PathEscape(id), nil, &b)
	return b, err
}

func (c *Client) Create(ctx context.Context, d book.Draft) (book.Book, error) {
	var b book.Book
	_, err := c.do(ctx, http.MethodPost, "/books", d, &b)
	return b, err
}

func (c *Client) Update(ctx context.Context, id string, p book.Patch) (book.Book, error) {
	var b book.Book
	_, err := c.do(ctx, http.MethodPut, "/books/"+url.PathEscape(id), p, &b)
	return b, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/books/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) Stats(ctx context.Context) (book.Stats, error) {
	var s book.Stats
	_, err := c.do(ctx, http.MethodGet, "/books/stats", nil, &s)
	return s, err
}

// Recommend asks for suggestions based on the caller's stored books.
func (c *Client) Recommend(ctx context.Context) (recommend.Result, error) {
	var res recommend.Result
	_, err := c.do(ctx, http.MethodGet, "/recommendations", nil, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (*envelope, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		return nil, errorFrom(resp.StatusCode, &env)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}
	return &env, nil
}

func errorFrom(status int, env *envelope) error {
	switch status {
	case http.StatusNotFound:
		return book.ErrNotFound
	case http.StatusBadRequest:
		verr := &book.ValidationError{}
		for _, d := range env.Details {
			verr.Fields = append(verr.Fields, validate.FieldError{Field: d.Field, Message: d.Message})
		}
		if len(verr.Fields) == 0 && env.Error != "" {
			verr.Fields = []validate.FieldError{{Message: env.Error}}
		}
		return verr
	default:
		return &APIError{Status: status, Code: env.Code, Message: env.Error}
	}
}
