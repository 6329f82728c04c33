package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned by a generator that has no endpoint.
var ErrNotConfigured = errors.New("recommendation generator not configured")

const systemPrompt = `You recommend books. Reply with a JSON array of at most 4 objects with the keys ` +
	`"title", "author", "reason" (one sentence), "confidence" (integer 1-10) and "genre". ` +
	`Never recommend a book the reader already has. Reply with the JSON array only.`

// ChatGenerator asks an OpenAI-compatible chat-completions endpoint for
// suggestions.
type ChatGenerator struct {
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
}

// NewChatGenerator builds a generator posting to url, the full
// chat-completions endpoint.
func NewChatGenerator(url, apiKey, model string, timeout time.Duration) *ChatGenerator {
	return &ChatGenerator{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		apiKey:     apiKey,
		model:      model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *ChatGenerator) Generate(ctx context.Context, books []BookSummary) ([]Suggestion, error) {
	if g == nil || g.url == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(books)},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, fmt.Errorf("decode chat response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if cr.Error != nil && cr.Error.Message != "" {
			return nil, fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, cr.Error.Message)
		}
		return nil, fmt.Errorf("chat endpoint returned %d", resp.StatusCode)
	}
	if len(cr.Choices) == 0 {
		return nil, errors.New("chat response has no choices")
	}
	return ParseSuggestions(cr.Choices[0].Message.Content)
}

func userPrompt(books []BookSummary) string {
	var sb strings.Builder
	if len(books) == 0 {
		sb.WriteString("I have not added any books yet. Suggest popular, widely loved books.\n")
		return sb.String()
	}
	sb.WriteString("These are the books on my shelf:\n")
	for _, b := range books {
		fmt.Fprintf(&sb, "- %q by %s (%s, %s", b.Title, b.Author, b.Category, b.Status)
		if b.Status == "reading" {
			fmt.Fprintf(&sb, ", %d%%", b.Progress)
		}
		sb.WriteString(")\n")
	}
	sb.WriteString("What should I read next?")
	return sb.String()
}

// ParseSuggestions extracts the JSON array from a model reply. Markdown code
// fences and text around the array are ignored.
func ParseSuggestions(content string) ([]Suggestion, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON array in reply")
	}

	var out []Suggestion
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	return out, nil
}
