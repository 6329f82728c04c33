package book

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CursorData identifies the last book of a page in created_at DESC, id DESC
// order.
type CursorData struct {
	AfterID   string `json:"after_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// IsZero reports whether the cursor points at the start of the list.
func (c CursorData) IsZero() bool {
	return c.AfterID == ""
}

// CursorFor returns the cursor that continues after b.
func CursorFor(b Book) CursorData {
	return CursorData{
		AfterID:   b.ID,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// EncodeCursor encodes cursor data to a base64 string
func EncodeCursor(data CursorData) string {
	if data.AfterID == "" {
		return ""
	}
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(jsonBytes)
}

// DecodeCursor decodes a base64 cursor string to CursorData
func DecodeCursor(cursor string) (CursorData, error) {
	if cursor == "" {
		return CursorData{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return CursorData{}, err
	}

	var data CursorData
	if err := json.Unmarshal(decoded, &data); err != nil {
		return CursorData{}, err
	}
	if data.AfterID != "" {
		if _, err := uuid.Parse(data.AfterID); err != nil {
			return CursorData{}, err
		}
		if _, err := time.Parse(time.RFC3339Nano, data.CreatedAt); err != nil {
			return CursorData{}, err
		}
	}
	return data, nil
}

// createdAt returns the cursor timestamp; DecodeCursor has already checked it.
func (c CursorData) createdAt() time.Time {
	t, _ := time.Parse(time.RFC3339Nano, c.CreatedAt)
	return t
}
