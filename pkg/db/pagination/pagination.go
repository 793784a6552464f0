package pagination

import (
	"encoding/base64"
	"encoding/json"
)

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=20" validate:"gte=1,lte=250"`
}

// Cursor marks the last row of a page. Tokens are opaque to clients.
type Cursor struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(cursor Cursor) string {
	b, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeCursor(token string) (*Cursor, error) {
	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}

// BuildCursorPageInfo expects rows fetched with limit+1 so it can detect a
// following page. It returns the rows trimmed to limit and the page info.
func BuildCursorPageInfo[T any](rows []*T, limit int, extractCursor func(*T) string) ([]*T, PageInfo) {
	if len(rows) == 0 {
		return rows, PageInfo{}
	}

	info := PageInfo{}
	if len(rows) > limit {
		info.HasMore = true
		rows = rows[:limit]
	}
	info.NextPageToken = extractCursor(rows[len(rows)-1])

	return rows, info
}
