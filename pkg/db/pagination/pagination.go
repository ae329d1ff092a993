package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

type Pagination struct {
	PageToken string `form:"page_token" json:"page_token"`
	PageSize  int    `form:"page_size" json:"page_size"`
}

// Normalize clamps the page size.
func (p Pagination) Normalize() Pagination {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	p.PageToken = strings.TrimSpace(p.PageToken)
	return p
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

// Cursor points at the last row of the previous page. Rows are ordered by id desc.
type Cursor struct {
	ID int64 `json:"id"`
}

func EncodeCursor(c Cursor) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func DecodeCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidPageToken
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == 0 {
		return nil, ErrInvalidPageToken
	}
	return &c, nil
}

// BuildCursorPageInfo expects items to hold up to pageSize+1 rows; the extra
// row only signals that another page exists.
func BuildCursorPageInfo[T any](items []T, pageSize int, cursorOf func(T) int64) (PageInfo, []T) {
	if pageSize <= 0 || len(items) <= pageSize {
		return PageInfo{}, items
	}
	items = items[:pageSize]
	token, err := EncodeCursor(Cursor{ID: cursorOf(items[len(items)-1])})
	if err != nil {
		return PageInfo{HasMore: true}, items
	}
	return PageInfo{NextPageToken: token, HasMore: true}, items
}
