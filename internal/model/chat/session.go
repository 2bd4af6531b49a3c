package chat

import "time"

// Session captures a transient anonymous conversation owned by one visitor.
// At most one live session exists per visitor token at any time.
type Session struct {
	ID        string    `json:"id"`
	Visitor   string    `json:"-"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
