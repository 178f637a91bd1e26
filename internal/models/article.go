package models

import "time"

type Article struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"` // sanitized HTML
	AuthorID       int64     `json:"author_id"`
	AuthorUsername string    `json:"author_username,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
