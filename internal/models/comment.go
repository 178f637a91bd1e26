package models

import "time"

type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"` // sanitized HTML
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	ArticleID int64     `json:"article_id"`
	CreatedAt time.Time `json:"created_at"`
}
