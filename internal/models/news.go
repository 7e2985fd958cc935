package models

import "time"

// NewsCategory groups articles
type NewsCategory struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Article is an admin-authored news item
type Article struct {
	ID          int64      `db:"id" json:"id"`
	CategoryID  *int64     `db:"category_id" json:"category_id,omitempty"`
	Title       string     `db:"title" json:"title"`
	Summary     string     `db:"summary" json:"summary"`
	Content     string     `db:"content" json:"content"`
	Source      string     `db:"source" json:"source"`
	Author      string     `db:"author" json:"author"`
	ExternalURL string     `db:"external_url" json:"external_url"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
	IsFeatured  bool       `db:"is_featured" json:"is_featured"`
	ViewCount   int        `db:"view_count" json:"view_count"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// ArticleFilter narrows an article listing
type ArticleFilter struct {
	CategoryID   *int64
	FeaturedOnly bool
	Limit        int
}
