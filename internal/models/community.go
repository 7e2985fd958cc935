package models

import (
	"strings"
	"time"
)

// Post types
const (
	PostTypeQuestion   = "question"
	PostTypeDiscussion = "discussion"
	PostTypeStudyGroup = "study_group"
	PostTypeTip        = "tip"
)

// Post is a community board thread
type Post struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Author       string    `db:"author" json:"author"`
	AuthorRank   string    `db:"author_rank" json:"author_rank"`
	Title        string    `db:"title" json:"title"`
	Content      string    `db:"content" json:"content"`
	PostType     string    `db:"post_type" json:"post_type"`
	Tags         string    `db:"tags" json:"-"`
	LikesCount   int       `db:"likes_count" json:"likes_count"`
	RepliesCount int       `db:"replies_count" json:"replies_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TagList returns the stored comma separated tags as a slice
func (p *Post) TagList() []string {
	return SplitTags(p.Tags)
}

// PostView is a post as seen by one user
type PostView struct {
	Post
	TagsList  []string `json:"tags"`
	LikedByMe bool     `json:"liked_by_me"`
	Replies   []Reply  `json:"replies,omitempty"`
}

// Reply is an answer to a post
type Reply struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Author    string    `db:"author" json:"author"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Contributor is a user ranked by community activity
type Contributor struct {
	UserID        int64  `db:"user_id" json:"user_id"`
	Username      string `db:"username" json:"username"`
	CommunityRank string `db:"community_rank" json:"community_rank"`
	Posts         int    `db:"posts" json:"posts"`
	Replies       int    `db:"replies" json:"replies"`
	Contributions int    `db:"contributions" json:"contributions"`
}

// PostFilter narrows a post listing
type PostFilter struct {
	Type  string
	Tag   string
	Limit int
}

// ValidPostType reports whether t is a known post type
func ValidPostType(t string) bool {
	switch t {
	case PostTypeQuestion, PostTypeDiscussion, PostTypeStudyGroup, PostTypeTip:
		return true
	}
	return false
}

// SplitTags parses a comma separated tag string into unique lower-case tags
func SplitTags(raw string) []string {
	seen := make(map[string]bool)
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// JoinTags normalises tags into the stored comma separated form
func JoinTags(tags []string) string {
	return strings.Join(SplitTags(strings.Join(tags, ",")), ",")
}
