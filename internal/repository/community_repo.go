package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
)

const postSelect = `
	SELECT p.id, p.user_id, COALESCE(pr.username, '') AS author,
		COALESCE(pr.community_rank, '') AS author_rank, p.title, p.content, p.post_type, p.tags,
		p.likes_count, p.replies_count, p.created_at, p.updated_at
	FROM community_posts p
	LEFT JOIN profiles pr ON pr.user_id = p.user_id
`

// CommunityRepository handles posts, replies and likes
type CommunityRepository struct {
	db database.DBTX
}

// NewCommunityRepository creates a new community repository
func NewCommunityRepository(db database.DBTX) *CommunityRepository {
	return &CommunityRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *CommunityRepository) WithTx(tx *database.Tx) *CommunityRepository {
	return &CommunityRepository{db: tx}
}

// CreatePost inserts a post and sets its ID
func (r *CommunityRepository) CreatePost(p *models.Post) error {
	query := `
		INSERT INTO community_posts (user_id, title, content, post_type, tags, likes_count, replies_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, p.UserID, p.Title, p.Content, p.PostType, p.Tags, p.LikesCount, p.RepliesCount)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	p.ID = id
	return nil
}

// GetPost retrieves a post with its author
func (r *CommunityRepository) GetPost(id int64) (*models.Post, error) {
	post := &models.Post{}
	err := r.db.Get(post, postSelect+" WHERE p.id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// ListPosts returns posts newest first. The tag filter matches whole tags.
func (r *CommunityRepository) ListPosts(filter models.PostFilter) ([]models.Post, error) {
	query := postSelect + " WHERE 1 = 1"
	var args []interface{}

	if filter.Type != "" {
		query += " AND p.post_type = ?"
		args = append(args, filter.Type)
	}
	if filter.Tag != "" {
		tag := escapeLike(filter.Tag)
		query += " AND (p.tags = ? OR p.tags LIKE ? ESCAPE '!' OR p.tags LIKE ? ESCAPE '!' OR p.tags LIKE ? ESCAPE '!')"
		args = append(args, filter.Tag, tag+",%", "%,"+tag, "%,"+tag+",%")
	}
	query += " ORDER BY p.created_at DESC, p.id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	posts := []models.Post{}
	if err := r.db.Select(&posts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

// DeletePost removes a post with its replies and likes
func (r *CommunityRepository) DeletePost(id int64) error {
	result, err := r.db.Exec("DELETE FROM community_posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return expectOneRow(result, "post")
}

// CountPosts returns the number of posts
func (r *CommunityRepository) CountPosts() (int, error) {
	var count int
	if err := r.db.Get(&count, "SELECT COUNT(*) FROM community_posts"); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// CountPostsByUser returns how many posts a user wrote
func (r *CommunityRepository) CountPostsByUser(userID int64) (int, error) {
	var count int
	if err := r.db.Get(&count, "SELECT COUNT(*) FROM community_posts WHERE user_id = ?", userID); err != nil {
		return 0, fmt.Errorf("failed to count user posts: %w", err)
	}
	return count, nil
}

// CreateReply inserts a reply and bumps the post's reply counter
func (r *CommunityRepository) CreateReply(reply *models.Reply) error {
	query := "INSERT INTO community_replies (post_id, user_id, content) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(query, reply.PostID, reply.UserID, reply.Content)
	if err != nil {
		return fmt.Errorf("failed to create reply: %w", err)
	}
	reply.ID = id

	update := "UPDATE community_posts SET replies_count = replies_count + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(update, reply.PostID); err != nil {
		return fmt.Errorf("failed to count reply: %w", err)
	}
	return nil
}

// ListReplies returns a post's replies oldest first
func (r *CommunityRepository) ListReplies(postID int64) ([]models.Reply, error) {
	replies := []models.Reply{}
	query := `
		SELECT r.id, r.post_id, r.user_id, COALESCE(pr.username, '') AS author, r.content, r.created_at
		FROM community_replies r
		LEFT JOIN profiles pr ON pr.user_id = r.user_id
		WHERE r.post_id = ?
		ORDER BY r.created_at, r.id
	`
	if err := r.db.Select(&replies, query, postID); err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return replies, nil
}

// HasLiked reports whether userID likes postID
func (r *CommunityRepository) HasLiked(postID, userID int64) (bool, error) {
	var count int
	err := r.db.Get(&count, "SELECT COUNT(*) FROM community_likes WHERE post_id = ? AND user_id = ?", postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return count > 0, nil
}

// LikedPostIDs returns the set of posts a user likes
func (r *CommunityRepository) LikedPostIDs(userID int64) (map[int64]bool, error) {
	var ids []int64
	if err := r.db.Select(&ids, "SELECT post_id FROM community_likes WHERE user_id = ?", userID); err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	liked := make(map[int64]bool, len(ids))
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// AddLike records a like and bumps the counter
func (r *CommunityRepository) AddLike(postID, userID int64) error {
	if _, err := r.db.Exec("INSERT INTO community_likes (post_id, user_id) VALUES (?, ?)", postID, userID); err != nil {
		return fmt.Errorf("failed to add like: %w", err)
	}
	return r.adjustLikes(postID, 1)
}

// RemoveLike deletes a like and lowers the counter
func (r *CommunityRepository) RemoveLike(postID, userID int64) error {
	result, err := r.db.Exec("DELETE FROM community_likes WHERE post_id = ? AND user_id = ?", postID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove like: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil || rows == 0 {
		return err
	}
	return r.adjustLikes(postID, -1)
}

func (r *CommunityRepository) adjustLikes(postID int64, delta int) error {
	query := "UPDATE community_posts SET likes_count = likes_count + ? WHERE id = ?"
	if _, err := r.db.Exec(query, delta, postID); err != nil {
		return fmt.Errorf("failed to update like count: %w", err)
	}
	return nil
}

// LikesCount returns a post's like counter
func (r *CommunityRepository) LikesCount(postID int64) (int, error) {
	var count int
	if err := r.db.Get(&count, "SELECT likes_count FROM community_posts WHERE id = ?", postID); err != nil {
		return 0, fmt.Errorf("failed to read like count: %w", err)
	}
	return count, nil
}

// TopContributors ranks users by posts plus replies
func (r *CommunityRepository) TopContributors(limit int) ([]models.Contributor, error) {
	query := `
		SELECT user_id, username, community_rank, posts, replies, posts + replies AS contributions
		FROM (
			SELECT pr.user_id, pr.username, pr.community_rank,
				(SELECT COUNT(*) FROM community_posts p WHERE p.user_id = pr.user_id) AS posts,
				(SELECT COUNT(*) FROM community_replies r WHERE r.user_id = pr.user_id) AS replies
			FROM profiles pr
		) c
		WHERE posts + replies > 0
		ORDER BY contributions DESC, username
		LIMIT ?
	`
	contributors := []models.Contributor{}
	if err := r.db.Select(&contributors, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list contributors: %w", err)
	}
	return contributors, nil
}
