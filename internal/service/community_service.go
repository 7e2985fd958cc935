package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
	"actuarialhub/internal/repository"
	"actuarialhub/internal/validation"
)

// Live feed event types
const (
	EventPostCreated  = "post_created"
	EventReplyCreated = "reply_created"
	EventPostLiked    = "post_liked"
)

const (
	defaultPostLimit        = 50
	maxPostLimit            = 100
	defaultContributorLimit = 10
	maxTags                 = 10
)

// BadWordFilter finds disallowed words in user text
type BadWordFilter interface {
	FindBadWords(text string) ([]string, error)
}

// Publisher broadcasts community events to live clients
type Publisher interface {
	Publish(eventType string, payload interface{})
}

// PostInput is what a user submits to create a post
type PostInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	PostType string   `json:"post_type"`
	Tags     []string `json:"tags"`
}

// LikeResult is the state of a post's like after a toggle
type LikeResult struct {
	PostID     int64 `json:"post_id"`
	Liked      bool  `json:"liked"`
	LikesCount int   `json:"likes_count"`
}

// CommunityService manages posts, replies and likes
type CommunityService struct {
	db           *database.DB
	community    *repository.CommunityRepository
	achievements *AchievementService
	filter       BadWordFilter
	publisher    Publisher
}

// NewCommunityService creates a new community service. filter and publisher may be nil.
func NewCommunityService(db *database.DB, achievements *AchievementService, filter BadWordFilter, publisher Publisher) *CommunityService {
	return &CommunityService{
		db:           db,
		community:    repository.NewCommunityRepository(db),
		achievements: achievements,
		filter:       filter,
		publisher:    publisher,
	}
}

// CreatePost validates and stores a post, then announces it
func (s *CommunityService) CreatePost(ac *appctx.AppContext, input PostInput) (*models.PostView, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if err := validation.ValidateRequired("title", title, 200); err != nil {
		return nil, err
	}
	if err := validation.ValidateRequired("content", content, 10000); err != nil {
		return nil, err
	}

	postType := strings.ToLower(strings.TrimSpace(input.PostType))
	if postType == "" {
		postType = models.PostTypeDiscussion
	}
	if !models.ValidPostType(postType) {
		return nil, validation.ValidationError{Field: "post_type", Message: "post_type must be question, discussion, study_group or tip"}
	}

	tags := models.JoinTags(input.Tags)
	if len(models.SplitTags(tags)) > maxTags {
		return nil, validation.ValidationError{Field: "tags", Message: fmt.Sprintf("at most %d tags are allowed", maxTags)}
	}
	if err := validation.ValidateMaxLength("tags", tags, 500); err != nil {
		return nil, err
	}

	for _, f := range []struct{ field, text string }{{"title", title}, {"content", content}, {"tags", tags}} {
		if err := s.checkWords(f.field, f.text); err != nil {
			return nil, err
		}
	}

	post := &models.Post{
		UserID:   ac.UserID(),
		Title:    title,
		Content:  content,
		PostType: postType,
		Tags:     tags,
	}
	if err := s.community.CreatePost(post); err != nil {
		return nil, err
	}
	log.Printf("User %d created post %d", ac.UserID(), post.ID)

	if err := s.achievements.RecordActivity(ac.UserID(), models.ActivityPostCreated, map[string]interface{}{
		"post_id": post.ID,
		"title":   post.Title,
	}, 0); err != nil {
		log.Printf("Warning: failed to record post activity: %v", err)
	}
	s.achievements.evaluateQuietly(ac.UserID())

	stored, err := s.community.GetPost(post.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrPostNotFound
	}
	view := toView(*stored, false)
	s.publish(EventPostCreated, view)
	return &view, nil
}

// ListPosts returns posts newest first with the viewer's like flags
func (s *CommunityService) ListPosts(ac *appctx.AppContext, filter models.PostFilter) ([]models.PostView, error) {
	filter.Type = strings.ToLower(strings.TrimSpace(filter.Type))
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))
	if filter.Type != "" && !models.ValidPostType(filter.Type) {
		return nil, validation.ValidationError{Field: "type", Message: "unknown post type"}
	}
	if filter.Limit <= 0 || filter.Limit > maxPostLimit {
		filter.Limit = defaultPostLimit
	}

	posts, err := s.community.ListPosts(filter)
	if err != nil {
		return nil, err
	}
	liked, err := s.community.LikedPostIDs(ac.UserID())
	if err != nil {
		return nil, err
	}

	views := make([]models.PostView, 0, len(posts))
	for _, post := range posts {
		views = append(views, toView(post, liked[post.ID]))
	}
	return views, nil
}

// GetPost returns a post with its replies
func (s *CommunityService) GetPost(ac *appctx.AppContext, id int64) (*models.PostView, error) {
	post, err := s.community.GetPost(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	liked, err := s.community.HasLiked(id, ac.UserID())
	if err != nil {
		return nil, err
	}
	replies, err := s.community.ListReplies(id)
	if err != nil {
		return nil, err
	}

	view := toView(*post, liked)
	view.Replies = replies
	return &view, nil
}

// Reply answers a post
func (s *CommunityService) Reply(ac *appctx.AppContext, postID int64, content string) (*models.Reply, error) {
	content = strings.TrimSpace(content)
	if err := validation.ValidateRequired("content", content, 5000); err != nil {
		return nil, err
	}
	if err := s.checkWords("content", content); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	community := s.community.WithTx(tx)
	post, err := community.GetPost(postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	reply := &models.Reply{PostID: postID, UserID: ac.UserID(), Content: content}
	if err := community.CreateReply(reply); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reply: %w", err)
	}

	if ac.Profile != nil {
		reply.Author = ac.Profile.Username
	}
	s.publish(EventReplyCreated, reply)
	return reply, nil
}

// ToggleLike likes a post, or removes the like if the user already likes it
func (s *CommunityService) ToggleLike(ac *appctx.AppContext, postID int64) (*LikeResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	community := s.community.WithTx(tx)
	post, err := community.GetPost(postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	liked, err := community.HasLiked(postID, ac.UserID())
	if err != nil {
		return nil, err
	}
	if liked {
		err = community.RemoveLike(postID, ac.UserID())
	} else {
		err = community.AddLike(postID, ac.UserID())
	}
	if err != nil {
		return nil, err
	}

	count, err := community.LikesCount(postID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit like: %w", err)
	}

	result := &LikeResult{PostID: postID, Liked: !liked, LikesCount: count}
	s.publish(EventPostLiked, result)
	return result, nil
}

// DeletePost removes a post. Only its author or an admin may delete it.
func (s *CommunityService) DeletePost(ac *appctx.AppContext, id int64) error {
	post, err := s.community.GetPost(id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	if post.UserID != ac.UserID() && !ac.IsAdmin() {
		return ErrForbidden
	}

	if err := s.community.DeletePost(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	log.Printf("Post %d deleted by user %d", id, ac.UserID())
	return nil
}

// TopContributors ranks users by posts plus replies
func (s *CommunityService) TopContributors(limit int) ([]models.Contributor, error) {
	if limit <= 0 || limit > maxPostLimit {
		limit = defaultContributorLimit
	}
	return s.community.TopContributors(limit)
}

// checkWords rejects text containing filtered words
func (s *CommunityService) checkWords(field, text string) error {
	if s.filter == nil || text == "" {
		return nil
	}
	found, err := s.filter.FindBadWords(text)
	if err != nil {
		return err
	}
	if len(found) > 0 {
		return validation.ValidationError{Field: field, Message: "contains inappropriate language"}
	}
	return nil
}

func (s *CommunityService) publish(eventType string, payload interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(eventType, payload)
	}
}

func toView(post models.Post, liked bool) models.PostView {
	return models.PostView{
		Post:      post,
		TagsList:  post.TagList(),
		LikedByMe: liked,
	}
}
