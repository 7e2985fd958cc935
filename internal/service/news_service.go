package service

import (
	"errors"
	"log"
	"strings"
	"time"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/models"
	"actuarialhub/internal/repository"
	"actuarialhub/internal/validation"
)

const maxArticleLimit = 100

// CategoryInput is the editable part of a news category
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

// ArticleInput is the editable part of an article
type ArticleInput struct {
	CategoryID  *int64     `json:"category_id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Content     string     `json:"content"`
	Source      string     `json:"source"`
	Author      string     `json:"author"`
	ExternalURL string     `json:"external_url"`
	PublishedAt *time.Time `json:"published_at"`
	IsFeatured  bool       `json:"is_featured"`
}

// NewsService serves news categories and articles
type NewsService struct {
	news *repository.NewsRepository
}

// NewNewsService creates a new news service
func NewNewsService(newsRepo *repository.NewsRepository) *NewsService {
	return &NewsService{news: newsRepo}
}

// ListCategories returns news categories in display order
func (s *NewsService) ListCategories() ([]models.NewsCategory, error) {
	return s.news.ListCategories()
}

// CreateCategory adds a news category
func (s *NewsService) CreateCategory(ac *appctx.AppContext, input CategoryInput) (*models.NewsCategory, error) {
	if !ac.IsStaff() {
		return nil, ErrForbidden
	}
	name := strings.TrimSpace(input.Name)
	if err := validation.ValidateRequired("name", name, 100); err != nil {
		return nil, err
	}
	if err := validation.ValidateMaxLength("description", input.Description, 500); err != nil {
		return nil, err
	}

	existing, err := s.news.CategoryIDByName(name)
	if err != nil {
		return nil, err
	}
	if existing != 0 {
		return nil, validation.ValidationError{Field: "name", Message: "a category with this name already exists"}
	}

	category := &models.NewsCategory{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		SortOrder:   input.SortOrder,
	}
	if err := s.news.CreateCategory(category); err != nil {
		return nil, err
	}
	log.Printf("News category %d created by user %d", category.ID, ac.UserID())
	return s.news.GetCategory(category.ID)
}

// ListArticles returns articles newest first
func (s *NewsService) ListArticles(filter models.ArticleFilter) ([]models.Article, error) {
	if filter.Limit <= 0 || filter.Limit > maxArticleLimit {
		filter.Limit = maxArticleLimit
	}
	return s.news.ListArticles(filter)
}

// GetArticle returns an article and counts the view
func (s *NewsService) GetArticle(id int64) (*models.Article, error) {
	article, err := s.news.GetArticle(id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, ErrArticleNotFound
	}

	if err := s.news.IncrementViews(id); err != nil {
		log.Printf("Warning: %v", err)
	} else {
		article.ViewCount++
	}
	return article, nil
}

// CreateArticle adds an article
func (s *NewsService) CreateArticle(ac *appctx.AppContext, input ArticleInput) (*models.Article, error) {
	if !ac.IsStaff() {
		return nil, ErrForbidden
	}
	article, err := s.articleFromInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.news.CreateArticle(article); err != nil {
		return nil, err
	}
	log.Printf("Article %d created by user %d", article.ID, ac.UserID())
	return s.news.GetArticle(article.ID)
}

// UpdateArticle replaces an article's editable fields
func (s *NewsService) UpdateArticle(ac *appctx.AppContext, id int64, input ArticleInput) (*models.Article, error) {
	if !ac.IsStaff() {
		return nil, ErrForbidden
	}
	article, err := s.articleFromInput(input)
	if err != nil {
		return nil, err
	}
	article.ID = id
	if err := s.news.UpdateArticle(article); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return s.news.GetArticle(id)
}

// DeleteArticle removes an article
func (s *NewsService) DeleteArticle(ac *appctx.AppContext, id int64) error {
	if !ac.IsStaff() {
		return ErrForbidden
	}
	if err := s.news.DeleteArticle(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrArticleNotFound
		}
		return err
	}
	log.Printf("Article %d deleted by user %d", id, ac.UserID())
	return nil
}

func (s *NewsService) articleFromInput(input ArticleInput) (*models.Article, error) {
	title := strings.TrimSpace(input.Title)
	if err := validation.ValidateRequired("title", title, 200); err != nil {
		return nil, err
	}
	if err := validation.ValidateMaxLength("summary", input.Summary, 1000); err != nil {
		return nil, err
	}
	externalURL := strings.TrimSpace(input.ExternalURL)
	if externalURL != "" {
		if err := validateHTTPURL("external_url", externalURL); err != nil {
			return nil, err
		}
	}

	if input.CategoryID != nil {
		category, err := s.news.GetCategory(*input.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
	}

	return &models.Article{
		CategoryID:  input.CategoryID,
		Title:       title,
		Summary:     strings.TrimSpace(input.Summary),
		Content:     input.Content,
		Source:      strings.TrimSpace(input.Source),
		Author:      strings.TrimSpace(input.Author),
		ExternalURL: externalURL,
		PublishedAt: input.PublishedAt,
		IsFeatured:  input.IsFeatured,
	}, nil
}
