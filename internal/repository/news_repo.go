package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
)

const articleColumns = `id, category_id, title, summary, content, source, author, external_url,
	published_at, is_featured, view_count, created_at, updated_at`

// NewsRepository handles news categories and articles
type NewsRepository struct {
	db database.DBTX
}

// NewNewsRepository creates a new news repository
func NewNewsRepository(db database.DBTX) *NewsRepository {
	return &NewsRepository{db: db}
}

// ListCategories returns news categories in display order
func (r *NewsRepository) ListCategories() ([]models.NewsCategory, error) {
	categories := []models.NewsCategory{}
	query := "SELECT id, name, description, sort_order, created_at FROM news_categories ORDER BY sort_order, name"
	if err := r.db.Select(&categories, query); err != nil {
		return nil, fmt.Errorf("failed to list news categories: %w", err)
	}
	return categories, nil
}

// GetCategory retrieves a news category
func (r *NewsRepository) GetCategory(id int64) (*models.NewsCategory, error) {
	category := &models.NewsCategory{}
	err := r.db.Get(category, "SELECT id, name, description, sort_order, created_at FROM news_categories WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get news category: %w", err)
	}
	return category, nil
}

// CategoryIDByName looks up a category by name, returning 0 when absent
func (r *NewsRepository) CategoryIDByName(name string) (int64, error) {
	var id int64
	err := r.db.Get(&id, "SELECT id FROM news_categories WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find news category: %w", err)
	}
	return id, nil
}

// CreateCategory inserts a news category and sets its ID
func (r *NewsRepository) CreateCategory(c *models.NewsCategory) error {
	query := "INSERT INTO news_categories (name, description, sort_order) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(query, c.Name, c.Description, c.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to create news category: %w", err)
	}
	c.ID = id
	return nil
}

// ListArticles returns articles newest first. Unpublished articles sort last.
func (r *NewsRepository) ListArticles(filter models.ArticleFilter) ([]models.Article, error) {
	query := "SELECT " + articleColumns + " FROM news_articles WHERE 1 = 1"
	var args []interface{}

	if filter.CategoryID != nil {
		query += " AND category_id = ?"
		args = append(args, *filter.CategoryID)
	}
	if filter.FeaturedOnly {
		query += " AND is_featured = ?"
		args = append(args, true)
	}
	query += " ORDER BY CASE WHEN published_at IS NULL THEN 1 ELSE 0 END, published_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	articles := []models.Article{}
	if err := r.db.Select(&articles, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return articles, nil
}

// GetArticle retrieves an article
func (r *NewsRepository) GetArticle(id int64) (*models.Article, error) {
	article := &models.Article{}
	err := r.db.Get(article, "SELECT "+articleColumns+" FROM news_articles WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

// IncrementViews bumps an article's view counter
func (r *NewsRepository) IncrementViews(id int64) error {
	if _, err := r.db.Exec("UPDATE news_articles SET view_count = view_count + 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to count article view: %w", err)
	}
	return nil
}

// CreateArticle inserts an article and sets its ID
func (r *NewsRepository) CreateArticle(a *models.Article) error {
	query := `
		INSERT INTO news_articles (category_id, title, summary, content, source, author, external_url,
			published_at, is_featured, view_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, a.CategoryID, a.Title, a.Summary, a.Content, a.Source,
		a.Author, a.ExternalURL, utcPtr(a.PublishedAt), a.IsFeatured, a.ViewCount)
	if err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}
	a.ID = id
	return nil
}

// UpdateArticle saves every editable article field
func (r *NewsRepository) UpdateArticle(a *models.Article) error {
	query := `
		UPDATE news_articles
		SET category_id = ?, title = ?, summary = ?, content = ?, source = ?, author = ?,
			external_url = ?, published_at = ?, is_featured = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := r.db.Exec(query, a.CategoryID, a.Title, a.Summary, a.Content, a.Source, a.Author,
		a.ExternalURL, utcPtr(a.PublishedAt), a.IsFeatured, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	return expectOneRow(result, "article")
}

// DeleteArticle removes an article
func (r *NewsRepository) DeleteArticle(id int64) error {
	result, err := r.db.Exec("DELETE FROM news_articles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return expectOneRow(result, "article")
}

// CountArticles returns the number of articles
func (r *NewsRepository) CountArticles() (int, error) {
	var count int
	if err := r.db.Get(&count, "SELECT COUNT(*) FROM news_articles"); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

// CountCategories returns the number of news categories
func (r *NewsRepository) CountCategories() (int, error) {
	var count int
	if err := r.db.Get(&count, "SELECT COUNT(*) FROM news_categories"); err != nil {
		return 0, fmt.Errorf("failed to count news categories: %w", err)
	}
	return count, nil
}
