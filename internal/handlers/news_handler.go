package handlers

import (
	"net/http"
	"strconv"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/models"
	"actuarialhub/internal/service"
)

// NewsHandler serves news categories and articles
type NewsHandler struct {
	newsService *service.NewsService
}

// NewNewsHandler creates a new news handler
func NewNewsHandler(newsService *service.NewsService) *NewsHandler {
	return &NewsHandler{newsService: newsService}
}

// ListCategories returns the news categories
func (h *NewsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.newsService.ListCategories()
	if err != nil {
		respondWithServiceError(w, err, "Error listing news categories")
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// ListArticles returns published articles, newest first.
// Query: category_id, featured=true, limit.
func (h *NewsHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter models.ArticleFilter
	if raw := query.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid category_id", "", nil)
			return
		}
		filter.CategoryID = &id
	}
	filter.FeaturedOnly = query.Get("featured") == "true"

	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	filter.Limit = limit

	articles, err := h.newsService.ListArticles(filter)
	if err != nil {
		respondWithServiceError(w, err, "Error listing articles")
		return
	}
	respondJSON(w, http.StatusOK, articles)
}

// GetArticle returns one article and counts the view
func (h *NewsHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	article, err := h.newsService.GetArticle(id)
	if err != nil {
		respondWithServiceError(w, err, "Error loading article")
		return
	}
	respondJSON(w, http.StatusOK, article)
}

// CreateCategory adds a news category (staff)
func (h *NewsHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input service.CategoryInput
	if !decodeJSON(w, r, &input) {
		return
	}

	category, err := h.newsService.CreateCategory(appctx.From(r.Context()), input)
	if err != nil {
		respondWithServiceError(w, err, "Error creating news category")
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

// CreateArticle publishes an article (staff)
func (h *NewsHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var input service.ArticleInput
	if !decodeJSON(w, r, &input) {
		return
	}

	article, err := h.newsService.CreateArticle(appctx.From(r.Context()), input)
	if err != nil {
		respondWithServiceError(w, err, "Error creating article")
		return
	}
	respondJSON(w, http.StatusCreated, article)
}

// UpdateArticle replaces an article's editable fields (staff)
func (h *NewsHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var input service.ArticleInput
	if !decodeJSON(w, r, &input) {
		return
	}

	article, err := h.newsService.UpdateArticle(appctx.From(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, err, "Error updating article")
		return
	}
	respondJSON(w, http.StatusOK, article)
}

// DeleteArticle removes an article (staff)
func (h *NewsHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.newsService.DeleteArticle(appctx.From(r.Context()), id); err != nil {
		respondWithServiceError(w, err, "Error deleting article")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryLimit parses the optional limit query parameter. Zero means the
// service default.
func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid limit", "", nil)
		return 0, false
	}
	return limit, true
}
