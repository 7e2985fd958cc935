package service

import (
	"errors"
	"testing"
	"time"

	"actuarialhub/internal/models"
	"actuarialhub/internal/repository"
	"actuarialhub/internal/validation"
)

func TestNewsCategories(t *testing.T) {
	db := openTestDB(t)
	admin := signUp(t, db, "editor@example.com")
	student := signUp(t, db, "reader@example.com")
	svc := NewNewsService(repository.NewNewsRepository(db))

	if _, err := svc.CreateCategory(student, CategoryInput{Name: "Regulation"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("student CreateCategory() error = %v, want ErrForbidden", err)
	}

	category, err := svc.CreateCategory(admin, CategoryInput{Name: " Regulation ", Description: "Rules and guidance"})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if category.Name != "Regulation" {
		t.Errorf("CreateCategory() name = %q", category.Name)
	}

	var validationErr validation.ValidationError
	if _, err := svc.CreateCategory(admin, CategoryInput{Name: "Regulation"}); !errors.As(err, &validationErr) || validationErr.Field != "name" {
		t.Errorf("duplicate CreateCategory() error = %v", err)
	}
	if _, err := svc.CreateCategory(admin, CategoryInput{Name: "  "}); !errors.As(err, &validationErr) {
		t.Errorf("blank CreateCategory() error = %v", err)
	}

	categories, err := svc.ListCategories()
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(categories) != 1 {
		t.Errorf("ListCategories() = %+v", categories)
	}
}

func TestNewsArticleLifecycle(t *testing.T) {
	db := openTestDB(t)
	admin := signUp(t, db, "editor@example.com")
	student := signUp(t, db, "reader@example.com")
	svc := NewNewsService(repository.NewNewsRepository(db))

	category, err := svc.CreateCategory(admin, CategoryInput{Name: "Markets"})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	older := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	newer := older.AddDate(0, 1, 0)
	first, err := svc.CreateArticle(admin, ArticleInput{
		CategoryID:  &category.ID,
		Title:       "Catastrophe bonds rally",
		ExternalURL: "https://example.com/cat-bonds",
		PublishedAt: &older,
	})
	if err != nil {
		t.Fatalf("CreateArticle() error = %v", err)
	}
	second, err := svc.CreateArticle(admin, ArticleInput{Title: "Mortality tables revised", PublishedAt: &newer, IsFeatured: true})
	if err != nil {
		t.Fatalf("CreateArticle() error = %v", err)
	}

	tests := []struct {
		name   string
		filter models.ArticleFilter
		want   []int64
	}{
		{name: "all newest first", filter: models.ArticleFilter{}, want: []int64{second.ID, first.ID}},
		{name: "by category", filter: models.ArticleFilter{CategoryID: &category.ID}, want: []int64{first.ID}},
		{name: "featured only", filter: models.ArticleFilter{FeaturedOnly: true}, want: []int64{second.ID}},
		{name: "limited", filter: models.ArticleFilter{Limit: 1}, want: []int64{second.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			articles, err := svc.ListArticles(tt.filter)
			if err != nil {
				t.Fatalf("ListArticles() error = %v", err)
			}
			if len(articles) != len(tt.want) {
				t.Fatalf("ListArticles() returned %d articles, want %d", len(articles), len(tt.want))
			}
			for i, id := range tt.want {
				if articles[i].ID != id {
					t.Errorf("article %d = %d, want %d", i, articles[i].ID, id)
				}
			}
		})
	}

	for want := 1; want <= 2; want++ {
		article, err := svc.GetArticle(first.ID)
		if err != nil {
			t.Fatalf("GetArticle() error = %v", err)
		}
		if article.ViewCount != want {
			t.Errorf("view count = %d, want %d", article.ViewCount, want)
		}
	}

	if _, err := svc.UpdateArticle(student, first.ID, ArticleInput{Title: "Edited"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("student UpdateArticle() error = %v", err)
	}
	var validationErr validation.ValidationError
	if _, err := svc.UpdateArticle(admin, first.ID, ArticleInput{Title: "Edited", ExternalURL: "ftp://example.com"}); !errors.As(err, &validationErr) || validationErr.Field != "external_url" {
		t.Errorf("bad url UpdateArticle() error = %v", err)
	}
	missing := int64(999)
	if _, err := svc.UpdateArticle(admin, first.ID, ArticleInput{Title: "Edited", CategoryID: &missing}); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("missing category UpdateArticle() error = %v", err)
	}
	updated, err := svc.UpdateArticle(admin, first.ID, ArticleInput{Title: "Edited"})
	if err != nil {
		t.Fatalf("UpdateArticle() error = %v", err)
	}
	if updated.Title != "Edited" || updated.CategoryID != nil {
		t.Errorf("UpdateArticle() = %+v", updated)
	}

	if err := svc.DeleteArticle(admin, first.ID); err != nil {
		t.Fatalf("DeleteArticle() error = %v", err)
	}
	if _, err := svc.GetArticle(first.ID); !errors.Is(err, ErrArticleNotFound) {
		t.Errorf("GetArticle(deleted) error = %v, want ErrArticleNotFound", err)
	}
	if err := svc.DeleteArticle(admin, first.ID); !errors.Is(err, ErrArticleNotFound) {
		t.Errorf("second DeleteArticle() error = %v", err)
	}
}
