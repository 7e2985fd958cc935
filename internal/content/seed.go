// Package content loads the starter quests, news, achievements and
// community posts shipped with the server.
package content

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
	"actuarialhub/internal/repository"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// Seed is the parsed starter content
type Seed struct {
	QuestCategories []QuestCategory `yaml:"quest_categories"`
	Quests          []Quest         `yaml:"quests"`
	NewsCategories  []NewsCategory  `yaml:"news_categories"`
	Articles        []Article       `yaml:"articles"`
	Achievements    []Achievement   `yaml:"achievements"`
	Posts           []Post          `yaml:"posts"`
}

type QuestCategory struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
	Color       string `yaml:"color"`
	SortOrder   int    `yaml:"sort_order"`
}

type Quest struct {
	Title         string                 `yaml:"title"`
	Category      string                 `yaml:"category"`
	Description   string                 `yaml:"description"`
	Story         string                 `yaml:"story"`
	Difficulty    string                 `yaml:"difficulty"`
	RewardCoins   int                    `yaml:"reward_coins"`
	EstimatedTime int                    `yaml:"estimated_time"`
	SortOrder     int                    `yaml:"sort_order"`
	UnlockAfter   int                    `yaml:"unlock_after"`
	Content       map[string]interface{} `yaml:"content"`
}

type NewsCategory struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	SortOrder   int    `yaml:"sort_order"`
}

type Article struct {
	Title       string     `yaml:"title"`
	Category    string     `yaml:"category"`
	Summary     string     `yaml:"summary"`
	Content     string     `yaml:"content"`
	Source      string     `yaml:"source"`
	Author      string     `yaml:"author"`
	ExternalURL string     `yaml:"external_url"`
	PublishedAt *time.Time `yaml:"published_at"`
	IsFeatured  bool       `yaml:"is_featured"`
}

type Achievement struct {
	Code        string                     `yaml:"code"`
	Name        string                     `yaml:"name"`
	Description string                     `yaml:"description"`
	Icon        string                     `yaml:"icon"`
	BadgeColor  string                     `yaml:"badge_color"`
	RewardCoins int                        `yaml:"reward_coins"`
	Criteria    models.AchievementCriteria `yaml:"criteria"`
}

type Post struct {
	Title    string   `yaml:"title"`
	PostType string   `yaml:"post_type"`
	Content  string   `yaml:"content"`
	Tags     []string `yaml:"tags"`
}

// Load parses the embedded seed file
func Load() (*Seed, error) {
	return Parse(seedYAML)
}

// Parse decodes seed content from YAML
func Parse(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed content: %w", err)
	}
	for _, q := range seed.Quests {
		if !models.ValidDifficulty(q.Difficulty) {
			return nil, fmt.Errorf("quest %q has unknown difficulty %q", q.Title, q.Difficulty)
		}
	}
	for _, p := range seed.Posts {
		if !models.ValidPostType(p.PostType) {
			return nil, fmt.Errorf("post %q has unknown type %q", p.Title, p.PostType)
		}
	}
	return &seed, nil
}

// Apply inserts each section of the seed into its table when that table is
// empty. Community posts need an author, so they wait until an admin exists.
func (s *Seed) Apply(db *database.DB) error {
	quests := repository.NewQuestRepository(db)
	news := repository.NewNewsRepository(db)
	achievements := repository.NewAchievementRepository(db)

	if err := s.applyQuestCategories(quests); err != nil {
		return err
	}
	if err := s.applyQuests(quests); err != nil {
		return err
	}
	if err := s.applyNewsCategories(news); err != nil {
		return err
	}
	if err := s.applyArticles(news); err != nil {
		return err
	}
	if err := s.applyAchievements(achievements); err != nil {
		return err
	}
	return s.applyPosts(repository.NewUserRepository(db), repository.NewCommunityRepository(db))
}

func (s *Seed) applyQuestCategories(quests *repository.QuestRepository) error {
	count, err := quests.CountCategories()
	if err != nil || count > 0 {
		return err
	}
	for _, c := range s.QuestCategories {
		category := &models.QuestCategory{
			Name:        c.Name,
			Description: c.Description,
			Icon:        c.Icon,
			Color:       c.Color,
			SortOrder:   c.SortOrder,
		}
		if _, err := quests.CreateCategory(category); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d quest categories", len(s.QuestCategories))
	return nil
}

func (s *Seed) applyQuests(quests *repository.QuestRepository) error {
	count, err := quests.Count()
	if err != nil || count > 0 {
		return err
	}
	for _, q := range s.Quests {
		content := []byte("{}")
		if len(q.Content) > 0 {
			if content, err = json.Marshal(q.Content); err != nil {
				return fmt.Errorf("failed to encode content of quest %q: %w", q.Title, err)
			}
		}

		quest := &models.Quest{
			Title:         q.Title,
			Description:   q.Description,
			Story:         q.Story,
			Difficulty:    q.Difficulty,
			RewardCoins:   q.RewardCoins,
			EstimatedTime: q.EstimatedTime,
			SortOrder:     q.SortOrder,
			IsActive:      true,
			UnlockAfter:   q.UnlockAfter,
			Content:       content,
		}
		if q.Category != "" {
			id, err := quests.CategoryIDByName(q.Category)
			if err != nil {
				return err
			}
			if id != 0 {
				quest.CategoryID = &id
			}
		}
		if err := quests.Create(quest); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d quests", len(s.Quests))
	return nil
}

func (s *Seed) applyNewsCategories(news *repository.NewsRepository) error {
	count, err := news.CountCategories()
	if err != nil || count > 0 {
		return err
	}
	for _, c := range s.NewsCategories {
		category := &models.NewsCategory{Name: c.Name, Description: c.Description, SortOrder: c.SortOrder}
		if err := news.CreateCategory(category); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d news categories", len(s.NewsCategories))
	return nil
}

func (s *Seed) applyArticles(news *repository.NewsRepository) error {
	count, err := news.CountArticles()
	if err != nil || count > 0 {
		return err
	}
	for _, a := range s.Articles {
		article := &models.Article{
			Title:       a.Title,
			Summary:     a.Summary,
			Content:     a.Content,
			Source:      a.Source,
			Author:      a.Author,
			ExternalURL: a.ExternalURL,
			PublishedAt: a.PublishedAt,
			IsFeatured:  a.IsFeatured,
		}
		if a.Category != "" {
			id, err := news.CategoryIDByName(a.Category)
			if err != nil {
				return err
			}
			if id != 0 {
				article.CategoryID = &id
			}
		}
		if err := news.CreateArticle(article); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d articles", len(s.Articles))
	return nil
}

func (s *Seed) applyAchievements(achievements *repository.AchievementRepository) error {
	count, err := achievements.Count()
	if err != nil || count > 0 {
		return err
	}
	for _, a := range s.Achievements {
		criteria, err := json.Marshal(a.Criteria)
		if err != nil {
			return fmt.Errorf("failed to encode criteria of %s: %w", a.Code, err)
		}
		achievement := &models.Achievement{
			Code:        a.Code,
			Name:        a.Name,
			Description: a.Description,
			Icon:        a.Icon,
			BadgeColor:  a.BadgeColor,
			Criteria:    criteria,
			RewardCoins: a.RewardCoins,
			IsActive:    true,
		}
		if err := achievements.Create(achievement); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d achievements", len(s.Achievements))
	return nil
}

func (s *Seed) applyPosts(users *repository.UserRepository, community *repository.CommunityRepository) error {
	count, err := community.CountPosts()
	if err != nil || count > 0 || len(s.Posts) == 0 {
		return err
	}
	authorID, err := users.FirstAdminID()
	if err != nil {
		return err
	}
	if authorID == 0 {
		log.Println("No admin account yet, community welcome posts will be seeded on a later start")
		return nil
	}

	for _, p := range s.Posts {
		post := &models.Post{
			UserID:   authorID,
			Title:    p.Title,
			Content:  p.Content,
			PostType: p.PostType,
			Tags:     models.JoinTags(p.Tags),
		}
		if err := community.CreatePost(post); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d community posts", len(s.Posts))
	return nil
}
