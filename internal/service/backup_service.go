package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"actuarialhub/internal/database"
)

// BackupVersion is written into every snapshot
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version          string                  `json:"version"`
	ExportedAt       time.Time               `json:"exported_at"`
	DatabaseType     string                  `json:"database_type"`
	Users            []UserBackup            `json:"users"`
	Profiles         []ProfileBackup         `json:"profiles"`
	QuestCategories  []QuestCategoryBackup   `json:"quest_categories"`
	Quests           []QuestBackup           `json:"quests"`
	QuestProgress    []QuestProgressBackup   `json:"quest_progress"`
	NewsCategories   []NewsCategoryBackup    `json:"news_categories"`
	Articles         []ArticleBackup         `json:"articles"`
	Posts            []PostBackup            `json:"posts"`
	Replies          []ReplyBackup           `json:"replies"`
	Likes            []LikeBackup            `json:"likes"`
	Achievements     []AchievementBackup     `json:"achievements"`
	UserAchievements []UserAchievementBackup `json:"user_achievements"`
	Activities       []ActivityBackup        `json:"activities"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            int64     `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"password_hash"`
	Name          string    `db:"name" json:"name"`
	Role          string    `db:"role" json:"role"`
	OAuthProvider *string   `db:"oauth_provider" json:"oauth_provider"`
	OAuthSubject  *string   `db:"oauth_subject" json:"oauth_subject"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileBackup represents a profile record for backup
type ProfileBackup struct {
	UserID               int64     `db:"user_id" json:"user_id"`
	Username             string    `db:"username" json:"username"`
	FullName             string    `db:"full_name" json:"full_name"`
	AvatarURL            string    `db:"avatar_url" json:"avatar_url"`
	RiskCoins            int       `db:"risk_coins" json:"risk_coins"`
	CurrentStreak        int       `db:"current_streak" json:"current_streak"`
	LastActiveOn         string    `db:"last_active_on" json:"last_active_on"`
	TotalQuestsCompleted int       `db:"total_quests_completed" json:"total_quests_completed"`
	SandboxScore         int       `db:"sandbox_score" json:"sandbox_score"`
	CommunityRank        string    `db:"community_rank" json:"community_rank"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// QuestCategoryBackup represents a quest category for backup
type QuestCategoryBackup struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Icon        string    `db:"icon" json:"icon"`
	Color       string    `db:"color" json:"color"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// QuestBackup represents a quest for backup
type QuestBackup struct {
	ID            int64     `db:"id" json:"id"`
	CategoryID    *int64    `db:"category_id" json:"category_id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	Story         string    `db:"story" json:"story"`
	Difficulty    string    `db:"difficulty" json:"difficulty"`
	RewardCoins   int       `db:"reward_coins" json:"reward_coins"`
	EstimatedTime int       `db:"estimated_time" json:"estimated_time"`
	SortOrder     int       `db:"sort_order" json:"sort_order"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	UnlockAfter   int       `db:"unlock_after" json:"unlock_after"`
	Content       string    `db:"content" json:"content"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// QuestProgressBackup represents a quest completion record for backup
type QuestProgressBackup struct {
	ID              int64      `db:"id" json:"id"`
	UserID          int64      `db:"user_id" json:"user_id"`
	QuestID         int64      `db:"quest_id" json:"quest_id"`
	Status          string     `db:"status" json:"status"`
	TimesCompleted  int        `db:"times_completed" json:"times_completed"`
	LastCompletedAt *time.Time `db:"last_completed_at" json:"last_completed_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// NewsCategoryBackup represents a news category for backup
type NewsCategoryBackup struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ArticleBackup represents a news article for backup
type ArticleBackup struct {
	ID          int64      `db:"id" json:"id"`
	CategoryID  *int64     `db:"category_id" json:"category_id"`
	Title       string     `db:"title" json:"title"`
	Summary     string     `db:"summary" json:"summary"`
	Content     string     `db:"content" json:"content"`
	Source      string     `db:"source" json:"source"`
	Author      string     `db:"author" json:"author"`
	ExternalURL string     `db:"external_url" json:"external_url"`
	PublishedAt *time.Time `db:"published_at" json:"published_at"`
	IsFeatured  bool       `db:"is_featured" json:"is_featured"`
	ViewCount   int        `db:"view_count" json:"view_count"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// PostBackup represents a community post for backup
type PostBackup struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Title        string    `db:"title" json:"title"`
	Content      string    `db:"content" json:"content"`
	PostType     string    `db:"post_type" json:"post_type"`
	Tags         string    `db:"tags" json:"tags"`
	LikesCount   int       `db:"likes_count" json:"likes_count"`
	RepliesCount int       `db:"replies_count" json:"replies_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ReplyBackup represents a community reply for backup
type ReplyBackup struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LikeBackup represents a post like for backup
type LikeBackup struct {
	PostID    int64     `db:"post_id" json:"post_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AchievementBackup represents an achievement definition for backup
type AchievementBackup struct {
	ID          int64     `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Icon        string    `db:"icon" json:"icon"`
	BadgeColor  string    `db:"badge_color" json:"badge_color"`
	Criteria    string    `db:"criteria" json:"criteria"`
	RewardCoins int       `db:"reward_coins" json:"reward_coins"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserAchievementBackup represents an earned achievement for backup
type UserAchievementBackup struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	AchievementID int64     `db:"achievement_id" json:"achievement_id"`
	EarnedAt      time.Time `db:"earned_at" json:"earned_at"`
}

// ActivityBackup represents an activity feed entry for backup
type ActivityBackup struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	ActivityType string    `db:"activity_type" json:"activity_type"`
	ActivityData string    `db:"activity_data" json:"activity_data"`
	CoinsEarned  int       `db:"coins_earned" json:"coins_earned"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// backupTable describes how one table is exported and restored
type backupTable struct {
	name    string
	columns []string
	order   string
	hasID   bool
}

// backupTables lists tables in dependency order
var backupTables = []backupTable{
	{"users", []string{"id", "email", "password_hash", "name", "role", "oauth_provider", "oauth_subject", "created_at", "updated_at"}, "id", true},
	{"profiles", []string{"user_id", "username", "full_name", "avatar_url", "risk_coins", "current_streak", "last_active_on", "total_quests_completed", "sandbox_score", "community_rank", "created_at", "updated_at"}, "user_id", false},
	{"quest_categories", []string{"id", "name", "description", "icon", "color", "sort_order", "created_at"}, "id", true},
	{"quests", []string{"id", "category_id", "title", "description", "story", "difficulty", "reward_coins", "estimated_time", "sort_order", "is_active", "unlock_after", "content", "created_at", "updated_at"}, "id", true},
	{"user_quest_progress", []string{"id", "user_id", "quest_id", "status", "times_completed", "last_completed_at", "created_at", "updated_at"}, "id", true},
	{"news_categories", []string{"id", "name", "description", "sort_order", "created_at"}, "id", true},
	{"news_articles", []string{"id", "category_id", "title", "summary", "content", "source", "author", "external_url", "published_at", "is_featured", "view_count", "created_at", "updated_at"}, "id", true},
	{"community_posts", []string{"id", "user_id", "title", "content", "post_type", "tags", "likes_count", "replies_count", "created_at", "updated_at"}, "id", true},
	{"community_replies", []string{"id", "post_id", "user_id", "content", "created_at"}, "id", true},
	{"community_likes", []string{"post_id", "user_id", "created_at"}, "post_id, user_id", false},
	{"achievements", []string{"id", "code", "name", "description", "icon", "badge_color", "criteria", "reward_coins", "is_active", "created_at"}, "id", true},
	{"user_achievements", []string{"id", "user_id", "achievement_id", "earned_at"}, "id", true},
	{"user_activities", []string{"id", "user_id", "activity_type", "activity_data", "coins_earned", "created_at"}, "id", true},
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Snapshot reads every backed up table
func (s *BackupService) Snapshot() (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: "universal",
	}

	dests := []interface{}{
		&backup.Users, &backup.Profiles, &backup.QuestCategories, &backup.Quests, &backup.QuestProgress,
		&backup.NewsCategories, &backup.Articles, &backup.Posts, &backup.Replies, &backup.Likes,
		&backup.Achievements, &backup.UserAchievements, &backup.Activities,
	}
	for i, table := range backupTables {
		query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(table.columns, ", "), table.name, table.order)
		if err := s.db.Select(dests[i], query); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", table.name, err)
		}
	}
	return backup, nil
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter writes a complete backup as indented JSON
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup, err := s.Snapshot()
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d users, %d quests, %d articles, %d posts, %d replies, %d activities",
		len(backup.Users), len(backup.Quests), len(backup.Articles),
		len(backup.Posts), len(backup.Replies), len(backup.Activities))
	return nil
}

// TableCounts returns the row count of every backed up table
func (s *BackupService) TableCounts() (map[string]int, error) {
	counts := make(map[string]int, len(backupTables))
	for _, table := range backupTables {
		var count int
		if err := s.db.Get(&count, "SELECT COUNT(*) FROM "+table.name); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table.name, err)
		}
		counts[table.name] = count
	}
	return counts, nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string, clearExisting bool) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file, clearExisting)
}

// ImportFromReader restores a database from a backup reader. All rows are
// written in one transaction so a failed import leaves the database untouched.
func (s *BackupService) ImportFromReader(reader io.Reader, clearExisting bool) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if clearExisting {
		if err := clearTables(tx); err != nil {
			return err
		}
	}

	rows := [][][]interface{}{
		usersRows(backup.Users), profileRows(backup.Profiles), questCategoryRows(backup.QuestCategories),
		questRows(backup.Quests), questProgressRows(backup.QuestProgress), newsCategoryRows(backup.NewsCategories),
		articleRows(backup.Articles), postRows(backup.Posts), replyRows(backup.Replies), likeRows(backup.Likes),
		achievementRows(backup.Achievements), userAchievementRows(backup.UserAchievements), activityRows(backup.Activities),
	}
	for i, table := range backupTables {
		if err := insertRows(tx, table, rows[i]); err != nil {
			return err
		}
	}

	for _, table := range backupTables {
		if !table.hasID {
			continue
		}
		if query := tx.GetDialect().ResetSequenceQuery(table.name); query != "" {
			if _, err := tx.Exec(query); err != nil {
				return fmt.Errorf("failed to reset %s sequence: %w", table.name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	log.Printf("Imported: %d users, %d quests, %d articles, %d posts, %d replies, %d activities",
		len(backup.Users), len(backup.Quests), len(backup.Articles),
		len(backup.Posts), len(backup.Replies), len(backup.Activities))
	log.Println("Database import completed successfully")
	return nil
}

// clearTables deletes restored data in reverse dependency order
func clearTables(tx *database.Tx) error {
	log.Println("Clearing existing data...")
	tables := []string{"sessions", "password_reset_tokens"}
	for i := len(backupTables) - 1; i >= 0; i-- {
		tables = append(tables, backupTables[i].name)
	}
	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func insertRows(tx *database.Tx, table backupTable, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(table.columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table.name, strings.Join(table.columns, ", "), placeholders)
	for _, row := range rows {
		if _, err := tx.Exec(query, row...); err != nil {
			return fmt.Errorf("failed to import %s: %w", table.name, err)
		}
	}
	log.Printf("Imported %d rows into %s", len(rows), table.name)
	return nil
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func usersRows(users []UserBackup) [][]interface{} {
	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		rows = append(rows, []interface{}{u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.OAuthProvider, u.OAuthSubject, utc(u.CreatedAt), utc(u.UpdatedAt)})
	}
	return rows
}

func profileRows(profiles []ProfileBackup) [][]interface{} {
	rows := make([][]interface{}, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, []interface{}{p.UserID, p.Username, p.FullName, p.AvatarURL, p.RiskCoins, p.CurrentStreak,
			p.LastActiveOn, p.TotalQuestsCompleted, p.SandboxScore, p.CommunityRank, utc(p.CreatedAt), utc(p.UpdatedAt)})
	}
	return rows
}

func questCategoryRows(categories []QuestCategoryBackup) [][]interface{} {
	rows := make([][]interface{}, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []interface{}{c.ID, c.Name, c.Description, c.Icon, c.Color, c.SortOrder, utc(c.CreatedAt)})
	}
	return rows
}

func questRows(quests []QuestBackup) [][]interface{} {
	rows := make([][]interface{}, 0, len(quests))
	for _, q := range quests {
		content := q.Content
		if content == "" {
			content = "{}"
		}
		rows = append(rows, []interface{}{q.ID, q.CategoryID, q.Title, q.Description, q.Story, q.Difficulty, q.RewardCoins,
			q.EstimatedTime, q.SortOrder, q.IsActive, q.UnlockAfter, content, utc(q.CreatedAt), utc(q.UpdatedAt)})
	}
	return rows
}

func questProgressRows(records []QuestProgressBackup) [][]interface{} {
	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, []interface{}{r.ID, r.UserID, r.QuestID, r.Status, r.TimesCompleted,
			utcOrNil(r.LastCompletedAt), utc(r.CreatedAt), utc(r.UpdatedAt)})
	}
	return rows
}

func newsCategoryRows(categories []NewsCategoryBackup) [][]interface{} {
	rows := make([][]interface{}, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []interface{}{c.ID, c.Name, c.Description, c.SortOrder, utc(c.CreatedAt)})
	}
	return rows
}

func articleRows(articles []ArticleBackup) [][]interface{} {
	rows := make([][]interface{}, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, []interface{}{a.ID, a.CategoryID, a.Title, a.Summary, a.Content, a.Source, a.Author,
			a.ExternalURL, utcOrNil(a.PublishedAt), a.IsFeatured, a.ViewCount, utc(a.CreatedAt), utc(a.UpdatedAt)})
	}
	return rows
}

func postRows(posts []PostBackup) [][]interface{} {
	rows := make([][]interface{}, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, []interface{}{p.ID, p.UserID, p.Title, p.Content, p.PostType, p.Tags, p.LikesCount,
			p.RepliesCount, utc(p.CreatedAt), utc(p.UpdatedAt)})
	}
	return rows
}

func replyRows(replies []ReplyBackup) [][]interface{} {
	rows := make([][]interface{}, 0, len(replies))
	for _, r := range replies {
		rows = append(rows, []interface{}{r.ID, r.PostID, r.UserID, r.Content, utc(r.CreatedAt)})
	}
	return rows
}

func likeRows(likes []LikeBackup) [][]interface{} {
	rows := make([][]interface{}, 0, len(likes))
	for _, l := range likes {
		rows = append(rows, []interface{}{l.PostID, l.UserID, utc(l.CreatedAt)})
	}
	return rows
}

func achievementRows(achievements []AchievementBackup) [][]interface{} {
	rows := make([][]interface{}, 0, len(achievements))
	for _, a := range achievements {
		criteria := a.Criteria
		if criteria == "" {
			criteria = "{}"
		}
		rows = append(rows, []interface{}{a.ID, a.Code, a.Name, a.Description, a.Icon, a.BadgeColor, criteria,
			a.RewardCoins, a.IsActive, utc(a.CreatedAt)})
	}
	return rows
}

func userAchievementRows(earned []UserAchievementBackup) [][]interface{} {
	rows := make([][]interface{}, 0, len(earned))
	for _, e := range earned {
		rows = append(rows, []interface{}{e.ID, e.UserID, e.AchievementID, utc(e.EarnedAt)})
	}
	return rows
}

func activityRows(activities []ActivityBackup) [][]interface{} {
	rows := make([][]interface{}, 0, len(activities))
	for _, a := range activities {
		data := a.ActivityData
		if data == "" {
			data = "{}"
		}
		rows = append(rows, []interface{}{a.ID, a.UserID, a.ActivityType, data, a.CoinsEarned, utc(a.CreatedAt)})
	}
	return rows
}
