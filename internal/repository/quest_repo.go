package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
)

const questColumns = `id, category_id, title, description, story, difficulty, reward_coins,
	estimated_time, sort_order, is_active, unlock_after, content, created_at, updated_at`

// QuestRepository handles quests, quest categories and completion records
type QuestRepository struct {
	db database.DBTX
}

// NewQuestRepository creates a new quest repository
func NewQuestRepository(db database.DBTX) *QuestRepository {
	return &QuestRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *QuestRepository) WithTx(tx *database.Tx) *QuestRepository {
	return &QuestRepository{db: tx}
}

// ListCategories returns quest categories in display order
func (r *QuestRepository) ListCategories() ([]models.QuestCategory, error) {
	categories := []models.QuestCategory{}
	query := "SELECT id, name, description, icon, color, sort_order, created_at FROM quest_categories ORDER BY sort_order, name"
	if err := r.db.Select(&categories, query); err != nil {
		return nil, fmt.Errorf("failed to list quest categories: %w", err)
	}
	return categories, nil
}

// CreateCategory inserts a quest category
func (r *QuestRepository) CreateCategory(c *models.QuestCategory) (int64, error) {
	query := `
		INSERT INTO quest_categories (name, description, icon, color, sort_order)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, c.Name, c.Description, c.Icon, c.Color, c.SortOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to create quest category: %w", err)
	}
	return id, nil
}

// CategoryIDByName looks up a category by name, returning 0 when absent
func (r *QuestRepository) CategoryIDByName(name string) (int64, error) {
	var id int64
	err := r.db.Get(&id, "SELECT id FROM quest_categories WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find quest category: %w", err)
	}
	return id, nil
}

// ListActive returns active quests in display order
func (r *QuestRepository) ListActive() ([]models.Quest, error) {
	quests := []models.Quest{}
	query := "SELECT " + questColumns + " FROM quests WHERE is_active = ? ORDER BY sort_order, id"
	if err := r.db.Select(&quests, query, true); err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	return quests, nil
}

// ListAll returns every quest, including inactive ones
func (r *QuestRepository) ListAll() ([]models.Quest, error) {
	quests := []models.Quest{}
	if err := r.db.Select(&quests, "SELECT "+questColumns+" FROM quests ORDER BY sort_order, id"); err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	return quests, nil
}

// GetByID retrieves a quest
func (r *QuestRepository) GetByID(id int64) (*models.Quest, error) {
	quest := &models.Quest{}
	err := r.db.Get(quest, "SELECT "+questColumns+" FROM quests WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	return quest, nil
}

// Create inserts a quest and sets its ID
func (r *QuestRepository) Create(q *models.Quest) error {
	query := `
		INSERT INTO quests (category_id, title, description, story, difficulty, reward_coins,
			estimated_time, sort_order, is_active, unlock_after, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, q.CategoryID, q.Title, q.Description, q.Story, q.Difficulty,
		q.RewardCoins, q.EstimatedTime, q.SortOrder, q.IsActive, q.UnlockAfter, questContent(q))
	if err != nil {
		return fmt.Errorf("failed to create quest: %w", err)
	}
	q.ID = id
	return nil
}

// Update saves every editable quest field
func (r *QuestRepository) Update(q *models.Quest) error {
	query := `
		UPDATE quests
		SET category_id = ?, title = ?, description = ?, story = ?, difficulty = ?, reward_coins = ?,
			estimated_time = ?, sort_order = ?, is_active = ?, unlock_after = ?, content = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := r.db.Exec(query, q.CategoryID, q.Title, q.Description, q.Story, q.Difficulty,
		q.RewardCoins, q.EstimatedTime, q.SortOrder, q.IsActive, q.UnlockAfter, questContent(q), q.ID)
	if err != nil {
		return fmt.Errorf("failed to update quest: %w", err)
	}
	return expectOneRow(result, "quest")
}

// Delete removes a quest
func (r *QuestRepository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM quests WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete quest: %w", err)
	}
	return expectOneRow(result, "quest")
}

// Count returns the number of quests
func (r *QuestRepository) Count() (int, error) {
	var count int
	if err := r.db.Get(&count, "SELECT COUNT(*) FROM quests"); err != nil {
		return 0, fmt.Errorf("failed to count quests: %w", err)
	}
	return count, nil
}

// CountCategories returns the number of quest categories
func (r *QuestRepository) CountCategories() (int, error) {
	var count int
	if err := r.db.Get(&count, "SELECT COUNT(*) FROM quest_categories"); err != nil {
		return 0, fmt.Errorf("failed to count quest categories: %w", err)
	}
	return count, nil
}

// ProgressForUser returns the completion records of a user keyed by quest ID
func (r *QuestRepository) ProgressForUser(userID int64) (map[int64]models.QuestProgressRecord, error) {
	records := []models.QuestProgressRecord{}
	query := `
		SELECT id, user_id, quest_id, status, times_completed, last_completed_at, created_at, updated_at
		FROM user_quest_progress
		WHERE user_id = ?
	`
	if err := r.db.Select(&records, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get quest progress: %w", err)
	}

	byQuest := make(map[int64]models.QuestProgressRecord, len(records))
	for _, rec := range records {
		byQuest[rec.QuestID] = rec
	}
	return byQuest, nil
}

// RecordCompletion marks the quest completed for the user, counting repeat runs
func (r *QuestRepository) RecordCompletion(userID, questID int64, at time.Time) error {
	query := r.db.GetDialect().UpsertQuestProgressQuery()
	if _, err := r.db.Exec(query, userID, questID, at.UTC()); err != nil {
		return fmt.Errorf("failed to record quest progress: %w", err)
	}
	return nil
}

func questContent(q *models.Quest) string {
	if len(q.Content) == 0 {
		return "{}"
	}
	return string(q.Content)
}
