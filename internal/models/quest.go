package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Quest difficulties
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// QuestCategory groups quests by topic
type QuestCategory struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Icon        string    `db:"icon" json:"icon"`
	Color       string    `db:"color" json:"color"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Quest is an admin-authored interactive exercise with a fixed reward.
// Content is a free-form JSON document.
type Quest struct {
	ID            int64          `db:"id" json:"id"`
	CategoryID    *int64         `db:"category_id" json:"category_id,omitempty"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	Story         string         `db:"story" json:"story"`
	Difficulty    string         `db:"difficulty" json:"difficulty"`
	RewardCoins   int            `db:"reward_coins" json:"reward_coins"`
	EstimatedTime int            `db:"estimated_time" json:"estimated_time"`
	SortOrder     int            `db:"sort_order" json:"sort_order"`
	IsActive      bool           `db:"is_active" json:"is_active"`
	UnlockAfter   int            `db:"unlock_after" json:"unlock_after"`
	Content       types.JSONText `db:"content" json:"content"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// QuestWithStatus is a quest as seen by one user
type QuestWithStatus struct {
	Quest
	Locked         bool `json:"locked"`
	TimesCompleted int  `json:"times_completed"`
}

// QuestProgressRecord is the persisted completion record of a quest for a user
type QuestProgressRecord struct {
	ID              int64      `db:"id" json:"id"`
	UserID          int64      `db:"user_id" json:"user_id"`
	QuestID         int64      `db:"quest_id" json:"quest_id"`
	Status          string     `db:"status" json:"status"`
	TimesCompleted  int        `db:"times_completed" json:"times_completed"`
	LastCompletedAt *time.Time `db:"last_completed_at" json:"last_completed_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// ValidDifficulty reports whether d is a known difficulty
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}
