package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
	"actuarialhub/internal/quest"
	"actuarialhub/internal/repository"
	"actuarialhub/internal/validation"
)

// QuestInput is the admin editable part of a quest
type QuestInput struct {
	CategoryID    *int64          `json:"category_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Story         string          `json:"story"`
	Difficulty    string          `json:"difficulty"`
	RewardCoins   int             `json:"reward_coins"`
	EstimatedTime int             `json:"estimated_time"`
	SortOrder     int             `json:"sort_order"`
	IsActive      *bool           `json:"is_active"`
	UnlockAfter   int             `json:"unlock_after"`
	Content       json.RawMessage `json:"content"`
}

// AdvanceResult is the outcome of advancing a quest run
type AdvanceResult struct {
	Progress     quest.Progress       `json:"progress"`
	Completed    bool                 `json:"completed"`
	CoinsEarned  int                  `json:"coins_earned"`
	Profile      *models.Profile      `json:"profile,omitempty"`
	Achievements []models.Achievement `json:"achievements,omitempty"`
}

// QuestService serves quests and credits completed runs
type QuestService struct {
	db           *database.DB
	quests       *repository.QuestRepository
	profiles     *repository.ProfileRepository
	achievements *AchievementService
	tracker      *quest.Tracker
	now          func() time.Time
}

// NewQuestService creates a new quest service
func NewQuestService(db *database.DB, tracker *quest.Tracker, achievements *AchievementService) *QuestService {
	return &QuestService{
		db:           db,
		quests:       repository.NewQuestRepository(db),
		profiles:     repository.NewProfileRepository(db),
		achievements: achievements,
		tracker:      tracker,
		now:          time.Now,
	}
}

// List returns active quests with the user's lock state and completion count
func (s *QuestService) List(ac *appctx.AppContext) ([]models.QuestWithStatus, error) {
	quests, err := s.quests.ListActive()
	if err != nil {
		return nil, err
	}
	completed, progress, err := s.userProgress(ac)
	if err != nil {
		return nil, err
	}

	list := make([]models.QuestWithStatus, 0, len(quests))
	for _, q := range quests {
		list = append(list, withStatus(q, completed, progress))
	}
	return list, nil
}

// Get returns one active quest. Staff can see inactive quests.
func (s *QuestService) Get(ac *appctx.AppContext, id int64) (*models.QuestWithStatus, error) {
	q, err := s.visibleQuest(ac, id)
	if err != nil {
		return nil, err
	}
	completed, progress, err := s.userProgress(ac)
	if err != nil {
		return nil, err
	}
	status := withStatus(*q, completed, progress)
	return &status, nil
}

// ListCategories returns quest categories in display order
func (s *QuestService) ListCategories() ([]models.QuestCategory, error) {
	return s.quests.ListCategories()
}

// Start begins a run, replacing any run already in progress
func (s *QuestService) Start(ac *appctx.AppContext, id int64) (*quest.Progress, error) {
	q, err := s.quests.GetByID(id)
	if err != nil {
		return nil, err
	}
	if q == nil || !q.IsActive {
		return nil, ErrQuestNotFound
	}

	completed, _, err := s.userProgress(ac)
	if err != nil {
		return nil, err
	}
	if completed < q.UnlockAfter {
		return nil, ErrQuestLocked
	}

	progress := s.tracker.Start(ac.UserID(), ac.SessionID, q.ID)
	return &progress, nil
}

// Advance completes the current step of the user's run. Finishing the
// last step credits the reward once.
func (s *QuestService) Advance(ac *appctx.AppContext, id int64, input quest.StepInput) (*AdvanceResult, error) {
	progress, completed, err := s.tracker.Advance(ac.UserID(), id, input)
	if err != nil {
		return nil, err
	}

	result := &AdvanceResult{Progress: progress, Completed: completed}
	if !completed {
		return result, nil
	}

	q, err := s.quests.GetByID(id)
	if err != nil || q == nil {
		s.tracker.Restore(ac.UserID(), progress)
		if err == nil {
			err = ErrQuestNotFound
		}
		return nil, err
	}

	profile, err := s.creditCompletion(ac.UserID(), q, progress)
	if err != nil {
		s.tracker.Restore(ac.UserID(), progress)
		return nil, err
	}
	log.Printf("User %d completed quest %d (+%d coins)", ac.UserID(), q.ID, q.RewardCoins)

	result.CoinsEarned = q.RewardCoins
	result.Achievements = s.achievements.evaluateQuietly(ac.UserID())
	if len(result.Achievements) > 0 {
		if refreshed, err := s.profiles.GetByUserID(ac.UserID()); err == nil && refreshed != nil {
			profile = refreshed
		}
	}
	result.Profile = profile
	return result, nil
}

// creditCompletion applies a completed run in one transaction
func (s *QuestService) creditCompletion(userID int64, q *models.Quest, progress quest.Progress) (*models.Profile, error) {
	now := s.now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	profiles := s.profiles.WithTx(tx)
	if err := profiles.CreditQuestCompletion(userID, q.RewardCoins); err != nil {
		return nil, err
	}

	profile, err := profiles.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	streak := models.NextStreak(profile.CurrentStreak, profile.LastActiveOn, now)
	today := now.UTC().Format(models.DateLayout)
	if err := profiles.UpdateStreak(userID, streak, today); err != nil {
		return nil, err
	}
	rank := models.RankForCoins(profile.RiskCoins)
	if err := profiles.UpdateRank(userID, rank); err != nil {
		return nil, err
	}

	if err := s.quests.WithTx(tx).RecordCompletion(userID, q.ID, now); err != nil {
		return nil, err
	}

	data, _ := json.Marshal(map[string]interface{}{
		"quest_id":   q.ID,
		"quest":      q.Title,
		"premium":    progress.Premium,
		"deductible": progress.Deductible,
	})
	if err := s.achievements.achievements.WithTx(tx).RecordActivity(userID, models.ActivityQuestCompleted, data, q.RewardCoins); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit quest completion: %w", err)
	}

	profile.CurrentStreak = streak
	profile.LastActiveOn = today
	profile.CommunityRank = rank
	return profile, nil
}

// Abandon drops the user's run on a quest
func (s *QuestService) Abandon(ac *appctx.AppContext, id int64) error {
	return s.tracker.Abandon(ac.UserID(), id)
}

// Active returns the user's in-progress run, if any
func (s *QuestService) Active(ac *appctx.AppContext) (*quest.Progress, bool) {
	progress, ok := s.tracker.Active(ac.UserID())
	if !ok {
		return nil, false
	}
	return &progress, true
}

// CreateQuest adds a quest
func (s *QuestService) CreateQuest(ac *appctx.AppContext, input QuestInput) (*models.Quest, error) {
	if !ac.IsStaff() {
		return nil, ErrForbidden
	}
	q, err := s.questFromInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.quests.Create(q); err != nil {
		return nil, err
	}
	log.Printf("Quest %d created by user %d", q.ID, ac.UserID())
	return s.quests.GetByID(q.ID)
}

// UpdateQuest replaces a quest's editable fields
func (s *QuestService) UpdateQuest(ac *appctx.AppContext, id int64, input QuestInput) (*models.Quest, error) {
	if !ac.IsStaff() {
		return nil, ErrForbidden
	}
	q, err := s.questFromInput(input)
	if err != nil {
		return nil, err
	}
	q.ID = id
	if err := s.quests.Update(q); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, err
	}
	return s.quests.GetByID(id)
}

// DeleteQuest removes a quest
func (s *QuestService) DeleteQuest(ac *appctx.AppContext, id int64) error {
	if !ac.IsStaff() {
		return ErrForbidden
	}
	if err := s.quests.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrQuestNotFound
		}
		return err
	}
	log.Printf("Quest %d deleted by user %d", id, ac.UserID())
	return nil
}

func (s *QuestService) questFromInput(input QuestInput) (*models.Quest, error) {
	title := strings.TrimSpace(input.Title)
	if err := validation.ValidateRequired("title", title, 200); err != nil {
		return nil, err
	}
	difficulty := strings.ToLower(strings.TrimSpace(input.Difficulty))
	if difficulty == "" {
		difficulty = models.DifficultyBeginner
	}
	if !models.ValidDifficulty(difficulty) {
		return nil, validation.ValidationError{Field: "difficulty", Message: "difficulty must be beginner, intermediate or advanced"}
	}
	if input.RewardCoins < 0 {
		return nil, validation.ValidationError{Field: "reward_coins", Message: "reward_coins must not be negative"}
	}
	if input.EstimatedTime < 0 || input.UnlockAfter < 0 {
		return nil, validation.ValidationError{Field: "unlock_after", Message: "estimated_time and unlock_after must not be negative"}
	}

	content := []byte("{}")
	if len(input.Content) > 0 && string(input.Content) != "null" {
		if !json.Valid(input.Content) {
			return nil, validation.ValidationError{Field: "content", Message: "content must be valid JSON"}
		}
		content = input.Content
	}

	if input.CategoryID != nil {
		categories, err := s.quests.ListCategories()
		if err != nil {
			return nil, err
		}
		found := false
		for _, c := range categories {
			if c.ID == *input.CategoryID {
				found = true
				break
			}
		}
		if !found {
			return nil, ErrCategoryNotFound
		}
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	return &models.Quest{
		CategoryID:    input.CategoryID,
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		Story:         strings.TrimSpace(input.Story),
		Difficulty:    difficulty,
		RewardCoins:   input.RewardCoins,
		EstimatedTime: input.EstimatedTime,
		SortOrder:     input.SortOrder,
		IsActive:      active,
		UnlockAfter:   input.UnlockAfter,
		Content:       content,
	}, nil
}

func (s *QuestService) visibleQuest(ac *appctx.AppContext, id int64) (*models.Quest, error) {
	q, err := s.quests.GetByID(id)
	if err != nil {
		return nil, err
	}
	if q == nil || (!q.IsActive && !ac.IsStaff()) {
		return nil, ErrQuestNotFound
	}
	return q, nil
}

// userProgress reads the completed quest count and per-quest records
func (s *QuestService) userProgress(ac *appctx.AppContext) (int, map[int64]models.QuestProgressRecord, error) {
	profile, err := s.profiles.GetByUserID(ac.UserID())
	if err != nil {
		return 0, nil, err
	}
	if profile == nil {
		return 0, nil, ErrProfileNotFound
	}
	progress, err := s.quests.ProgressForUser(ac.UserID())
	if err != nil {
		return 0, nil, err
	}
	return profile.TotalQuestsCompleted, progress, nil
}

func withStatus(q models.Quest, completed int, progress map[int64]models.QuestProgressRecord) models.QuestWithStatus {
	return models.QuestWithStatus{
		Quest:          q,
		Locked:         completed < q.UnlockAfter,
		TimesCompleted: progress[q.ID].TimesCompleted,
	}
}
