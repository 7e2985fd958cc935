package service

import (
	"encoding/json"
	"fmt"
	"log"

	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
	"actuarialhub/internal/repository"
)

const defaultActivityLimit = 20

// AchievementService awards achievements and keeps the activity feed
type AchievementService struct {
	db           *database.DB
	achievements *repository.AchievementRepository
	profiles     *repository.ProfileRepository
	community    *repository.CommunityRepository
}

// NewAchievementService creates a new achievement service
func NewAchievementService(db *database.DB) *AchievementService {
	return &AchievementService{
		db:           db,
		achievements: repository.NewAchievementRepository(db),
		profiles:     repository.NewProfileRepository(db),
		community:    repository.NewCommunityRepository(db),
	}
}

// Evaluate awards every active achievement whose criteria the user now
// meets. Each achievement is awarded at most once. Reward coins can unlock
// coin based achievements, so evaluation repeats until nothing new is earned.
func (s *AchievementService) Evaluate(userID int64) ([]models.Achievement, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	achievements := s.achievements.WithTx(tx)
	profiles := s.profiles.WithTx(tx)

	posts, err := s.community.WithTx(tx).CountPostsByUser(userID)
	if err != nil {
		return nil, err
	}

	var earned []models.Achievement
	for {
		profile, err := profiles.GetByUserID(userID)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, ErrProfileNotFound
		}
		stats := models.AchievementStats{
			QuestsCompleted: profile.TotalQuestsCompleted,
			SandboxScore:    profile.SandboxScore,
			RiskCoins:       profile.RiskCoins,
			PostsCreated:    posts,
		}

		candidates, err := achievements.ListUnearned(userID)
		if err != nil {
			return nil, err
		}

		awarded := 0
		for _, a := range candidates {
			var criteria models.AchievementCriteria
			if err := json.Unmarshal(a.Criteria, &criteria); err != nil {
				log.Printf("Warning: achievement %s has invalid criteria: %v", a.Code, err)
				continue
			}
			if !criteria.Met(stats) {
				continue
			}

			if err := achievements.Award(userID, a.ID); err != nil {
				return nil, err
			}
			if a.RewardCoins > 0 {
				if err := profiles.AddCoins(userID, a.RewardCoins); err != nil {
					return nil, err
				}
			}
			data, _ := json.Marshal(map[string]interface{}{"achievement": a.Code, "name": a.Name})
			if err := achievements.RecordActivity(userID, models.ActivityAchievementEarned, data, a.RewardCoins); err != nil {
				return nil, err
			}
			earned = append(earned, a)
			awarded++
		}

		if awarded == 0 {
			break
		}
	}

	if len(earned) > 0 {
		profile, err := profiles.GetByUserID(userID)
		if err != nil {
			return nil, err
		}
		if err := profiles.UpdateRank(userID, models.RankForCoins(profile.RiskCoins)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit achievements: %w", err)
	}

	for _, a := range earned {
		log.Printf("User %d earned achievement %s", userID, a.Code)
	}
	return earned, nil
}

// ListForUser returns active achievements with earned flags
func (s *AchievementService) ListForUser(userID int64) ([]models.UserAchievement, error) {
	return s.achievements.ListForUser(userID)
}

// Activities returns the user's recent activity feed
func (s *AchievementService) Activities(userID int64, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultActivityLimit
	}
	return s.achievements.ListActivities(userID, limit)
}

// RecordActivity appends an entry outside of any transaction
func (s *AchievementService) RecordActivity(userID int64, activityType string, data map[string]interface{}, coins int) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode activity: %w", err)
	}
	return s.achievements.RecordActivity(userID, activityType, encoded, coins)
}

// evaluateQuietly runs Evaluate and logs failures. Progress that triggered
// it is already committed and stays valid.
func (s *AchievementService) evaluateQuietly(userID int64) []models.Achievement {
	earned, err := s.Evaluate(userID)
	if err != nil {
		log.Printf("Warning: failed to evaluate achievements for user %d: %v", userID, err)
		return nil
	}
	return earned
}
