package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/models"
	"actuarialhub/internal/random"
	"actuarialhub/internal/repository"
	"actuarialhub/internal/sandbox"
)

// SandboxRun is a simulation result together with the score bookkeeping
type SandboxRun struct {
	Seed         int64                `json:"seed"`
	Params       sandbox.Params       `json:"params"`
	Result       sandbox.Result       `json:"result"`
	PreviousBest int                  `json:"previous_best"`
	NewBest      int                  `json:"new_best"`
	Improved     bool                 `json:"improved"`
	Practice     bool                 `json:"practice"`
	Achievements []models.Achievement `json:"achievements,omitempty"`
}

// SandboxService runs pricing simulations and keeps each user's best score
type SandboxService struct {
	profiles     *repository.ProfileRepository
	achievements *AchievementService
	delay        time.Duration
}

// NewSandboxService creates a new sandbox service. delay is the pause
// before a run returns.
func NewSandboxService(profiles *repository.ProfileRepository, achievements *AchievementService, delay time.Duration) *SandboxService {
	return &SandboxService{profiles: profiles, achievements: achievements, delay: delay}
}

// Run simulates one pricing decision for the signed-in user. A nil seed
// draws a fresh one and the run competes for the best score, which only ever
// increases. A caller supplied seed replays a known run, so it is a practice
// run that never touches the stored score or achievements.
func (s *SandboxService) Run(ctx context.Context, ac *appctx.AppContext, params sandbox.Params, seed *int64) (*SandboxRun, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	rng, usedSeed, err := random.NewRand(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to seed simulation: %w", err)
	}
	result := sandbox.Run(rng, params)

	previous, err := s.Best(ac)
	if err != nil {
		log.Printf("Warning: failed to load sandbox best for user %d: %v", ac.UserID(), err)
		previous = 0
	}

	run := &SandboxRun{
		Seed:         usedSeed,
		Params:       params,
		Result:       result,
		PreviousBest: previous,
		NewBest:      previous,
	}
	if seed != nil {
		run.Practice = true
		return run, nil
	}
	if result.Score <= previous {
		return run, nil
	}

	improved, err := s.profiles.RaiseSandboxScore(ac.UserID(), result.Score)
	if err != nil {
		log.Printf("Failed to save sandbox score for user %d: %v", ac.UserID(), err)
		return run, nil
	}
	if !improved {
		// Another run stored a higher score in the meantime
		if best, err := s.Best(ac); err == nil {
			run.NewBest = best
		}
		return run, nil
	}

	run.Improved = true
	run.NewBest = result.Score
	if err := s.achievements.RecordActivity(ac.UserID(), models.ActivitySandboxBest, map[string]interface{}{
		"score":      result.Score,
		"premium":    params.Premium,
		"deductible": params.Deductible,
		"seed":       usedSeed,
	}, 0); err != nil {
		log.Printf("Warning: failed to record sandbox activity for user %d: %v", ac.UserID(), err)
	}
	run.Achievements = s.achievements.evaluateQuietly(ac.UserID())

	return run, nil
}

// Best returns the user's stored best score
func (s *SandboxService) Best(ac *appctx.AppContext) (int, error) {
	profile, err := s.profiles.GetByUserID(ac.UserID())
	if err != nil {
		return 0, err
	}
	if profile == nil {
		return 0, ErrProfileNotFound
	}
	return profile.SandboxScore, nil
}
