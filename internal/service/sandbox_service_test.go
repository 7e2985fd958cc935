package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
	"actuarialhub/internal/repository"
	"actuarialhub/internal/sandbox"
	"actuarialhub/internal/validation"
)

func newTestSandboxService(db *database.DB, delay time.Duration) *SandboxService {
	return NewSandboxService(repository.NewProfileRepository(db), NewAchievementService(db), delay)
}

func TestSandboxSeedReproducesRun(t *testing.T) {
	db := openTestDB(t)
	ac := signUp(t, db, "seed@example.com")
	svc := newTestSandboxService(db, 0)

	seed := int64(20240611)
	params := sandbox.Params{Premium: 1200, Deductible: 500}

	first, err := svc.Run(context.Background(), ac, params, &seed)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := svc.Run(context.Background(), ac, params, &seed)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !first.Practice || !second.Practice {
		t.Error("seeded runs should be practice runs")
	}
	if first.Seed != seed || second.Seed != seed {
		t.Errorf("seeds = %d, %d, want %d", first.Seed, second.Seed, seed)
	}
	if !reflect.DeepEqual(first.Result, second.Result) {
		t.Error("same seed produced different results")
	}
	if len(first.Result.Records) != sandbox.PolicyholderCount {
		t.Errorf("records = %d, want %d", len(first.Result.Records), sandbox.PolicyholderCount)
	}
}

func TestSandboxBestScoreOnlyRises(t *testing.T) {
	db := openTestDB(t)
	ac := signUp(t, db, "ratchet@example.com")
	createAchievement(t, db, "sandbox_master", `{"sandbox_score":80}`, 30)
	svc := newTestSandboxService(db, 0)

	// A high premium against a low deductible is comfortably profitable
	high, err := svc.Run(context.Background(), ac, sandbox.Params{Premium: 3000, Deductible: 250}, nil)
	if err != nil {
		t.Fatalf("Run(high) error = %v", err)
	}
	if !high.Improved || high.PreviousBest != 0 || high.NewBest != high.Result.Score {
		t.Fatalf("Run(high) = %+v", high)
	}
	if len(high.Achievements) != 1 || high.Achievements[0].Code != "sandbox_master" {
		t.Errorf("achievements = %+v, want sandbox_master", high.Achievements)
	}

	low, err := svc.Run(context.Background(), ac, sandbox.Params{Premium: 800, Deductible: 2000}, nil)
	if err != nil {
		t.Fatalf("Run(low) error = %v", err)
	}
	if low.Improved || low.NewBest != high.Result.Score || low.PreviousBest != high.Result.Score {
		t.Errorf("Run(low) = improved %v, best %d -> %d", low.Improved, low.PreviousBest, low.NewBest)
	}

	best, err := svc.Best(ac)
	if err != nil {
		t.Fatalf("Best() error = %v", err)
	}
	if best != high.Result.Score {
		t.Errorf("Best() = %d, want %d", best, high.Result.Score)
	}

	activities, err := NewAchievementService(db).Activities(ac.UserID(), 0)
	if err != nil {
		t.Fatalf("Activities() error = %v", err)
	}
	sandboxBests := 0
	for _, a := range activities {
		if a.ActivityType == models.ActivitySandboxBest {
			sandboxBests++
		}
	}
	if sandboxBests != 1 {
		t.Errorf("recorded %d sandbox_best activities, want 1", sandboxBests)
	}
}

func TestSandboxRejectsParams(t *testing.T) {
	db := openTestDB(t)
	ac := signUp(t, db, "params@example.com")
	svc := newTestSandboxService(db, 0)

	tests := []struct {
		name   string
		params sandbox.Params
		field  string
	}{
		{name: "premium too low", params: sandbox.Params{Premium: 500, Deductible: 500}, field: "premium"},
		{name: "premium too high", params: sandbox.Params{Premium: 3500, Deductible: 500}, field: "premium"},
		{name: "deductible too high", params: sandbox.Params{Premium: 1200, Deductible: 2500}, field: "deductible"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var validationErr validation.ValidationError
			_, err := svc.Run(context.Background(), ac, tt.params, nil)
			if !errors.As(err, &validationErr) || validationErr.Field != tt.field {
				t.Errorf("Run() error = %v, want validation error on %s", err, tt.field)
			}
		})
	}
}

func TestSandboxDelayHonoursCancellation(t *testing.T) {
	db := openTestDB(t)
	ac := signUp(t, db, "cancel@example.com")
	svc := newTestSandboxService(db, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Run(ctx, ac, sandbox.Params{Premium: 1200, Deductible: 500}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if best, _ := svc.Best(ac); best != 0 {
		t.Errorf("cancelled run stored score %d", best)
	}
}

func TestSandboxSeededRunIsPractice(t *testing.T) {
	db := openTestDB(t)
	ac := signUp(t, db, "practice@example.com")
	createAchievement(t, db, "sandbox_master", `{"sandbox_score":80}`, 30)
	svc := newTestSandboxService(db, 0)
	coins := getProfile(t, db, ac.UserID()).RiskCoins

	seed := int64(42)
	run, err := svc.Run(context.Background(), ac, sandbox.Params{Premium: 3000, Deductible: 250}, &seed)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !run.Practice || run.Improved || run.NewBest != 0 || len(run.Achievements) != 0 {
		t.Errorf("seeded run = practice %v, improved %v, best %d, achievements %d",
			run.Practice, run.Improved, run.NewBest, len(run.Achievements))
	}
	if run.Result.Score == 0 {
		t.Fatal("expected a scoring run")
	}
	if best, _ := svc.Best(ac); best != 0 {
		t.Errorf("practice run stored score %d", best)
	}
	if getProfile(t, db, ac.UserID()).RiskCoins != coins {
		t.Error("practice run awarded achievement coins")
	}

	scored, err := svc.Run(context.Background(), ac, sandbox.Params{Premium: 3000, Deductible: 250}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if scored.Practice || !scored.Improved {
		t.Errorf("unseeded run = practice %v, improved %v", scored.Practice, scored.Improved)
	}
}

func TestSandboxReturnsResultWhenScoreStoreFails(t *testing.T) {
	db := openTestDB(t)
	ac := signUp(t, db, "offline@example.com")
	svc := newTestSandboxService(db, 0)
	db.Close()

	run, err := svc.Run(context.Background(), ac, sandbox.Params{Premium: 3000, Deductible: 250}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v, want the result despite the storage failure", err)
	}
	if len(run.Result.Records) != sandbox.PolicyholderCount || run.PreviousBest != 0 || run.Improved {
		t.Errorf("run = %d records, previous best %d, improved %v", len(run.Result.Records), run.PreviousBest, run.Improved)
	}
}
