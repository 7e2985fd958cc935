package service

import (
	"testing"

	"actuarialhub/internal/models"
	"actuarialhub/internal/repository"
)

func TestEvaluateChainsCoinRewards(t *testing.T) {
	db := openTestDB(t)
	ac := signUp(t, db, "coins@example.com")
	createAchievement(t, db, "saver", `{"risk_coins":50}`, 50)
	createAchievement(t, db, "hoarder", `{"risk_coins":100}`, 0)
	createAchievement(t, db, "blank", `{}`, 500)
	createAchievement(t, db, "broken", `{"risk_coins":`, 500)
	svc := NewAchievementService(db)

	if err := repository.NewProfileRepository(db).AddCoins(ac.UserID(), 60); err != nil {
		t.Fatalf("AddCoins() error = %v", err)
	}

	earned, err := svc.Evaluate(ac.UserID())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	codes := make(map[string]bool)
	for _, a := range earned {
		codes[a.Code] = true
	}
	if len(earned) != 2 || !codes["saver"] || !codes["hoarder"] {
		t.Fatalf("Evaluate() = %+v, want saver and hoarder", earned)
	}

	profile := getProfile(t, db, ac.UserID())
	if profile.RiskCoins != 110 || profile.CommunityRank != "Junior Analyst" {
		t.Errorf("profile = coins %d rank %q", profile.RiskCoins, profile.CommunityRank)
	}

	again, err := svc.Evaluate(ac.UserID())
	if err != nil {
		t.Fatalf("second Evaluate() error = %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second Evaluate() = %+v, want none", again)
	}
	if profile := getProfile(t, db, ac.UserID()); profile.RiskCoins != 110 {
		t.Errorf("coins after second Evaluate() = %d, want 110", profile.RiskCoins)
	}
}

func TestListForUserMarksEarned(t *testing.T) {
	db := openTestDB(t)
	ac := signUp(t, db, "list@example.com")
	createAchievement(t, db, "first_post", `{"posts_created":1}`, 0)
	createAchievement(t, db, "high_roller", `{"risk_coins":1}`, 5)
	svc := NewAchievementService(db)

	if err := repository.NewProfileRepository(db).AddCoins(ac.UserID(), 1); err != nil {
		t.Fatalf("AddCoins() error = %v", err)
	}
	if _, err := svc.Evaluate(ac.UserID()); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	list, err := svc.ListForUser(ac.UserID())
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListForUser() returned %d achievements, want 2", len(list))
	}
	for _, a := range list {
		wantEarned := a.Code == "high_roller"
		if a.Earned != wantEarned {
			t.Errorf("%s earned = %v, want %v", a.Code, a.Earned, wantEarned)
		}
		if a.Earned && a.EarnedAt == nil {
			t.Errorf("%s earned without a timestamp", a.Code)
		}
	}

	activities, err := svc.Activities(ac.UserID(), 500)
	if err != nil {
		t.Fatalf("Activities() error = %v", err)
	}
	if len(activities) != 1 || activities[0].ActivityType != models.ActivityAchievementEarned || activities[0].CoinsEarned != 5 {
		t.Errorf("activities = %+v", activities)
	}
}
