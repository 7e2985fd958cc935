package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
	"actuarialhub/internal/quest"
	"actuarialhub/internal/repository"
	"actuarialhub/internal/validation"
)

func newTestQuestService(db *database.DB) *QuestService {
	return NewQuestService(db, quest.NewTracker(), NewAchievementService(db))
}

// runQuest starts questID and advances it through every step
func runQuest(t *testing.T, svc *QuestService, ac *appctx.AppContext, questID int64) *AdvanceResult {
	t.Helper()

	if _, err := svc.Start(ac, questID); err != nil {
		t.Fatalf("Start(%d) error = %v", questID, err)
	}
	var result *AdvanceResult
	for i := 0; i < quest.StepCount; i++ {
		var err error
		result, err = svc.Advance(ac, questID, quest.StepInput{})
		if err != nil {
			t.Fatalf("Advance(%d) step %d error = %v", questID, i, err)
		}
	}
	return result
}

func TestQuestRunCreditsRewardOnce(t *testing.T) {
	db := openTestDB(t)
	ac := signUp(t, db, "learner@example.com")
	q := createQuest(t, db, "Pricing Basics", 50, 0)
	svc := newTestQuestService(db)

	start, err := svc.Start(ac, q.ID)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if start.Step != 0 || start.StepName != quest.StepPremium {
		t.Errorf("Start() = %+v", start)
	}

	for i := 0; i < quest.StepCount-1; i++ {
		result, err := svc.Advance(ac, q.ID, quest.StepInput{Premium: 1500})
		if err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
		if result.Completed || result.CoinsEarned != 0 {
			t.Fatalf("step %d completed early: %+v", i, result)
		}
	}
	if active, ok := svc.Active(ac); !ok || active.Step != 2 {
		t.Fatalf("Active() = %+v, %v", active, ok)
	}

	result, err := svc.Advance(ac, q.ID, quest.StepInput{})
	if err != nil {
		t.Fatalf("final Advance() error = %v", err)
	}
	if !result.Completed || result.CoinsEarned != 50 {
		t.Fatalf("final Advance() = %+v", result)
	}
	if result.Progress.Feedback == nil || result.Progress.Feedback.Title != "Well Priced" {
		t.Errorf("feedback = %+v, want Well Priced", result.Progress.Feedback)
	}
	if result.Profile.RiskCoins != 50 || result.Profile.TotalQuestsCompleted != 1 || result.Profile.CurrentStreak != 1 {
		t.Errorf("profile after completion = %+v", result.Profile)
	}

	if _, err := svc.Advance(ac, q.ID, quest.StepInput{}); !errors.Is(err, quest.ErrNoActiveQuest) {
		t.Errorf("advance after completion error = %v, want ErrNoActiveQuest", err)
	}
	if profile := getProfile(t, db, ac.UserID()); profile.RiskCoins != 50 {
		t.Errorf("stored coins = %d, want 50", profile.RiskCoins)
	}

	list, err := svc.List(ac)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].TimesCompleted != 1 {
		t.Errorf("List() = %+v", list)
	}

	activities, err := NewAchievementService(db).Activities(ac.UserID(), 10)
	if err != nil {
		t.Fatalf("Activities() error = %v", err)
	}
	if len(activities) != 1 || activities[0].ActivityType != models.ActivityQuestCompleted || activities[0].CoinsEarned != 50 {
		t.Errorf("activities = %+v", activities)
	}
}

func TestQuestAdvanceValidatesSliders(t *testing.T) {
	db := openTestDB(t)
	ac := signUp(t, db, "slider@example.com")
	q := createQuest(t, db, "Sliders", 10, 0)
	svc := newTestQuestService(db)

	if _, err := svc.Advance(ac, q.ID, quest.StepInput{}); !errors.Is(err, quest.ErrNoActiveQuest) {
		t.Errorf("advance without start error = %v", err)
	}
	if _, err := svc.Start(ac, q.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var validationErr validation.ValidationError
	if _, err := svc.Advance(ac, q.ID, quest.StepInput{Premium: 50}); !errors.As(err, &validationErr) || validationErr.Field != "premium" {
		t.Errorf("out of range premium error = %v", err)
	}
	if active, _ := svc.Active(ac); active.Step != 0 {
		t.Errorf("rejected input advanced the run to step %d", active.Step)
	}

	other := createQuest(t, db, "Other", 10, 0)
	if _, err := svc.Advance(ac, other.ID, quest.StepInput{}); !errors.Is(err, quest.ErrQuestMismatch) {
		t.Errorf("advance on another quest error = %v, want ErrQuestMismatch", err)
	}
	if err := svc.Abandon(ac, q.ID); err != nil {
		t.Fatalf("Abandon() error = %v", err)
	}
	if _, ok := svc.Active(ac); ok {
		t.Error("run still active after Abandon()")
	}
}

func TestQuestUnlockAfter(t *testing.T) {
	db := openTestDB(t)
	ac := signUp(t, db, "unlock@example.com")
	intro := createQuest(t, db, "Intro", 20, 0)
	advanced := createQuest(t, db, "Advanced", 40, 1)
	svc := newTestQuestService(db)

	if _, err := svc.Start(ac, advanced.ID); !errors.Is(err, ErrQuestLocked) {
		t.Fatalf("Start(locked) error = %v, want ErrQuestLocked", err)
	}
	got, err := svc.Get(ac, advanced.ID)
	if err != nil || !got.Locked {
		t.Fatalf("Get(locked) = %+v, %v", got, err)
	}

	runQuest(t, svc, ac, intro.ID)

	got, err = svc.Get(ac, advanced.ID)
	if err != nil || got.Locked {
		t.Errorf("quest still locked after completing intro: %+v, %v", got, err)
	}
	if _, err := svc.Start(ac, advanced.ID); err != nil {
		t.Errorf("Start(unlocked) error = %v", err)
	}
	if _, err := svc.Start(ac, 9999); !errors.Is(err, ErrQuestNotFound) {
		t.Errorf("Start(missing) error = %v, want ErrQuestNotFound", err)
	}
}

func TestQuestStreakAndRank(t *testing.T) {
	db := openTestDB(t)
	ac := signUp(t, db, "streak@example.com")
	q := createQuest(t, db, "Daily", 100, 0)
	svc := newTestQuestService(db)

	day := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }
	first := runQuest(t, svc, ac, q.ID)
	if first.Profile.CurrentStreak != 1 || first.Profile.CommunityRank != "Junior Analyst" {
		t.Errorf("after day 1: %+v", first.Profile)
	}

	// Same day keeps the streak
	second := runQuest(t, svc, ac, q.ID)
	if second.Profile.CurrentStreak != 1 {
		t.Errorf("same day streak = %d, want 1", second.Profile.CurrentStreak)
	}

	svc.now = func() time.Time { return day.Add(2 * time.Hour) }
	third := runQuest(t, svc, ac, q.ID)
	if third.Profile.CurrentStreak != 2 || third.Profile.CommunityRank != "Risk Analyst" {
		t.Errorf("after next day: %+v", third.Profile)
	}

	svc.now = func() time.Time { return day.AddDate(0, 0, 5) }
	fourth := runQuest(t, svc, ac, q.ID)
	if fourth.Profile.CurrentStreak != 1 {
		t.Errorf("streak after gap = %d, want 1", fourth.Profile.CurrentStreak)
	}
	if fourth.Profile.RiskCoins != 400 || fourth.Profile.TotalQuestsCompleted != 4 {
		t.Errorf("totals = %+v", fourth.Profile)
	}
}

func TestQuestCompletionAwardsAchievement(t *testing.T) {
	db := openTestDB(t)
	ac := signUp(t, db, "badge@example.com")
	q := createQuest(t, db, "Badge Run", 50, 0)
	createAchievement(t, db, "first_quest", `{"quests_completed":1}`, 25)
	createAchievement(t, db, "coin_collector", `{"risk_coins":75}`, 10)
	svc := newTestQuestService(db)

	result := runQuest(t, svc, ac, q.ID)
	if len(result.Achievements) != 2 {
		t.Fatalf("achievements = %+v, want first_quest and coin_collector", result.Achievements)
	}
	if result.Profile.RiskCoins != 85 {
		t.Errorf("coins = %d, want 85", result.Profile.RiskCoins)
	}

	again := runQuest(t, svc, ac, q.ID)
	if len(again.Achievements) != 0 {
		t.Errorf("achievements awarded twice: %+v", again.Achievements)
	}
}

func TestQuestAdministration(t *testing.T) {
	db := openTestDB(t)
	admin := signUp(t, db, "admin@example.com")
	student := signUp(t, db, "student@example.com")
	svc := newTestQuestService(db)

	input := QuestInput{Title: "Reserving 101", Difficulty: "Intermediate", RewardCoins: 75, Content: json.RawMessage(`{"intro":"hi"}`)}

	if _, err := svc.CreateQuest(student, input); !errors.Is(err, ErrForbidden) {
		t.Errorf("student CreateQuest() error = %v, want ErrForbidden", err)
	}

	var validationErr validation.ValidationError
	bad := input
	bad.Difficulty = "legendary"
	if _, err := svc.CreateQuest(admin, bad); !errors.As(err, &validationErr) || validationErr.Field != "difficulty" {
		t.Errorf("bad difficulty error = %v", err)
	}
	bad = input
	bad.Content = json.RawMessage(`{broken`)
	if _, err := svc.CreateQuest(admin, bad); !errors.As(err, &validationErr) || validationErr.Field != "content" {
		t.Errorf("bad content error = %v", err)
	}
	missing := int64(404)
	bad = input
	bad.CategoryID = &missing
	if _, err := svc.CreateQuest(admin, bad); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("missing category error = %v, want ErrCategoryNotFound", err)
	}

	created, err := svc.CreateQuest(admin, input)
	if err != nil {
		t.Fatalf("CreateQuest() error = %v", err)
	}
	if created.Difficulty != models.DifficultyIntermediate || !created.IsActive {
		t.Errorf("CreateQuest() = %+v", created)
	}

	inactive := false
	input.IsActive = &inactive
	input.Title = "Reserving 102"
	updated, err := svc.UpdateQuest(admin, created.ID, input)
	if err != nil {
		t.Fatalf("UpdateQuest() error = %v", err)
	}
	if updated.Title != "Reserving 102" || updated.IsActive {
		t.Errorf("UpdateQuest() = %+v", updated)
	}

	if _, err := svc.Get(student, created.ID); !errors.Is(err, ErrQuestNotFound) {
		t.Errorf("student sees inactive quest: %v", err)
	}
	if _, err := svc.Get(admin, created.ID); err != nil {
		t.Errorf("staff cannot see inactive quest: %v", err)
	}
	if _, err := svc.UpdateQuest(admin, 9999, input); !errors.Is(err, ErrQuestNotFound) {
		t.Errorf("UpdateQuest(missing) error = %v", err)
	}

	if err := svc.DeleteQuest(student, created.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("student DeleteQuest() error = %v", err)
	}
	if err := svc.DeleteQuest(admin, created.ID); err != nil {
		t.Fatalf("DeleteQuest() error = %v", err)
	}
	if err := svc.DeleteQuest(admin, created.ID); !errors.Is(err, ErrQuestNotFound) {
		t.Errorf("second DeleteQuest() error = %v, want ErrQuestNotFound", err)
	}
	if count, _ := repository.NewQuestRepository(db).Count(); count != 0 {
		t.Errorf("quest count = %d, want 0", count)
	}
}

func TestSignOutKeepsRunOfOtherSession(t *testing.T) {
	db := openTestDB(t)
	signUp(t, db, "devices@example.com")
	q := createQuest(t, db, "Loss Ratios", 50, 0)

	tracker := quest.NewTracker()
	quests := NewQuestService(db, tracker, NewAchievementService(db))
	contexts := NewAppContextService(newTestAuthService(db, nil), NewProfileService(repository.NewProfileRepository(db)), tracker)

	laptop, err := contexts.SignIn("devices@example.com", testPassword)
	if err != nil {
		t.Fatalf("SignIn(laptop) error = %v", err)
	}
	phone, err := contexts.SignIn("devices@example.com", testPassword)
	if err != nil {
		t.Fatalf("SignIn(phone) error = %v", err)
	}
	if _, err := quests.Start(laptop.AppContext, q.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := contexts.SignOut(phone.AppContext); err != nil {
		t.Fatalf("SignOut(phone) error = %v", err)
	}
	if p, ok := quests.Active(laptop.AppContext); !ok || p.QuestID != q.ID {
		t.Fatalf("signing out the phone dropped the laptop run: %+v, %v", p, ok)
	}

	if err := contexts.SignOut(laptop.AppContext); err != nil {
		t.Fatalf("SignOut(laptop) error = %v", err)
	}
	if _, ok := quests.Active(laptop.AppContext); ok {
		t.Error("signing out the laptop kept its run")
	}
}
