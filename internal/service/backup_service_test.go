package service

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
	"actuarialhub/internal/repository"
)

// populate gives every backed up table at least one row
func populate(t *testing.T, db *database.DB) {
	t.Helper()

	author := signUp(t, db, "author@example.com")
	reader := signUp(t, db, "reader@example.com")
	createAchievement(t, db, "first_quest", `{"quests_completed":1}`, 10)

	category := &models.QuestCategory{Name: "Pricing"}
	if _, err := repository.NewQuestRepository(db).CreateCategory(category); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	q := createQuest(t, db, "Backup Quest", 20, 0)
	runQuest(t, newTestQuestService(db), author, q.ID)

	news := NewNewsService(repository.NewNewsRepository(db))
	newsCategory, err := news.CreateCategory(author, CategoryInput{Name: "Industry"})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if _, err := news.CreateArticle(author, ArticleInput{Title: "Rates rise", CategoryID: &newsCategory.ID}); err != nil {
		t.Fatalf("CreateArticle() error = %v", err)
	}

	community := newTestCommunityService(db, nil)
	post, err := community.CreatePost(author, PostInput{Title: "Backups", Content: "Keep them.", Tags: []string{"ops"}})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if _, err := community.Reply(reader, post.ID, "Agreed."); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if _, err := community.ToggleLike(reader, post.ID); err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	source := openTestDB(t)
	populate(t, source)

	want, err := NewBackupService(source).TableCounts()
	if err != nil {
		t.Fatalf("TableCounts() error = %v", err)
	}
	for table, count := range want {
		if count == 0 {
			t.Errorf("populate left %s empty", table)
		}
	}

	var buf bytes.Buffer
	if err := NewBackupService(source).ExportToWriter(&buf); err != nil {
		t.Fatalf("ExportToWriter() error = %v", err)
	}

	target := openTestDB(t)
	signUp(t, target, "stale@example.com")

	restore := NewBackupService(target)
	if err := restore.ImportFromReader(bytes.NewReader(buf.Bytes()), true); err != nil {
		t.Fatalf("ImportFromReader() error = %v", err)
	}

	got, err := restore.TableCounts()
	if err != nil {
		t.Fatalf("TableCounts() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("restored counts = %v, want %v", got, want)
	}

	// Restored credentials still work and new rows get fresh IDs
	auth := newTestAuthService(target, nil)
	if _, _, err := auth.Login("author@example.com", testPassword); err != nil {
		t.Errorf("Login() after restore error = %v", err)
	}
	if _, _, err := auth.Login("stale@example.com", testPassword); err == nil {
		t.Error("cleared account can still sign in")
	}
	newcomer := signUp(t, target, "newcomer@example.com")
	if newcomer.UserID() <= 2 {
		t.Errorf("new user ID = %d, want above restored IDs", newcomer.UserID())
	}

	if profile := getProfile(t, target, 1); profile.RiskCoins != 30 || profile.TotalQuestsCompleted != 1 {
		t.Errorf("restored profile = %+v", profile)
	}
}

func TestImportFailureLeavesDatabaseUntouched(t *testing.T) {
	db := openTestDB(t)
	populate(t, db)
	svc := NewBackupService(db)

	before, err := svc.TableCounts()
	if err != nil {
		t.Fatalf("TableCounts() error = %v", err)
	}

	var buf bytes.Buffer
	if err := svc.ExportToWriter(&buf); err != nil {
		t.Fatalf("ExportToWriter() error = %v", err)
	}

	// Importing over existing rows collides on primary keys
	if err := svc.ImportFromReader(&buf, false); err == nil {
		t.Fatal("ImportFromReader() without clearing succeeded, want key conflict")
	}
	if err := svc.ImportFromReader(strings.NewReader("{not json"), true); err == nil {
		t.Fatal("ImportFromReader() accepted malformed JSON")
	}

	after, err := svc.TableCounts()
	if err != nil {
		t.Fatalf("TableCounts() error = %v", err)
	}
	if !reflect.DeepEqual(after, before) {
		t.Errorf("counts changed by failed import: %v -> %v", before, after)
	}
}
