package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/database"
	"actuarialhub/internal/models"
	"actuarialhub/internal/repository"
	"actuarialhub/internal/security"
)

const testPassword = "correct-horse-9"

func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

type fakeMailer struct {
	mu      sync.Mutex
	enabled bool
	welcome []string
	resets  map[string]string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{enabled: true, resets: make(map[string]string)}
}

func (m *fakeMailer) IsEnabled() bool { return m.enabled }

func (m *fakeMailer) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcome = append(m.welcome, toEmail)
	return nil
}

func (m *fakeMailer) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[toEmail] = resetToken
	return nil
}

type publishedEvent struct {
	eventType string
	payload   interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType, payload})
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, e := range p.events {
		types = append(types, e.eventType)
	}
	return types
}

// wordFilter flags any of its words appearing in the text
type wordFilter []string

func (f wordFilter) FindBadWords(text string) ([]string, error) {
	var found []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		for _, word := range f {
			if strings.Trim(field, ".,!?") == word {
				found = append(found, word)
			}
		}
	}
	return found, nil
}

func newTestAuthService(db *database.DB, mailer Mailer) *AuthService {
	return NewAuthService(db, security.NewTokenIssuer("test-jwt-secret"), mailer, time.Hour)
}

// signUp registers an account and returns its signed-in context
func signUp(t *testing.T, db *database.DB, email string) *appctx.AppContext {
	t.Helper()

	user, err := newTestAuthService(db, nil).Register(context.Background(), email, testPassword, "Test User")
	if err != nil {
		t.Fatalf("Register(%s) error = %v", email, err)
	}
	profile, err := NewProfileService(repository.NewProfileRepository(db)).EnsureProfile(user)
	if err != nil {
		t.Fatalf("EnsureProfile(%s) error = %v", email, err)
	}
	return &appctx.AppContext{User: user, Profile: profile, SessionID: "test-session"}
}

func createQuest(t *testing.T, db *database.DB, title string, reward, unlockAfter int) *models.Quest {
	t.Helper()

	q := &models.Quest{
		Title:       title,
		Difficulty:  models.DifficultyBeginner,
		RewardCoins: reward,
		IsActive:    true,
		UnlockAfter: unlockAfter,
	}
	if err := repository.NewQuestRepository(db).Create(q); err != nil {
		t.Fatalf("Create quest error = %v", err)
	}
	return q
}

func createAchievement(t *testing.T, db *database.DB, code, criteria string, reward int) *models.Achievement {
	t.Helper()

	a := &models.Achievement{
		Code:        code,
		Name:        strings.ToUpper(code),
		Criteria:    []byte(criteria),
		RewardCoins: reward,
		IsActive:    true,
	}
	if err := repository.NewAchievementRepository(db).Create(a); err != nil {
		t.Fatalf("Create achievement error = %v", err)
	}
	return a
}

func getProfile(t *testing.T, db *database.DB, userID int64) *models.Profile {
	t.Helper()

	profile, err := repository.NewProfileRepository(db).GetByUserID(userID)
	if err != nil || profile == nil {
		t.Fatalf("GetByUserID(%d) = %v, %v", userID, profile, err)
	}
	return profile
}
