package service

import (
	"context"
	"errors"
	"testing"

	"actuarialhub/internal/models"
	"actuarialhub/internal/validation"
)

func TestRegisterFirstUserIsAdmin(t *testing.T) {
	db := openTestDB(t)
	mailer := newFakeMailer()
	auth := newTestAuthService(db, mailer)
	ctx := context.Background()

	first, err := auth.Register(ctx, "Owner@Example.com", testPassword, "Owner")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	second, err := auth.Register(ctx, "student@example.com", testPassword, "Student")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if first.Role != models.RoleAdmin {
		t.Errorf("first role = %q, want admin", first.Role)
	}
	if first.Email != "owner@example.com" {
		t.Errorf("email not normalized: %q", first.Email)
	}
	if second.Role != models.RoleStudent {
		t.Errorf("second role = %q, want student", second.Role)
	}
	if len(mailer.welcome) != 2 {
		t.Errorf("welcome emails = %v, want 2", mailer.welcome)
	}
}

func TestRegisterValidation(t *testing.T) {
	db := openTestDB(t)
	auth := newTestAuthService(db, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		userName string
		field    string
	}{
		{"bad email", "not-an-email", testPassword, "Name", "email"},
		{"short password", "a@example.com", "short", "Name", "password"},
		{"short name", "a@example.com", testPassword, "A", "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tt.email, tt.password, tt.userName)
			var validationErr validation.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Register() error = %v, want ValidationError", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("field = %q, want %q", validationErr.Field, tt.field)
			}
		})
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	auth := newTestAuthService(db, nil)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "dup@example.com", testPassword, "First"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := auth.Register(ctx, "DUP@example.com", testPassword, "Second"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register() error = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterClosed(t *testing.T) {
	db := openTestDB(t)
	auth := newTestAuthService(db, nil)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "admin@example.com", testPassword, "Admin"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := auth.SetRegistrationEnabled(false); err != nil {
		t.Fatalf("SetRegistrationEnabled() error = %v", err)
	}
	if auth.IsRegistrationEnabled() {
		t.Fatal("registration should be closed")
	}

	if _, err := auth.Register(ctx, "late@example.com", testPassword, "Late"); !errors.Is(err, ErrRegistrationClosed) {
		t.Errorf("Register() error = %v, want ErrRegistrationClosed", err)
	}
	if _, _, err := auth.OAuthLogin("google", "sub-1", "late@example.com", "Late"); !errors.Is(err, ErrRegistrationClosed) {
		t.Errorf("OAuthLogin() error = %v, want ErrRegistrationClosed", err)
	}
}

func TestLoginSessionAndToken(t *testing.T) {
	db := openTestDB(t)
	auth := newTestAuthService(db, nil)

	if _, err := auth.Register(context.Background(), "login@example.com", testPassword, "Login"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, _, err := auth.Login("login@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with wrong password error = %v", err)
	}
	if _, _, err := auth.Login("nobody@example.com", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() for unknown user error = %v", err)
	}

	session, user, err := auth.Login(" Login@Example.com ", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	got, err := auth.ValidateSession(session.ID)
	if err != nil || got.ID != user.ID {
		t.Fatalf("ValidateSession() = %v, %v", got, err)
	}

	token, err := auth.IssueToken(session)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	tokenUser, sessionID, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if tokenUser.ID != user.ID || sessionID != session.ID {
		t.Errorf("ValidateToken() = %d/%s, want %d/%s", tokenUser.ID, sessionID, user.ID, session.ID)
	}

	if err := auth.Logout(session.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := auth.ValidateSession(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ValidateSession() after logout error = %v", err)
	}
	if _, _, err := auth.ValidateToken(token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ValidateToken() after logout error = %v", err)
	}
	if _, _, err := auth.ValidateToken("garbage"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ValidateToken(garbage) error = %v", err)
	}
}

func TestPasswordResetSignsOutEverywhere(t *testing.T) {
	db := openTestDB(t)
	mailer := newFakeMailer()
	auth := newTestAuthService(db, mailer)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "reset@example.com", testPassword, "Reset"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	session, _, err := auth.Login("reset@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	token, err := auth.RequestPasswordReset(ctx, "reset@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if token == "" || mailer.resets["reset@example.com"] != token {
		t.Fatalf("reset token %q was not mailed: %v", token, mailer.resets)
	}

	if err := auth.ResetPassword(token, "short"); err == nil {
		t.Error("ResetPassword() accepted a short password")
	}
	if err := auth.ResetPassword(token, "brand-new-pass-1"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}

	if _, err := auth.ValidateSession(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("old session still valid: %v", err)
	}
	if err := auth.ResetPassword(token, "another-pass-2"); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("reused token error = %v, want ErrInvalidResetToken", err)
	}
	if _, _, err := auth.Login("reset@example.com", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still works: %v", err)
	}
	if _, _, err := auth.Login("reset@example.com", "brand-new-pass-1"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	db := openTestDB(t)
	mailer := newFakeMailer()
	auth := newTestAuthService(db, mailer)

	token, err := auth.RequestPasswordReset(context.Background(), "ghost@example.com")
	if err != nil || token != "" {
		t.Errorf("RequestPasswordReset() = %q, %v; want silent success", token, err)
	}
	if len(mailer.resets) != 0 {
		t.Errorf("unexpected reset emails: %v", mailer.resets)
	}
}

func TestOAuthLoginLinksAccounts(t *testing.T) {
	db := openTestDB(t)
	auth := newTestAuthService(db, nil)

	_, created, err := auth.OAuthLogin("google", "g-123", "oauth@example.com", "")
	if err != nil {
		t.Fatalf("OAuthLogin() error = %v", err)
	}
	if created.Name != "oauth" {
		t.Errorf("derived name = %q, want oauth", created.Name)
	}

	_, again, err := auth.OAuthLogin("google", "g-123", "oauth@example.com", "OAuth User")
	if err != nil {
		t.Fatalf("second OAuthLogin() error = %v", err)
	}
	if again.ID != created.ID {
		t.Errorf("second login created a new user %d, want %d", again.ID, created.ID)
	}

	if _, _, err := auth.OAuthLogin("facebook", "f-9", "oauth@example.com", ""); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("OAuthLogin() with another provider error = %v, want ErrEmailTaken", err)
	}
}

func TestSetUserRole(t *testing.T) {
	db := openTestDB(t)
	admin := signUp(t, db, "admin@example.com")
	student := signUp(t, db, "student@example.com")
	auth := newTestAuthService(db, nil)

	if err := auth.SetUserRole(admin.UserID(), admin.UserID(), models.RoleStudent); !errors.Is(err, ErrForbidden) {
		t.Errorf("self demotion error = %v, want ErrForbidden", err)
	}
	var validationErr validation.ValidationError
	if err := auth.SetUserRole(admin.UserID(), student.UserID(), "overlord"); !errors.As(err, &validationErr) {
		t.Errorf("unknown role error = %v, want ValidationError", err)
	}
	if err := auth.SetUserRole(admin.UserID(), 9999, models.RoleInstructor); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user error = %v, want ErrUserNotFound", err)
	}

	if err := auth.SetUserRole(admin.UserID(), student.UserID(), models.RoleInstructor); err != nil {
		t.Fatalf("SetUserRole() error = %v", err)
	}
	users, err := auth.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	for _, u := range users {
		if u.ID == student.UserID() && u.Role != models.RoleInstructor {
			t.Errorf("role = %q, want instructor", u.Role)
		}
	}
}
