package appctx

import (
	"context"
	"testing"

	"actuarialhub/internal/models"
)

func TestContextRoundTrip(t *testing.T) {
	if From(context.Background()) != nil {
		t.Fatal("empty context should carry no AppContext")
	}

	ac := &AppContext{User: &models.User{ID: 7, Role: models.RoleInstructor}, SessionID: "s1"}
	got := From(With(context.Background(), ac))
	if got != ac {
		t.Fatalf("From() = %p, want %p", got, ac)
	}
	if got.UserID() != 7 || !got.IsStaff() || got.IsAdmin() {
		t.Errorf("unexpected role helpers for %+v", got.User)
	}
}

func TestNilAppContext(t *testing.T) {
	var ac *AppContext
	if ac.UserID() != 0 || ac.IsAdmin() || ac.IsStaff() {
		t.Error("nil AppContext should have no identity")
	}
}
