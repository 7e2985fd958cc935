package service

import "errors"

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrForbidden          = errors.New("forbidden")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrQuestNotFound      = errors.New("quest not found")
	ErrQuestLocked        = errors.New("quest is locked")
	ErrArticleNotFound    = errors.New("article not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrPostNotFound       = errors.New("post not found")
)
