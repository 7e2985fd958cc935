package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"actuarialhub/internal/models"
	"actuarialhub/internal/repository"
	"actuarialhub/internal/validation"
)

// ProfileUpdate holds the user editable profile fields
type ProfileUpdate struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// ProfileService manages the per-user progress rows
type ProfileService struct {
	profileRepo *repository.ProfileRepository
}

// NewProfileService creates a new profile service
func NewProfileService(profileRepo *repository.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// EnsureProfile returns the user's profile, creating it on first sign in
func (s *ProfileService) EnsureProfile(user *models.User) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(user.ID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	username, err := s.availableUsername(usernameFromEmail(user.Email), user.ID)
	if err != nil {
		return nil, err
	}

	err = s.profileRepo.Create(&models.Profile{
		UserID:        user.ID,
		Username:      username,
		FullName:      user.Name,
		CommunityRank: models.DefaultCommunityRank,
	})
	if err != nil {
		return nil, err
	}
	return s.profileRepo.GetByUserID(user.ID)
}

// maxUsernameAttempts bounds the search for a free generated username
const maxUsernameAttempts = 50

// availableUsername returns base if it is free, otherwise base_<userID>,
// then base_<userID>_2, base_<userID>_3 ... until an unused name is found.
// Every candidate is cut to fit the 30 character limit.
func (s *ProfileService) availableUsername(base string, userID int64) (string, error) {
	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		candidate := usernameCandidate(base, userID, attempt)
		taken, err := s.profileRepo.UsernameTaken(candidate, userID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("failed to find a free username for user %d", userID)
}

func usernameCandidate(base string, userID int64, attempt int) string {
	if attempt == 0 {
		return base
	}
	suffix := fmt.Sprintf("_%d", userID)
	if attempt > 1 {
		suffix += fmt.Sprintf("_%d", attempt)
	}
	if len(base)+len(suffix) > 30 {
		base = base[:30-len(suffix)]
	}
	return base + suffix
}

// Get returns the user's profile
func (s *ProfileService) Get(userID int64) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// Update validates and saves the editable fields
func (s *ProfileService) Update(userID int64, update ProfileUpdate) (*models.Profile, error) {
	username := strings.ToLower(strings.TrimSpace(update.Username))
	fullName := strings.TrimSpace(update.FullName)
	avatarURL := strings.TrimSpace(update.AvatarURL)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidateMaxLength("full_name", fullName, 100); err != nil {
		return nil, err
	}
	if avatarURL != "" {
		if err := validateHTTPURL("avatar_url", avatarURL); err != nil {
			return nil, err
		}
	}

	taken, err := s.profileRepo.UsernameTaken(username, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	if err := s.profileRepo.UpdateDetails(userID, username, fullName, avatarURL); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return s.Get(userID)
}

// usernameFromEmail derives a valid handle from the local part of an email
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")

	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	username := b.String()
	for len(username) < 3 {
		username += "_"
	}
	if len(username) > 30 {
		username = username[:30]
	}
	return username
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validation.ValidationError{Field: field, Message: "must be an http or https URL"}
	}
	return validation.ValidateMaxLength(field, raw, 500)
}
