package handlers

import (
	"net/http"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/service"
)

// ProfileHandler serves the signed-in user's profile
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfile returns the current profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ac := appctx.From(r.Context())

	profile, err := h.profileService.Get(ac.UserID())
	if err != nil {
		respondWithServiceError(w, err, "Error loading profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// UpdateProfile changes the username, full name or avatar
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ac := appctx.From(r.Context())

	var update service.ProfileUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	profile, err := h.profileService.Update(ac.UserID(), update)
	if err != nil {
		respondWithServiceError(w, err, "Error updating profile")
		return
	}
	ac.Profile = profile
	respondJSON(w, http.StatusOK, profile)
}
