package handlers

import (
	"net/http"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/service"
)

const defaultActivityLimit = 20

// AchievementHandler serves earned achievements and the activity feed
type AchievementHandler struct {
	achievementService *service.AchievementService
}

// NewAchievementHandler creates a new achievement handler
func NewAchievementHandler(achievementService *service.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievementService: achievementService}
}

// ListAchievements returns the caller's earned achievements
func (h *AchievementHandler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	earned, err := h.achievementService.ListForUser(appctx.From(r.Context()).UserID())
	if err != nil {
		respondWithServiceError(w, err, "Error listing achievements")
		return
	}
	respondJSON(w, http.StatusOK, earned)
}

// ListActivities returns the caller's recent activity. Query: limit.
func (h *AchievementHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	if limit == 0 {
		limit = defaultActivityLimit
	}

	activities, err := h.achievementService.Activities(appctx.From(r.Context()).UserID(), limit)
	if err != nil {
		respondWithServiceError(w, err, "Error listing activities")
		return
	}
	respondJSON(w, http.StatusOK, activities)
}
