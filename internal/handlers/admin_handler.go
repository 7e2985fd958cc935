package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/service"
)

// maxBackupBytes caps uploaded backups
const maxBackupBytes = 50 << 20

// AdminHandler handles admin-specific routes
type AdminHandler struct {
	authService   *service.AuthService
	backupService *service.BackupService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *service.AuthService, backupService *service.BackupService) *AdminHandler {
	return &AdminHandler{
		authService:   authService,
		backupService: backupService,
	}
}

// ListUsers returns every account
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers()
	if err != nil {
		respondWithServiceError(w, err, "Error listing users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

type roleRequest struct {
	Role string `json:"role"`
}

// UpdateUserRole changes another user's role
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ac := appctx.From(r.Context())
	if err := h.authService.SetUserRole(ac.UserID(), id, req.Role); err != nil {
		respondWithServiceError(w, err, "Error updating user role")
		return
	}

	log.Printf("Admin %s set role of user %d to %s", ac.User.Email, id, req.Role)
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "role": req.Role})
}

type registrationRequest struct {
	Enabled bool `json:"enabled"`
}

// GetRegistration reports whether sign up is open
func (h *AdminHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, registrationRequest{Enabled: h.authService.IsRegistrationEnabled()})
}

// UpdateRegistration opens or closes sign up
func (h *AdminHandler) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.SetRegistrationEnabled(req.Enabled); err != nil {
		respondWithServiceError(w, err, "Error updating registration setting")
		return
	}

	log.Printf("Admin %s set registration enabled=%v", appctx.From(r.Context()).User.Email, req.Enabled)
	respondJSON(w, http.StatusOK, req)
}

// DatabaseStats returns the row count of every backed up table
func (h *AdminHandler) DatabaseStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.backupService.TableCounts()
	if err != nil {
		respondWithServiceError(w, err, "Error getting database stats")
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

// ExportDatabase streams a JSON backup as a download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("actuarialhub_backup_%s.json", timestamp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.backupService.ExportToWriter(w); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to export database", "Error exporting database", err)
		return
	}

	log.Printf("Database exported by admin user %s", appctx.From(r.Context()).User.Email)
}

// ImportDatabase restores a JSON backup sent as the request body.
// Query: clear=true wipes existing data first.
func (h *AdminHandler) ImportDatabase(w http.ResponseWriter, r *http.Request) {
	clearData := r.URL.Query().Get("clear") == "true"
	body := http.MaxBytesReader(w, r.Body, maxBackupBytes)

	if err := h.backupService.ImportFromReader(body, clearData); err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to import database", "Error importing database", err)
		return
	}

	log.Printf("Database imported successfully by admin user %s (clear_data=%v)", appctx.From(r.Context()).User.Email, clearData)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Database imported successfully"})
}
