package handlers

import (
	"net/http"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/sandbox"
	"actuarialhub/internal/service"
)

// SandboxHandler serves the pricing simulator
type SandboxHandler struct {
	sandboxService *service.SandboxService
}

// NewSandboxHandler creates a new sandbox handler
func NewSandboxHandler(sandboxService *service.SandboxService) *SandboxHandler {
	return &SandboxHandler{sandboxService: sandboxService}
}

type sandboxRunRequest struct {
	Premium    float64 `json:"premium"`
	Deductible float64 `json:"deductible"`
	// Seed replays a previous run when set
	Seed *int64 `json:"seed,omitempty"`
}

// RunSimulation prices the synthetic book and updates the best score
func (h *SandboxHandler) RunSimulation(w http.ResponseWriter, r *http.Request) {
	var req sandboxRunRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := sandbox.Params{Premium: req.Premium, Deductible: req.Deductible}
	run, err := h.sandboxService.Run(r.Context(), appctx.From(r.Context()), params, req.Seed)
	if err != nil {
		respondWithServiceError(w, err, "Error running simulation")
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// BestScore returns the caller's best simulation score
func (h *SandboxHandler) BestScore(w http.ResponseWriter, r *http.Request) {
	best, err := h.sandboxService.Best(appctx.From(r.Context()))
	if err != nil {
		respondWithServiceError(w, err, "Error loading sandbox score")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"best_score": best})
}
