package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/quest"
	"actuarialhub/internal/service"
)

// QuestHandler serves quests and quest runs
type QuestHandler struct {
	questService *service.QuestService
}

// NewQuestHandler creates a new quest handler
func NewQuestHandler(questService *service.QuestService) *QuestHandler {
	return &QuestHandler{questService: questService}
}

// ListQuests returns every visible quest with the caller's lock and completion state
func (h *QuestHandler) ListQuests(w http.ResponseWriter, r *http.Request) {
	quests, err := h.questService.List(appctx.From(r.Context()))
	if err != nil {
		respondWithServiceError(w, err, "Error listing quests")
		return
	}
	respondJSON(w, http.StatusOK, quests)
}

// GetQuest returns one quest
func (h *QuestHandler) GetQuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	q, err := h.questService.Get(appctx.From(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, err, "Error loading quest")
		return
	}
	respondJSON(w, http.StatusOK, q)
}

// ListCategories returns the quest categories
func (h *QuestHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.questService.ListCategories()
	if err != nil {
		respondWithServiceError(w, err, "Error listing quest categories")
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// StartQuest begins a run, replacing any run already in progress
func (h *QuestHandler) StartQuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	progress, err := h.questService.Start(appctx.From(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, err, "Error starting quest")
		return
	}
	respondJSON(w, http.StatusOK, progress)
}

// AdvanceQuest moves the active run forward one step. The body is optional.
func (h *QuestHandler) AdvanceQuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var input quest.StepInput
	if r.ContentLength != 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := decodeOptionalJSON(r.Body, &input); err != nil {
			respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
			return
		}
	}

	result, err := h.questService.Advance(appctx.From(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, err, "Error advancing quest")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// AbandonQuest discards the active run
func (h *QuestHandler) AbandonQuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.questService.Abandon(appctx.From(r.Context()), id); err != nil {
		respondWithServiceError(w, err, "Error abandoning quest")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActiveQuest returns the run in progress, if any
func (h *QuestHandler) ActiveQuest(w http.ResponseWriter, r *http.Request) {
	progress, ok := h.questService.Active(appctx.From(r.Context()))
	if !ok {
		respondWithServiceError(w, quest.ErrNoActiveQuest, "")
		return
	}
	respondJSON(w, http.StatusOK, progress)
}

// CreateQuest adds a quest (staff)
func (h *QuestHandler) CreateQuest(w http.ResponseWriter, r *http.Request) {
	var input service.QuestInput
	if !decodeJSON(w, r, &input) {
		return
	}

	q, err := h.questService.CreateQuest(appctx.From(r.Context()), input)
	if err != nil {
		respondWithServiceError(w, err, "Error creating quest")
		return
	}
	respondJSON(w, http.StatusCreated, q)
}

// UpdateQuest replaces a quest's editable fields (staff)
func (h *QuestHandler) UpdateQuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var input service.QuestInput
	if !decodeJSON(w, r, &input) {
		return
	}

	q, err := h.questService.UpdateQuest(appctx.From(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, err, "Error updating quest")
		return
	}
	respondJSON(w, http.StatusOK, q)
}

// DeleteQuest removes a quest (staff)
func (h *QuestHandler) DeleteQuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.questService.DeleteQuest(appctx.From(r.Context()), id); err != nil {
		respondWithServiceError(w, err, "Error deleting quest")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeOptionalJSON decodes r into dst, treating an empty body as no input
func decodeOptionalJSON(r io.Reader, dst interface{}) error {
	err := json.NewDecoder(r).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
