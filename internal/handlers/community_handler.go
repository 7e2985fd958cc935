package handlers

import (
	"net/http"

	"actuarialhub/internal/appctx"
	"actuarialhub/internal/models"
	"actuarialhub/internal/realtime"
	"actuarialhub/internal/service"
)

// CommunityHandler serves posts, replies, likes and the live event feed
type CommunityHandler struct {
	communityService *service.CommunityService
	hub              *realtime.Hub
}

// NewCommunityHandler creates a new community handler
func NewCommunityHandler(communityService *service.CommunityService, hub *realtime.Hub) *CommunityHandler {
	return &CommunityHandler{
		communityService: communityService,
		hub:              hub,
	}
}

// ListPosts returns posts newest first. Query: type, tag, limit.
func (h *CommunityHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	filter := models.PostFilter{
		Type:  r.URL.Query().Get("type"),
		Tag:   r.URL.Query().Get("tag"),
		Limit: limit,
	}

	posts, err := h.communityService.ListPosts(appctx.From(r.Context()), filter)
	if err != nil {
		respondWithServiceError(w, err, "Error listing posts")
		return
	}
	respondJSON(w, http.StatusOK, posts)
}

// CreatePost publishes a post
func (h *CommunityHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var input service.PostInput
	if !decodeJSON(w, r, &input) {
		return
	}

	post, err := h.communityService.CreatePost(appctx.From(r.Context()), input)
	if err != nil {
		respondWithServiceError(w, err, "Error creating post")
		return
	}
	respondJSON(w, http.StatusCreated, post)
}

// GetPost returns a post with its replies
func (h *CommunityHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	post, err := h.communityService.GetPost(appctx.From(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, err, "Error loading post")
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// DeletePost removes a post. Only its author or an admin may do so.
func (h *CommunityHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.communityService.DeletePost(appctx.From(r.Context()), id); err != nil {
		respondWithServiceError(w, err, "Error deleting post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type replyRequest struct {
	Content string `json:"content"`
}

// CreateReply answers a post
func (h *CommunityHandler) CreateReply(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req replyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.communityService.Reply(appctx.From(r.Context()), id, req.Content)
	if err != nil {
		respondWithServiceError(w, err, "Error creating reply")
		return
	}
	respondJSON(w, http.StatusCreated, reply)
}

// ToggleLike likes the post, or removes the caller's like
func (h *CommunityHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.communityService.ToggleLike(appctx.From(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, err, "Error toggling like")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// TopContributors ranks users by posts plus replies
func (h *CommunityHandler) TopContributors(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	contributors, err := h.communityService.TopContributors(limit)
	if err != nil {
		respondWithServiceError(w, err, "Error listing contributors")
		return
	}
	respondJSON(w, http.StatusOK, contributors)
}

// Live upgrades to a websocket that receives community events
func (h *CommunityHandler) Live(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r)
}
