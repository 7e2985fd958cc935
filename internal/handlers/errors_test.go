package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"actuarialhub/internal/quest"
	"actuarialhub/internal/service"
	"actuarialhub/internal/validation"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var body errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Error != "Teapot" {
		t.Fatalf("expected error 'Teapot', got %q", body.Error)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Default()
	originalOutput := logger.Writer()
	logger.SetOutput(&buf)
	defer logger.SetOutput(originalOutput)

	recorder := httptest.NewRecorder()
	err := errors.New("boom")

	respondWithError(recorder, 500, "Internal server error", "", err)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
}

func TestRespondWithServiceErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", validation.ValidationError{Field: "title", Message: "required"}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("create: %w", validation.ValidationError{Field: "x", Message: "bad"}), http.StatusBadRequest},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired session", service.ErrSessionExpired, http.StatusUnauthorized},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"registration closed", service.ErrRegistrationClosed, http.StatusForbidden},
		{"email taken", service.ErrEmailTaken, http.StatusConflict},
		{"locked", service.ErrQuestLocked, http.StatusConflict},
		{"no active quest", quest.ErrNoActiveQuest, http.StatusConflict},
		{"reset token", service.ErrInvalidResetToken, http.StatusBadRequest},
		{"quest missing", service.ErrQuestNotFound, http.StatusNotFound},
		{"post missing", fmt.Errorf("load: %w", service.ErrPostNotFound), http.StatusNotFound},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithServiceError(recorder, tt.err, "test")
			if recorder.Code != tt.want {
				t.Errorf("status = %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestRespondWithServiceErrorIncludesField(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondWithServiceError(recorder, validation.ValidationError{Field: "premium", Message: "out of range"}, "")

	var body errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Field != "premium" || body.Error != "out of range" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	recorder := httptest.NewRecorder()
	if decodeJSON(recorder, req, &dst) {
		t.Fatal("expected unknown field to be rejected")
	}
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))
	if !decodeJSON(httptest.NewRecorder(), req, &dst) || dst.Name != "a" {
		t.Errorf("expected valid body to decode, got %+v", dst)
	}
}
