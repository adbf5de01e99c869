package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"yanote/internal/note/model"
	"yanote/internal/note/service"
	"yanote/middleware"
	"yanote/pkg/apperr"
	"yanote/pkg/logger"

	"github.com/gorilla/mux"
)

// APIHandler exposes the note operations as JSON.
type APIHandler struct {
	Service *service.NoteService
}

func NewAPIHandler(service *service.NoteService) *APIHandler {
	return &APIHandler{Service: service}
}

func (h *APIHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	notes, err := h.Service.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *APIHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req model.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request body"})
		return
	}

	note, err := h.Service.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *APIHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	note, err := h.Service.Detail(r.Context(), userID, mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *APIHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req model.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request body"})
		return
	}

	note, err := h.Service.Edit(r.Context(), userID, mux.Vars(r)["slug"], req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *APIHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	if err := h.Service.Delete(r.Context(), userID, mux.Vars(r)["slug"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if verr, ok := apperr.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Validation failed", Fields: verr.Fields})
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "Note not found"})
	case errors.Is(err, apperr.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "Unauthorized"})
	default:
		logger.Sugar.Errorf("API: %s %s failed: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Internal server error"})
	}
}
