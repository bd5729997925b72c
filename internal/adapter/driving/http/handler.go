package httphandler

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/pwvault/internal/application"
)

// Handler is the HTTP driving adapter that serves the JSON API.
type Handler struct {
	svc    *application.VaultService
	logger *slog.Logger
}

// NewHandler creates a Handler over svc.
func NewHandler(svc *application.VaultService, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterAPIRoutes registers the JSON API under /api/v1. Routes that take a
// body only accept application/json.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/entries", h.ListEntries)
	mux.HandleFunc("POST /api/v1/entries", requireJSON(h.AddEntry))
	mux.HandleFunc("GET /api/v1/entries/{name}", h.GetEntry)
	mux.HandleFunc("PATCH /api/v1/entries/{name}", requireJSON(h.UpdateEntry))
	mux.HandleFunc("DELETE /api/v1/entries/{name}", h.DeleteEntry)
	mux.HandleFunc("POST /api/v1/entries/{name}/rotate", requireJSON(h.RotateEntry))
	mux.HandleFunc("GET /api/v1/password", h.GeneratePassword)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// ListEntries returns all entry names in insertion order.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.ListEntryNames(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NamesResponse{Names: names})
}

// AddEntry stores a new entry. An empty password is replaced by a generated
// one.
func (h *Handler) AddEntry(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.svc.AddEntry(r.Context(), req.Name, req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreatedResponse{ID: entry.ID, Name: entry.Name})
}

// GetEntry returns the named entry with its password decrypted.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.ViewEntry(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryResponse(view))
}

// UpdateEntry applies the fields present in the body. Absent fields keep
// their value; "username": "" clears the username.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changes := application.EntryChanges{
		NewName:  req.NewName,
		Username: req.Username,
		Password: req.Password,
	}
	if err := h.svc.UpdateEntry(r.Context(), r.PathValue("name"), changes); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteEntry removes the named entry. Deleting a missing entry succeeds with
// removed = 0.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.DeleteEntry(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Removed: removed})
}

// RotateEntry replaces the entry's password with a generated one.
func (h *Handler) RotateEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RotateEntrySecret(r.Context(), r.PathValue("name")); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GeneratePassword returns a random password without storing it.
func (h *Handler) GeneratePassword(w http.ResponseWriter, r *http.Request) {
	length := 0
	if v := r.URL.Query().Get("length"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "length must be a non-negative integer")
			return
		}
		length = n
	}

	password, err := h.svc.GeneratePassword(length)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PasswordResponse{Password: password})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("vault operation failed", "error", err)
	}
	writeError(w, status, application.UserMessage(err))
}

func requireJSON(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		next(w, r)
	}
}
