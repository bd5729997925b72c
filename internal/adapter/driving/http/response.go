package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ericfisherdev/pwvault/internal/application"
	"github.com/ericfisherdev/pwvault/internal/cryptobox"
	"github.com/ericfisherdev/pwvault/internal/domain/port/driven"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// StatusForError maps a vault service error to an HTTP status code.
func StatusForError(err error) int {
	var storageErr *driven.StorageError

	switch {
	case errors.Is(err, driven.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, driven.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, driven.ErrNoFieldsProvided), errors.Is(err, driven.ErrMissingField):
		return http.StatusBadRequest
	case errors.Is(err, cryptobox.ErrDecrypt):
		return http.StatusUnprocessableEntity
	case errors.As(err, &storageErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// AddEntryRequest is the body of POST /api/v1/entries.
type AddEntryRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateEntryRequest is the body of PATCH /api/v1/entries/{name}. Omitted
// fields are left unchanged.
type UpdateEntryRequest struct {
	NewName  *string `json:"new_name"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// EntryResponse is the JSON representation of a decrypted entry.
type EntryResponse struct {
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// CreatedResponse is returned after an entry is added.
type CreatedResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NamesResponse lists entry names.
type NamesResponse struct {
	Names []string `json:"names"`
}

// DeleteResponse reports how many entries a delete removed.
type DeleteResponse struct {
	Removed int64 `json:"removed"`
}

// PasswordResponse carries a generated password.
type PasswordResponse struct {
	Password string `json:"password"`
}

// HealthResponse is the JSON representation of the health check.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func toEntryResponse(view application.EntryView) EntryResponse {
	return EntryResponse{
		Name:     view.Name,
		Username: view.Username,
		Password: view.Password,
	}
}
