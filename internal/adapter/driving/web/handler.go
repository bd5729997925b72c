// Package web implements the HTML form driving adapter using templ components.
package web

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/pwvault/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/pwvault/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/pwvault/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/pwvault/internal/application"
)

const pageTitle = "Password Manager"

// Handler is the web driving adapter. Every page posts back to a handler that
// calls the vault service and re-renders the form with the outcome.
type Handler struct {
	svc    *application.VaultService
	logger *slog.Logger
}

// NewHandler creates a Handler over svc.
func NewHandler(svc *application.VaultService, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Index renders the form for the action named by the "action" query
// parameter, defaulting to add.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	page := vm.VaultPage{Action: validAction(r.URL.Query().Get("action"))}
	h.renderVault(w, r, http.StatusOK, page)
}

// AddEntry handles POST /entries.
func (h *Handler) AddEntry(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	page := vm.VaultPage{Action: "add"}

	_, err := h.svc.AddEntry(r.Context(), name, r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		h.renderError(w, r, page, err)
		return
	}

	page.Flash = successFlash("Password saved!")
	h.renderVault(w, r, http.StatusOK, page)
}

// ViewEntry handles POST /entries/view.
func (h *Handler) ViewEntry(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	page := vm.VaultPage{Action: "view", Selected: name}

	view, err := h.svc.ViewEntry(r.Context(), name)
	if err != nil {
		h.renderError(w, r, page, err)
		return
	}

	page.Entry = toEntryViewModel(view)
	h.renderVault(w, r, http.StatusOK, page)
}

// UpdateEntry handles POST /entries/update. Blank fields are left unchanged;
// the clear_username checkbox removes the username.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	page := vm.VaultPage{Action: "update", Selected: name}

	var changes application.EntryChanges
	if newName := strings.TrimSpace(r.FormValue("new_name")); newName != "" {
		changes.NewName = &newName
	}
	if r.FormValue("clear_username") != "" {
		empty := ""
		changes.Username = &empty
	} else if username := r.FormValue("username"); username != "" {
		changes.Username = &username
	}
	if password := r.FormValue("password"); password != "" {
		changes.Password = &password
	}

	if err := h.svc.UpdateEntry(r.Context(), name, changes); err != nil {
		h.renderError(w, r, page, err)
		return
	}

	if changes.NewName != nil {
		page.Selected = *changes.NewName
	}
	page.Flash = successFlash(fmt.Sprintf("Updated %s!", name))
	h.renderVault(w, r, http.StatusOK, page)
}

// DeleteEntry handles POST /entries/delete and lists the remaining names.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	page := vm.VaultPage{Action: "delete"}

	removed, err := h.svc.DeleteEntry(r.Context(), name)
	if err != nil {
		h.renderError(w, r, page, err)
		return
	}

	if removed > 0 {
		page.Flash = successFlash(fmt.Sprintf("Deleted %s.", name))
	} else {
		page.Flash = successFlash(fmt.Sprintf("No entry named %s, nothing deleted.", name))
	}
	page.ShowRemaining = true
	h.renderVault(w, r, http.StatusOK, page)
}

// RotateEntry handles POST /entries/rotate.
func (h *Handler) RotateEntry(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	page := vm.VaultPage{Action: "rotate", Selected: name}

	if err := h.svc.RotateEntrySecret(r.Context(), name); err != nil {
		h.renderError(w, r, page, err)
		return
	}

	page.Flash = successFlash(fmt.Sprintf("%s's password rotated!", name))
	h.renderVault(w, r, http.StatusOK, page)
}

// GeneratePassword handles GET /generate and returns a random password as
// plain text. The optional "length" query parameter sets its length.
func (h *Handler) GeneratePassword(w http.ResponseWriter, r *http.Request) {
	length := 0
	if v := r.URL.Query().Get("length"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "length must be a non-negative integer", http.StatusBadRequest)
			return
		}
		length = n
	}

	password, err := h.svc.GeneratePassword(length)
	if err != nil {
		h.logger.Error("failed to generate password", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, password)
}

// Help renders the usage page from embedded markdown.
func (h *Handler) Help(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, templates.Layout(pageTitle+" - Help", pages.HelpPage(RenderMarkdown(helpMarkdown))))
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, page vm.VaultPage, err error) {
	flash, status := errorFlash(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("vault operation failed", "action", page.Action, "error", err)
	}
	page.Flash = flash
	h.renderVault(w, r, status, page)
}

// renderVault fills in the per-request fields of page and renders it.
func (h *Handler) renderVault(w http.ResponseWriter, r *http.Request, status int, page vm.VaultPage) {
	page.Actions = vm.Actions
	page.CSRFToken = csrfToken(w, r)

	names, err := h.svc.ListEntryNames(r.Context())
	if err != nil {
		h.logger.Error("failed to list entries", "error", err)
		if page.Flash == nil {
			page.Flash, status = errorFlash(err)
		}
	}
	page.Names = names
	if page.ShowRemaining {
		page.Remaining = names
	}

	if page.Action == "add" {
		if suggested, err := h.svc.GeneratePassword(0); err == nil {
			page.SuggestedPassword = suggested
		}
	}

	h.render(w, r, status, templates.Layout(pageTitle, pages.VaultPage(page)))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, component templ.Component) {
	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil {
		h.logger.Error("failed to render page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
