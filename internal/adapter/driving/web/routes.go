package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
// POST routes require a CSRF token matching the csrf_token cookie.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /help", h.Help)
	mux.HandleFunc("GET /generate", h.GeneratePassword)

	mux.HandleFunc("POST /entries", requireCSRF(h.AddEntry))
	mux.HandleFunc("POST /entries/view", requireCSRF(h.ViewEntry))
	mux.HandleFunc("POST /entries/update", requireCSRF(h.UpdateEntry))
	mux.HandleFunc("POST /entries/delete", requireCSRF(h.DeleteEntry))
	mux.HandleFunc("POST /entries/rotate", requireCSRF(h.RotateEntry))
}
