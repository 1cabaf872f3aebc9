package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/signup", apiHandler.SignupHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Extraction works anonymously; signed-in requests get auto-saved.
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.OptionalAuthMiddleware)
			r.Post("/analyze-menu", apiHandler.AnalyzeMenuHandler)
		})

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			// Saved menu sessions
			r.Post("/menus", apiHandler.SaveMenuHandler)
			r.Get("/menus", apiHandler.ListMenusHandler)
			r.Get("/menus/{sessionID}", apiHandler.GetMenuHandler)
			r.Delete("/menus/{sessionID}", apiHandler.DeleteMenuHandler)
			r.Get("/menus/{sessionID}/export", apiHandler.ExportMenuHandler)

			// Inline item editing
			r.Patch("/menus/{sessionID}/items/{itemID}", apiHandler.UpdateMenuItemHandler)
			r.Delete("/menus/{sessionID}/items/{itemID}", apiHandler.DeleteMenuItemHandler)
		})
	})

	return r
}
