// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vrsandeep/xwc-settings/internal/auth"
	"github.com/vrsandeep/xwc-settings/internal/core"
)

// Server holds the dependencies for our API.
type Server struct {
	app   *core.App
	creds auth.Credentials
	// Forms keep the loaded settings between calls.
	formMu sync.Mutex
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	cfg := app.Config()
	return &Server{
		app: app,
		creds: auth.Credentials{
			Username:     cfg.Admin.Username,
			PasswordHash: cfg.Admin.PasswordHash,
		},
	}
}

// App returns the application the server exposes.
func (s *Server) App() *core.App {
	return s.app
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.RequestLogger)
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/version", s.handleGetVersion)
	r.Get("/api/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Read routes
		r.Get("/settings", s.handleGetAllSettings)
		r.Get("/settings/{path}", s.handleGetSetting)
		r.Get("/settings/{path}/exists", s.handleHasSetting)
		r.Get("/fields", s.handleListFields)
		r.Get("/plugins", s.handleListPlugins)
		r.Get("/pages", s.handleListPages)
		r.Get("/pages/{pageID}/sections/{section}", s.handleRenderSection)
		r.Get("/forms", s.handleListForms)
		r.Get("/forms/{formID}", s.handleGetForm)
		r.Get("/forms/{formID}/html", s.handleRenderForm)

		// Write routes
		r.Group(func(r chi.Router) {
			r.Use(s.AdminOnlyMiddleware)

			r.Put("/settings/{path}", s.handleSetSetting)
			r.Post("/settings/reload", s.handleReloadSettings)
			r.Post("/pages/{pageID}/sections/{section}", s.handleSaveSection)
			r.Post("/forms/{formID}", s.handleSaveForm)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/jobs/status", s.handleGetAdminJobsStatus)
				r.Post("/jobs/run", s.handleRunAdminJob)
			})
		})
	})

	// WebSocket route
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.app.WsHub().ServeWs(w, r)
	})

	return r
}
