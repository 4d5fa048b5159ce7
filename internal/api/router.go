package api

import (
	"net/http"

	"github.com/BaamPark/WebLabelMV/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(app.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors(app.CORSOrigin))

	r.Get("/ping", PingHandler)
	r.Get("/healthz", HealthHandler)

	r.Post("/api/auth/signup", app.SignupHandler)
	r.Post("/api/auth/signin", app.SigninHandler)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(app.Tokens, app.Users, app.Logger))

		r.Get("/videos", app.ListVideosHandler)

		r.Route("/api/projects", func(r chi.Router) {
			r.Post("/", app.CreateProjectHandler)
			r.Get("/", app.ListProjectsHandler)

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", app.GetProjectHandler)
				r.Put("/", app.UpdateProjectHandler)
				r.Delete("/", app.DeleteProjectHandler)

				r.Route("/videos/{videoIndex}", func(r chi.Router) {
					r.Get("/metadata", app.VideoMetadataHandler)
					r.Get("/frames/{sampleIndex}", app.FrameHandler)
					r.Get("/frames/{sampleIndex}/annotations", app.GetAnnotationsHandler)
					r.Put("/frames/{sampleIndex}/annotations", app.SaveAnnotationsHandler)
					r.Post("/frames/{sampleIndex}/annotations", app.SaveAnnotationsHandler)
				})
			})
		})
	})

	return r
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
