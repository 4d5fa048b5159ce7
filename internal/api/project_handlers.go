package api

import (
	"net/http"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/BaamPark/WebLabelMV/internal/auth"
	"github.com/BaamPark/WebLabelMV/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func currentUser(r *http.Request) (string, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", apperr.Unauthorized("not signed in")
	}
	return userID, nil
}

func (app *App) loadProject(r *http.Request) (*models.Project, error) {
	userID, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	return app.Projects.GetProject(r.Context(), userID, chi.URLParam(r, "projectID"))
}

func (app *App) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	var in models.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		app.respondError(w, r, err)
		return
	}
	in, err = app.Frames.CheckProject(in)
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	project := models.NewProject(userID, in)
	if err := app.Projects.CreateProject(r.Context(), project); err != nil {
		app.respondError(w, r, err)
		return
	}

	app.Logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("owner_id", userID),
		zap.Int("videos", len(project.SelectedVideos)),
	)
	respondJSON(w, http.StatusCreated, project)
}

func (app *App) ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	projects, err := app.Projects.ListProjects(r.Context(), userID)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

func (app *App) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	project, err := app.loadProject(r)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (app *App) UpdateProjectHandler(w http.ResponseWriter, r *http.Request) {
	project, err := app.loadProject(r)
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	var in models.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		app.respondError(w, r, err)
		return
	}
	in, err = app.Frames.CheckProject(in)
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	project.Apply(in)
	if err := app.Projects.UpdateProject(r.Context(), project); err != nil {
		app.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (app *App) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	projectID := chi.URLParam(r, "projectID")
	if err := app.Projects.DeleteProject(r.Context(), userID, projectID); err != nil {
		app.respondError(w, r, err)
		return
	}

	app.Logger.Info("project deleted", zap.String("project_id", projectID), zap.String("owner_id", userID))
	w.WriteHeader(http.StatusNoContent)
}
