package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/BaamPark/WebLabelMV/internal/metrics"
	"github.com/BaamPark/WebLabelMV/internal/models"
)

// maxAnnotationBody bounds a single frame's boxes.
const maxAnnotationBody = 1 << 20

func (app *App) annotationKey(w http.ResponseWriter, r *http.Request) (models.AnnotationKey, bool) {
	project, videoIndex, ok := app.projectVideo(w, r)
	if !ok {
		return models.AnnotationKey{}, false
	}
	sampleIndex, err := indexParam(r, "sampleIndex")
	if err != nil {
		app.respondError(w, r, err)
		return models.AnnotationKey{}, false
	}
	return models.AnnotationKey{
		UserID:      project.OwnerID,
		ProjectID:   project.ID,
		VideoIndex:  videoIndex,
		SampleIndex: sampleIndex,
	}, true
}

func (app *App) GetAnnotationsHandler(w http.ResponseWriter, r *http.Request) {
	key, ok := app.annotationKey(w, r)
	if !ok {
		return
	}

	set, err := app.Annotations.GetAnnotation(r.Context(), key)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

// SaveAnnotationsHandler replaces the boxes for one sampled frame. The body
// is the JSON array of boxes itself.
func (app *App) SaveAnnotationsHandler(w http.ResponseWriter, r *http.Request) {
	key, ok := app.annotationKey(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAnnotationBody))
	if err != nil {
		app.respondError(w, r, apperr.InvalidInput("Annotation body too large or unreadable"))
		return
	}

	set, err := models.NewAnnotationSet(key, json.RawMessage(body))
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	if err := app.Annotations.UpsertAnnotation(r.Context(), set); err != nil {
		app.respondError(w, r, err)
		return
	}

	metrics.AnnotationsSavedTotal.Inc()
	respondJSON(w, http.StatusOK, set)
}
