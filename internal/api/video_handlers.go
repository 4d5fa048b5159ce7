package api

import (
	"net/http"
	"strconv"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/BaamPark/WebLabelMV/internal/models"
)

// ListVideosHandler lists the video files in ?directory=.
func (app *App) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	videos, err := app.Storage.ListVideos(r.URL.Query().Get("directory"))
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, videos)
}

func (app *App) VideoMetadataHandler(w http.ResponseWriter, r *http.Request) {
	project, videoIndex, ok := app.projectVideo(w, r)
	if !ok {
		return
	}

	plan, err := app.Frames.Metadata(r.Context(), project, videoIndex)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

func (app *App) FrameHandler(w http.ResponseWriter, r *http.Request) {
	project, videoIndex, ok := app.projectVideo(w, r)
	if !ok {
		return
	}
	sampleIndex, err := indexParam(r, "sampleIndex")
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	frame, err := app.Frames.Frame(r.Context(), project, videoIndex, sampleIndex)
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", frame.Image.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(frame.Image.Data)))
	h.Set("Cache-Control", "no-store")
	h.Set("X-Image-Format", frame.Image.Format)
	h.Set("X-Frame-Step", strconv.Itoa(frame.Plan.Step))
	h.Set("X-Sampled-Count", strconv.Itoa(frame.Plan.SampledCount))
	h.Set("X-Frame-Number", strconv.Itoa(frame.FrameNumber))
	h.Set("X-Total-Frames", strconv.Itoa(frame.Plan.TotalFrames))
	w.WriteHeader(http.StatusOK)
	w.Write(frame.Image.Data)
}

// projectVideo loads the caller's project and parses the video index. On
// failure it has already written the response.
func (app *App) projectVideo(w http.ResponseWriter, r *http.Request) (*models.Project, int, bool) {
	project, err := app.loadProject(r)
	if err != nil {
		app.respondError(w, r, err)
		return nil, 0, false
	}
	videoIndex, err := indexParam(r, "videoIndex")
	if err != nil {
		app.respondError(w, r, err)
		return nil, 0, false
	}
	if videoIndex >= len(project.SelectedVideos) {
		app.respondError(w, r, apperr.InvalidInput("videoIndex %d out of range", videoIndex))
		return nil, 0, false
	}
	return project, videoIndex, true
}
