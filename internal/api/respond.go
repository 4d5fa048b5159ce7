package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/BaamPark/WebLabelMV/internal/video"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondError maps an error kind to a status. Upstream failures are logged
// in full and reported to the client with only the failing stage.
func (app *App) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput), errors.Is(err, apperr.ErrConflict):
		respondMessage(w, http.StatusBadRequest, apperr.Message(err))
	case errors.Is(err, apperr.ErrUnauthorized):
		respondMessage(w, http.StatusUnauthorized, apperr.Message(err))
	case errors.Is(err, apperr.ErrNotFound):
		if isVideoError(err) {
			respondMessage(w, http.StatusNotFound, "Video file not found")
			return
		}
		respondMessage(w, http.StatusNotFound, apperr.Message(err))
	default:
		app.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		body := map[string]string{"error": "Internal server error"}
		var de *video.DecodeError
		if errors.As(err, &de) {
			body["error"] = "Failed to decode frame"
			body["stage"] = string(de.Stage)
		}
		respondJSON(w, http.StatusInternalServerError, body)
	}
}

// isVideoError reports whether err came from opening or decoding a video. Their
// messages carry server paths and must not reach the client.
func isVideoError(err error) bool {
	var oe *video.OpenError
	var de *video.DecodeError
	return errors.As(err, &oe) || errors.As(err, &de)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.InvalidInput("Invalid JSON body")
	}
	return nil
}

// indexParam reads a non-negative integer path parameter.
func indexParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.InvalidInput("%s must be a non-negative integer, got %q", name, raw)
	}
	return n, nil
}
