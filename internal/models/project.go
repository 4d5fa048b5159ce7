package models

import (
	"strings"
	"time"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/google/uuid"
)

// Project binds one user to a video directory, the videos selected from it,
// the rate frames are sampled at and the label schema for annotating them.
type Project struct {
	ID             string              `json:"id"`
	OwnerID        string              `json:"owner_id"`
	Name           string              `json:"name"`
	VideoDirectory string              `json:"video_directory"`
	SelectedVideos []string            `json:"selected_videos"`
	FPS            int                 `json:"fps"`
	Classes        []string            `json:"classes"`
	Attributes     map[string][]string `json:"attributes,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// ProjectInput carries the mutable fields accepted on create and update.
type ProjectInput struct {
	Name           string              `json:"name"`
	VideoDirectory string              `json:"video_directory"`
	SelectedVideos []string            `json:"selected_videos"`
	FPS            int                 `json:"fps"`
	Classes        []string            `json:"classes"`
	Attributes     map[string][]string `json:"attributes"`
}

// Validate checks the fields that need no filesystem access.
func (in ProjectInput) Validate() error {
	if strings.TrimSpace(in.VideoDirectory) == "" {
		return apperr.InvalidInput("video_directory is required")
	}
	if len(in.SelectedVideos) == 0 {
		return apperr.InvalidInput("selected_videos must not be empty")
	}
	for i, v := range in.SelectedVideos {
		if strings.TrimSpace(v) == "" {
			return apperr.InvalidInput("selected_videos[%d] is empty", i)
		}
	}
	if in.FPS < 1 {
		return apperr.InvalidInput("fps must be a positive integer")
	}
	for i, c := range in.Classes {
		if strings.TrimSpace(c) == "" {
			return apperr.InvalidInput("classes[%d] is empty", i)
		}
	}
	for name, values := range in.Attributes {
		if strings.TrimSpace(name) == "" {
			return apperr.InvalidInput("attribute names must not be empty")
		}
		seen := make(map[string]bool, len(values))
		for _, v := range values {
			if seen[v] {
				return apperr.InvalidInput("attribute %q lists %q twice", name, v)
			}
			seen[v] = true
		}
	}
	return nil
}

func NewProject(ownerID string, in ProjectInput) *Project {
	now := time.Now().UTC()
	p := &Project{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		CreatedAt: now,
	}
	p.Apply(in)
	p.UpdatedAt = now
	return p
}

// Apply replaces every mutable field; there are no partial updates.
func (p *Project) Apply(in ProjectInput) {
	p.Name = in.Name
	p.VideoDirectory = in.VideoDirectory
	p.SelectedVideos = append([]string(nil), in.SelectedVideos...)
	p.FPS = in.FPS
	p.Classes = append([]string{}, in.Classes...)
	p.Attributes = nil
	if len(in.Attributes) > 0 {
		p.Attributes = make(map[string][]string, len(in.Attributes))
		for k, v := range in.Attributes {
			p.Attributes[k] = append([]string{}, v...)
		}
	}
	p.UpdatedAt = time.Now().UTC()
}

func (p *Project) Video(index int) (string, error) {
	if index < 0 || index >= len(p.SelectedVideos) {
		return "", apperr.InvalidInput("video index %d out of range [0, %d)", index, len(p.SelectedVideos))
	}
	return p.SelectedVideos[index], nil
}
