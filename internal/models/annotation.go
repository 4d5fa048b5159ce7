package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
)

type AnnotationKey struct {
	UserID      string `json:"-"`
	ProjectID   string `json:"project_id"`
	VideoIndex  int    `json:"video_index"`
	SampleIndex int    `json:"sample_index"`
}

// AnnotationSet holds the boxes drawn on one sampled frame. Boxes is kept as
// raw JSON; the server never looks inside a box.
type AnnotationSet struct {
	AnnotationKey
	Boxes     json.RawMessage `json:"boxes"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func NewAnnotationSet(key AnnotationKey, boxes json.RawMessage) (*AnnotationSet, error) {
	if err := ValidateBoxes(boxes); err != nil {
		return nil, err
	}
	return &AnnotationSet{
		AnnotationKey: key,
		Boxes:         boxes,
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

// ValidateBoxes accepts any well-formed JSON array.
func ValidateBoxes(boxes json.RawMessage) error {
	trimmed := bytes.TrimSpace(boxes)
	if len(trimmed) == 0 || trimmed[0] != '[' || !json.Valid(trimmed) {
		return apperr.InvalidInput("annotations must be a JSON array")
	}
	return nil
}
