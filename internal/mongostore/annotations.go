package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/BaamPark/WebLabelMV/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type annotationDoc struct {
	UserID      string    `bson:"user_id"`
	ProjectID   string    `bson:"project_id"`
	VideoIndex  int       `bson:"video_index"`
	SampleIndex int       `bson:"sample_index"`
	Boxes       string    `bson:"boxes"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func keyFilter(key models.AnnotationKey) bson.M {
	return bson.M{
		"user_id":      key.UserID,
		"project_id":   key.ProjectID,
		"video_index":  key.VideoIndex,
		"sample_index": key.SampleIndex,
	}
}

// UpsertAnnotation stores the boxes verbatim as JSON text; they are never
// converted to BSON values.
func (s *Store) UpsertAnnotation(ctx context.Context, set *models.AnnotationSet) error {
	boxes, err := boxesToDoc(set.Boxes)
	if err != nil {
		return err
	}

	doc := annotationDoc{
		UserID:      set.UserID,
		ProjectID:   set.ProjectID,
		VideoIndex:  set.VideoIndex,
		SampleIndex: set.SampleIndex,
		Boxes:       boxes,
		UpdatedAt:   set.UpdatedAt,
	}
	_, err = s.annotations.ReplaceOne(ctx, keyFilter(set.AnnotationKey), doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert annotation: %w", err)
	}
	return nil
}

func (s *Store) GetAnnotation(ctx context.Context, key models.AnnotationKey) (*models.AnnotationSet, error) {
	var doc annotationDoc
	if err := s.annotations.FindOne(ctx, keyFilter(key)).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperr.NotFound("Annotations not found")
		}
		return nil, fmt.Errorf("failed to get annotation: %w", err)
	}

	boxes, err := boxesFromDoc(doc.Boxes)
	if err != nil {
		return nil, err
	}
	return &models.AnnotationSet{
		AnnotationKey: key,
		Boxes:         boxes,
		UpdatedAt:     doc.UpdatedAt,
	}, nil
}

func boxesToDoc(boxes json.RawMessage) (string, error) {
	if err := models.ValidateBoxes(boxes); err != nil {
		return "", err
	}
	return string(boxes), nil
}

func boxesFromDoc(stored string) (json.RawMessage, error) {
	if !json.Valid([]byte(stored)) {
		return nil, errors.New("stored boxes are not valid JSON")
	}
	return json.RawMessage(stored), nil
}
