package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/BaamPark/WebLabelMV/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnnotationRepository struct {
	db *DB
}

func NewAnnotationRepository(db *DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

// UpsertAnnotation creates the set for its key or replaces the boxes of the
// existing one.
func (r *AnnotationRepository) UpsertAnnotation(ctx context.Context, set *models.AnnotationSet) error {
	row := annotationRow{
		UserID:      set.UserID,
		ProjectID:   set.ProjectID,
		VideoIndex:  set.VideoIndex,
		SampleIndex: set.SampleIndex,
		Boxes:       datatypes.JSON(set.Boxes),
		UpdatedAt:   set.UpdatedAt,
	}
	result := r.db.GORM().WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "project_id"}, {Name: "video_index"}, {Name: "sample_index"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"boxes", "updated_at"}),
	}).Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert annotation: %w", result.Error)
	}
	return nil
}

func (r *AnnotationRepository) GetAnnotation(ctx context.Context, key models.AnnotationKey) (*models.AnnotationSet, error) {
	var row annotationRow
	result := r.db.GORM().WithContext(ctx).First(&row,
		"user_id = ? AND project_id = ? AND video_index = ? AND sample_index = ?",
		key.UserID, key.ProjectID, key.VideoIndex, key.SampleIndex,
	)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Annotations not found")
		}
		return nil, fmt.Errorf("failed to get annotation: %w", result.Error)
	}
	return row.toModel(), nil
}
