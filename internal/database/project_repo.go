package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/BaamPark/WebLabelMV/internal/models"
	"gorm.io/gorm"
)

// ProjectRepository scopes every lookup to the owning user; another user's
// project is reported as not found.
type ProjectRepository struct {
	db *DB
}

func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) CreateProject(ctx context.Context, project *models.Project) error {
	row := projectRowFrom(project)
	if err := r.db.GORM().WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetProject(ctx context.Context, ownerID, id string) (*models.Project, error) {
	var row projectRow
	result := r.db.GORM().WithContext(ctx).First(&row, "id = ? AND owner_id = ?", id, ownerID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Project not found")
		}
		return nil, fmt.Errorf("failed to get project: %w", result.Error)
	}
	return row.toModel(), nil
}

func (r *ProjectRepository) ListProjects(ctx context.Context, ownerID string) ([]*models.Project, error) {
	var rows []projectRow
	result := r.db.GORM().WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list projects: %w", result.Error)
	}

	projects := make([]*models.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.toModel())
	}
	return projects, nil
}

func (r *ProjectRepository) UpdateProject(ctx context.Context, project *models.Project) error {
	row := projectRowFrom(project)
	result := r.db.GORM().WithContext(ctx).
		Model(&projectRow{}).
		Where("id = ? AND owner_id = ?", project.ID, project.OwnerID).
		Updates(map[string]any{
			"name":            row.Name,
			"video_directory": row.VideoDirectory,
			"selected_videos": row.SelectedVideos,
			"fps":             row.FPS,
			"classes":         row.Classes,
			"attributes":      row.Attributes,
			"updated_at":      row.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("Project not found")
	}
	return nil
}

// DeleteProject removes the project together with every annotation set
// recorded against it.
func (r *ProjectRepository) DeleteProject(ctx context.Context, ownerID, id string) error {
	return r.db.GORM().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&projectRow{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete project: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("Project not found")
		}
		if err := tx.Where("project_id = ?", id).Delete(&annotationRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete annotations: %w", err)
		}
		return nil
	})
}
