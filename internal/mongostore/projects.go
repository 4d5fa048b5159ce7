package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/BaamPark/WebLabelMV/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type projectDoc struct {
	ID             string              `bson:"_id"`
	OwnerID        string              `bson:"owner_id"`
	Name           string              `bson:"name"`
	VideoDirectory string              `bson:"video_directory"`
	SelectedVideos []string            `bson:"selected_videos"`
	FPS            int                 `bson:"fps"`
	Classes        []string            `bson:"classes"`
	Attributes     map[string][]string `bson:"attributes,omitempty"`
	CreatedAt      time.Time           `bson:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at"`
}

func projectDocFrom(p *models.Project) projectDoc {
	classes := p.Classes
	if classes == nil {
		classes = []string{}
	}
	return projectDoc{
		ID:             p.ID,
		OwnerID:        p.OwnerID,
		Name:           p.Name,
		VideoDirectory: p.VideoDirectory,
		SelectedVideos: p.SelectedVideos,
		FPS:            p.FPS,
		Classes:        classes,
		Attributes:     p.Attributes,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (d projectDoc) toModel() *models.Project {
	classes := d.Classes
	if classes == nil {
		classes = []string{}
	}
	return &models.Project{
		ID:             d.ID,
		OwnerID:        d.OwnerID,
		Name:           d.Name,
		VideoDirectory: d.VideoDirectory,
		SelectedVideos: d.SelectedVideos,
		FPS:            d.FPS,
		Classes:        classes,
		Attributes:     d.Attributes,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func ownedBy(ownerID, id string) bson.M {
	return bson.M{"_id": id, "owner_id": ownerID}
}

func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	if _, err := s.projects.InsertOne(ctx, projectDocFrom(project)); err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, ownerID, id string) (*models.Project, error) {
	var doc projectDoc
	if err := s.projects.FindOne(ctx, ownedBy(ownerID, id)).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperr.NotFound("Project not found")
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return doc.toModel(), nil
}

func (s *Store) ListProjects(ctx context.Context, ownerID string) ([]*models.Project, error) {
	cursor, err := s.projects.Find(ctx,
		bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []projectDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}

	projects := make([]*models.Project, 0, len(docs))
	for _, d := range docs {
		projects = append(projects, d.toModel())
	}
	return projects, nil
}

func (s *Store) UpdateProject(ctx context.Context, project *models.Project) error {
	doc := projectDocFrom(project)
	result, err := s.projects.UpdateOne(ctx, ownedBy(project.OwnerID, project.ID), bson.M{
		"$set": bson.M{
			"name":            doc.Name,
			"video_directory": doc.VideoDirectory,
			"selected_videos": doc.SelectedVideos,
			"fps":             doc.FPS,
			"classes":         doc.Classes,
			"attributes":      doc.Attributes,
			"updated_at":      doc.UpdatedAt,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperr.NotFound("Project not found")
	}
	return nil
}

// DeleteProject removes the project and then its annotation sets. The two
// deletes are not atomic; a failure between them leaves orphaned sets that
// no request can reach.
func (s *Store) DeleteProject(ctx context.Context, ownerID, id string) error {
	result, err := s.projects.DeleteOne(ctx, ownedBy(ownerID, id))
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("Project not found")
	}
	if _, err := s.annotations.DeleteMany(ctx, bson.M{"project_id": id}); err != nil {
		return fmt.Errorf("failed to delete annotations: %w", err)
	}
	return nil
}
