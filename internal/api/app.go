package api

import (
	"context"

	"github.com/BaamPark/WebLabelMV/internal/auth"
	"github.com/BaamPark/WebLabelMV/internal/frames"
	"github.com/BaamPark/WebLabelMV/internal/models"
	"github.com/BaamPark/WebLabelMV/internal/storage"
	"go.uber.org/zap"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type ProjectStore interface {
	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, ownerID, id string) (*models.Project, error)
	ListProjects(ctx context.Context, ownerID string) ([]*models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, ownerID, id string) error
}

type AnnotationStore interface {
	UpsertAnnotation(ctx context.Context, set *models.AnnotationSet) error
	GetAnnotation(ctx context.Context, key models.AnnotationKey) (*models.AnnotationSet, error)
}

type App struct {
	Users       UserStore
	Projects    ProjectStore
	Annotations AnnotationStore
	Storage     storage.Storage
	Frames      *frames.Service
	Tokens      *auth.Issuer
	Logger      *zap.Logger
	CORSOrigin  string
}
