package database

import (
	"time"

	"github.com/BaamPark/WebLabelMV/internal/models"
	"gorm.io/datatypes"
)

type userRow struct {
	ID           string `gorm:"primaryKey"`
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

func (r userRow) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

type projectRow struct {
	ID             string `gorm:"primaryKey"`
	OwnerID        string
	Name           string
	VideoDirectory string
	SelectedVideos datatypes.JSONSlice[string]
	FPS            int `gorm:"column:fps"`
	Classes        datatypes.JSONSlice[string]
	Attributes     datatypes.JSONType[map[string][]string]
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (projectRow) TableName() string { return "projects" }

func projectRowFrom(p *models.Project) projectRow {
	classes := p.Classes
	if classes == nil {
		classes = []string{}
	}
	return projectRow{
		ID:             p.ID,
		OwnerID:        p.OwnerID,
		Name:           p.Name,
		VideoDirectory: p.VideoDirectory,
		SelectedVideos: datatypes.NewJSONSlice(p.SelectedVideos),
		FPS:            p.FPS,
		Classes:        datatypes.NewJSONSlice(classes),
		Attributes:     datatypes.NewJSONType(p.Attributes),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (r projectRow) toModel() *models.Project {
	classes := []string(r.Classes)
	if classes == nil {
		classes = []string{}
	}
	return &models.Project{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		Name:           r.Name,
		VideoDirectory: r.VideoDirectory,
		SelectedVideos: []string(r.SelectedVideos),
		FPS:            r.FPS,
		Classes:        classes,
		Attributes:     r.Attributes.Data(),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type annotationRow struct {
	UserID      string `gorm:"primaryKey"`
	ProjectID   string `gorm:"primaryKey"`
	VideoIndex  int    `gorm:"primaryKey;autoIncrement:false"`
	SampleIndex int    `gorm:"primaryKey;autoIncrement:false"`
	Boxes       datatypes.JSON
	UpdatedAt   time.Time
}

func (annotationRow) TableName() string { return "annotations" }

func (r annotationRow) toModel() *models.AnnotationSet {
	return &models.AnnotationSet{
		AnnotationKey: models.AnnotationKey{
			UserID:      r.UserID,
			ProjectID:   r.ProjectID,
			VideoIndex:  r.VideoIndex,
			SampleIndex: r.SampleIndex,
		},
		Boxes:     []byte(r.Boxes),
		UpdatedAt: r.UpdatedAt,
	}
}
