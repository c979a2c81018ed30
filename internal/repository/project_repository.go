package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ifc-service/internal/models"
)

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
}

// ProjectRepositoryImpl provides methods to interact with the Project model in the database.
type ProjectRepositoryImpl struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepositoryImpl instance with the provided GORM database connection.
func NewProjectRepository(db *gorm.DB) *ProjectRepositoryImpl {
	return &ProjectRepositoryImpl{db: db}
}

// CreateProject creates a new Project in the database.
func (r *ProjectRepositoryImpl) CreateProject(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// GetProject retrieves a Project by its ID from the database.
func (r *ProjectRepositoryImpl) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects retrieves all Projects from the database.
func (r *ProjectRepositoryImpl) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&projects).Error
	return projects, err
}
