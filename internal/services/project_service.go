package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"ifc-service/internal/models"
	"ifc-service/internal/repository"
)

type ProjectService struct {
	repo repository.ProjectRepository
}

func NewProjectService(repo repository.ProjectRepository) *ProjectService {
	return &ProjectService{repo: repo}
}

func (s *ProjectService) CreateProject(ctx context.Context, project *models.Project) error {
	verr := &ValidationError{}
	if strings.TrimSpace(project.Identifier) == "" {
		verr.Add("identifier", "can't be blank")
	}
	if strings.TrimSpace(project.Name) == "" {
		verr.Add("name", "can't be blank")
	}
	if err := verr.orNil(); err != nil {
		return err
	}

	if err := s.repo.CreateProject(ctx, project); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			verr.Add("identifier", "has already been taken")
			return verr
		}
		return errors.Wrap(err, "create project")
	}
	return nil
}

func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, translate(err, "get project")
	}
	return project, nil
}

func (s *ProjectService) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list projects")
	}
	return projects, nil
}
