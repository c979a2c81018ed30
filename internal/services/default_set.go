package services

import (
	"context"

	"github.com/pkg/errors"

	"ifc-service/internal/models"
	"ifc-service/internal/repository"
)

// DefaultSetManager answers which models of a project open by default.
// Membership is derived on every read, never stored.
type DefaultSetManager struct {
	repo repository.IFCModelRepository
}

func NewDefaultSetManager(repo repository.IFCModelRepository) *DefaultSetManager {
	return &DefaultSetManager{repo: repo}
}

// DefaultSet returns the flagged and viewer-ready models in creation order.
func (m *DefaultSetManager) DefaultSet(ctx context.Context, project *models.Project) ([]models.IFCModel, error) {
	list, err := m.repo.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list ifc models")
	}
	return FilterDefaultSet(list), nil
}

// IsEmpty reports whether the project has no models at all.
func (m *DefaultSetManager) IsEmpty(ctx context.Context, project *models.Project) (bool, error) {
	list, err := m.repo.ListByProject(ctx, project.ID)
	if err != nil {
		return false, errors.Wrap(err, "list ifc models")
	}
	return len(list) == 0, nil
}

// FilterDefaultSet keeps the models that are flagged default and ready,
// preserving their order.
func FilterDefaultSet(list []models.IFCModel) []models.IFCModel {
	out := make([]models.IFCModel, 0, len(list))
	for i := range list {
		if list[i].InDefaultSet() {
			out = append(out, list[i])
		}
	}
	return out
}
