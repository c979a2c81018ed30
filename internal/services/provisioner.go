package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"ifc-service/internal/metrics"
	"ifc-service/internal/models"
	"ifc-service/internal/repository"
)

// Provision builds the viewer payload for a project. The catalog lists every
// viewer-ready model; a catalog entry is marked default when it is also in
// preload. Models that are not ready never appear anywhere in the payload.
func Provision(project *models.Project, catalog, preload []models.IFCModel) *models.ProvisioningPayload {
	ready := make([]models.IFCModel, 0, len(catalog))
	for i := range catalog {
		if catalog[i].IsViewerReady() {
			ready = append(ready, catalog[i])
		}
	}
	sort.SliceStable(ready, func(i, j int) bool {
		return models.CreatedBefore(&ready[i], &ready[j])
	})

	preloaded := make(map[uuid.UUID]bool, len(preload))
	for i := range preload {
		if preload[i].IsViewerReady() {
			preloaded[preload[i].ID] = true
		}
	}

	payload := &models.ProvisioningPayload{
		Models:              make([]models.ViewerModel, 0, len(ready)),
		Projects:            []models.ViewerProject{{ID: project.Identifier, Name: project.Name}},
		GeometryArtifactIDs: make(map[uuid.UUID]uuid.UUID, len(ready)),
		MetadataArtifactIDs: make(map[uuid.UUID]uuid.UUID, len(ready)),
	}
	for _, model := range ready {
		payload.Models = append(payload.Models, models.ViewerModel{
			ID:      model.ID,
			Name:    model.Title,
			Default: preloaded[model.ID],
		})
		payload.GeometryArtifactIDs[model.ID] = *model.GeometryAttachmentID
		payload.MetadataArtifactIDs[model.ID] = *model.MetadataAttachmentID
	}
	return payload
}

// Provisioner loads a project's models and builds viewer payloads from them.
type Provisioner struct {
	repo    repository.IFCModelRepository
	metrics *metrics.Lifecycle
}

func NewProvisioner(repo repository.IFCModelRepository, m *metrics.Lifecycle) *Provisioner {
	return &Provisioner{repo: repo, metrics: m}
}

// ProvisionModel opens a single model: the whole project is listed and only
// the requested model is preloaded.
func (p *Provisioner) ProvisionModel(ctx context.Context, project *models.Project, id uuid.UUID) (*models.ProvisioningPayload, error) {
	catalog, err := p.catalog(ctx, project)
	if err != nil {
		return nil, err
	}
	for i := range catalog {
		if catalog[i].ID == id {
			return p.provision(project, catalog, catalog[i:i+1]), nil
		}
	}
	return nil, ErrNotFound
}

// ProvisionDefaults opens the default set of the project.
func (p *Provisioner) ProvisionDefaults(ctx context.Context, project *models.Project) (*models.ProvisioningPayload, error) {
	catalog, err := p.catalog(ctx, project)
	if err != nil {
		return nil, err
	}
	return p.provision(project, catalog, FilterDefaultSet(catalog)), nil
}

func (p *Provisioner) catalog(ctx context.Context, project *models.Project) ([]models.IFCModel, error) {
	list, err := p.repo.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list ifc models")
	}
	return list, nil
}

func (p *Provisioner) provision(project *models.Project, catalog, preload []models.IFCModel) *models.ProvisioningPayload {
	payload := Provision(project, catalog, preload)
	p.metrics.ObserveProvisioned(len(payload.Models))
	return payload
}
