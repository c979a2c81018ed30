package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ifc-service/internal/models"
)

// MemoryIFCModelRepository keeps IFC models in process memory. It backs the
// memory database driver used for local runs.
type MemoryIFCModelRepository struct {
	mu          sync.RWMutex
	models      map[uuid.UUID]models.IFCModel
	lastCreated time.Time
}

func NewMemoryIFCModelRepository() *MemoryIFCModelRepository {
	return &MemoryIFCModelRepository{models: make(map[uuid.UUID]models.IFCModel)}
}

func (r *MemoryIFCModelRepository) Create(_ context.Context, model *models.IFCModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[model.ID]; exists {
		return gorm.ErrDuplicatedKey
	}
	if model.CreatedAt.IsZero() {
		// Keep creation timestamps strictly increasing so that listing order
		// matches insertion order even on coarse clocks.
		now := time.Now().UTC()
		if !now.After(r.lastCreated) {
			now = r.lastCreated.Add(time.Microsecond)
		}
		model.CreatedAt = now
	}
	if model.CreatedAt.After(r.lastCreated) {
		r.lastCreated = model.CreatedAt
	}
	if model.Generation == 0 {
		model.Generation = 1
	}
	model.UpdatedAt = model.CreatedAt
	r.models[model.ID] = *model
	return nil
}

func (r *MemoryIFCModelRepository) FindByID(_ context.Context, id uuid.UUID) (*models.IFCModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	model, ok := r.models[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model, nil
}

func (r *MemoryIFCModelRepository) ListByProject(_ context.Context, projectID uuid.UUID) ([]models.IFCModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []models.IFCModel
	for _, model := range r.models {
		if model.ProjectID == projectID {
			list = append(list, model)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return models.CreatedBefore(&list[i], &list[j])
	})
	return list, nil
}

func (r *MemoryIFCModelRepository) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	allowed := restrictColumns(fields)
	if len(allowed) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	model, ok := r.models[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	mergeFields(&model, allowed)
	model.UpdatedAt = time.Now().UTC()
	r.models[id] = model
	return nil
}

func mergeFields(model *models.IFCModel, allowed map[string]any) {
	if title, ok := allowed["title"].(string); ok {
		model.Title = title
	}
	if isDefault, ok := allowed["is_default"].(bool); ok {
		model.IsDefault = isDefault
	}
}

func (r *MemoryIFCModelRepository) ResetConversion(_ context.Context, id uuid.UUID, rawAttachmentID *uuid.UUID, fields map[string]any) (*models.IFCModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	model, ok := r.models[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	mergeFields(&model, restrictColumns(fields))
	if rawAttachmentID != nil {
		model.RawAttachmentID = *rawAttachmentID
	}
	model.GeometryAttachmentID = nil
	model.MetadataAttachmentID = nil
	model.Generation++
	model.UpdatedAt = time.Now().UTC()
	r.models[id] = model
	return &model, nil
}

func (r *MemoryIFCModelRepository) ApplyConversion(_ context.Context, result models.ConversionResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	model, ok := r.models[result.ModelID]
	if !ok || model.Generation != result.Generation {
		return false, nil
	}
	geometry, metadata := result.GeometryID, result.MetadataID
	model.GeometryAttachmentID = &geometry
	model.MetadataAttachmentID = &metadata
	model.UpdatedAt = time.Now().UTC()
	r.models[result.ModelID] = model
	return true, nil
}

func (r *MemoryIFCModelRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.models, id)
	return nil
}

func (r *MemoryIFCModelRepository) ReferencesAttachment(_ context.Context, attachmentID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, model := range r.models {
		for _, id := range model.AttachmentIDs() {
			if id == attachmentID {
				return true, nil
			}
		}
	}
	return false, nil
}

// MemoryProjectRepository keeps projects in process memory.
type MemoryProjectRepository struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]models.Project
}

func NewMemoryProjectRepository() *MemoryProjectRepository {
	return &MemoryProjectRepository{projects: make(map[uuid.UUID]models.Project)}
}

func (r *MemoryProjectRepository) CreateProject(_ context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	for _, existing := range r.projects {
		if existing.Identifier == project.Identifier {
			return gorm.ErrDuplicatedKey
		}
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	r.projects[project.ID] = *project
	return nil
}

func (r *MemoryProjectRepository) GetProject(_ context.Context, id uuid.UUID) (*models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	project, ok := r.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &project, nil
}

func (r *MemoryProjectRepository) ListProjects(_ context.Context) ([]models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	projects := make([]models.Project, 0, len(r.projects))
	for _, project := range r.projects {
		projects = append(projects, project)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})
	return projects, nil
}

// MemoryAttachmentRepository keeps attachment metadata in process memory.
type MemoryAttachmentRepository struct {
	mu          sync.RWMutex
	attachments map[uuid.UUID]models.Attachment
}

func NewMemoryAttachmentRepository() *MemoryAttachmentRepository {
	return &MemoryAttachmentRepository{attachments: make(map[uuid.UUID]models.Attachment)}
}

func (r *MemoryAttachmentRepository) Create(_ context.Context, attachment *models.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.attachments[attachment.ID]; exists {
		return gorm.ErrDuplicatedKey
	}
	r.attachments[attachment.ID] = *attachment
	return nil
}

func (r *MemoryAttachmentRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	attachment, ok := r.attachments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &attachment, nil
}

func (r *MemoryAttachmentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attachments, id)
	return nil
}
