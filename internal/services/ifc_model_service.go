package services

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"ifc-service/internal/metrics"
	"ifc-service/internal/models"
	"ifc-service/internal/repository"
)

// AttachmentStore is the part of the attachment service the lifecycle needs.
type AttachmentStore interface {
	Store(ctx context.Context, upload models.Upload) (*models.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ConversionTrigger accepts conversion requests. Submit must not block; a
// refused request is reported as an error wrapping ErrConversionUnavailable.
type ConversionTrigger interface {
	Submit(ctx context.Context, req models.ConversionRequest) error
}

// ModelFields holds the client supplied attributes of an IFC model. Nil
// fields are left untouched on update.
type ModelFields struct {
	Title     *string
	IsDefault *bool
	RawUpload *models.Upload
}

var allowedUploadExtensions = map[string]bool{
	".ifc": true, ".ifczip": true, ".zip": true, ".rar": true, ".7z": true, ".tar": true, ".gz": true,
}

// IFCModelService owns the lifecycle of IFC models: create, update, delete
// and the conversion callback.
type IFCModelService struct {
	repo        repository.IFCModelRepository
	attachments AttachmentStore
	trigger     ConversionTrigger
	metrics     *metrics.Lifecycle
	log         zerolog.Logger
	locks       *keyedMutex
}

func NewIFCModelService(
	repo repository.IFCModelRepository,
	attachments AttachmentStore,
	trigger ConversionTrigger,
	m *metrics.Lifecycle,
	log zerolog.Logger,
) *IFCModelService {
	return &IFCModelService{
		repo:        repo,
		attachments: attachments,
		trigger:     trigger,
		metrics:     m,
		log:         log.With().Str("component", "ifc_models").Logger(),
		locks:       newKeyedMutex(),
	}
}

// Create stores the raw upload, persists a not yet ready model and requests
// its conversion. A refused conversion request does not fail the call.
func (s *IFCModelService) Create(ctx context.Context, project *models.Project, fields ModelFields) (*models.IFCModel, error) {
	if err := validateFields(fields, true); err != nil {
		return nil, err
	}

	model := &models.IFCModel{
		ID:         uuid.New(),
		ProjectID:  project.ID,
		Title:      *fields.Title,
		Generation: 1,
	}
	if fields.IsDefault != nil {
		model.IsDefault = *fields.IsDefault
	}

	unlock := s.locks.Lock(model.ID)
	defer unlock()

	raw, err := s.attachments.Store(ctx, *fields.RawUpload)
	if err != nil {
		return nil, errors.Wrap(err, "store raw upload")
	}
	model.RawAttachmentID = raw.ID

	if err := s.repo.Create(ctx, model); err != nil {
		s.discard(ctx, raw.ID)
		return nil, errors.Wrap(err, "create ifc model")
	}

	s.log.Info().
		Str("model_id", model.ID.String()).
		Str("project_id", project.ID.String()).
		Str("raw_attachment_id", raw.ID.String()).
		Msg("ifc model created")

	s.submit(ctx, model)
	return model, nil
}

// Update merges the given fields into the model. Replacing the raw upload
// clears both artifacts, bumps the generation and requests a new conversion.
func (s *IFCModelService) Update(ctx context.Context, project *models.Project, id uuid.UUID, fields ModelFields) (*models.IFCModel, error) {
	if err := validateFields(fields, false); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.owned(ctx, project, id)
	if err != nil {
		return nil, err
	}

	var raw *models.Attachment
	if fields.RawUpload != nil {
		if raw, err = s.attachments.Store(ctx, *fields.RawUpload); err != nil {
			return nil, errors.Wrap(err, "store raw upload")
		}
	}

	changes := map[string]any{}
	if fields.Title != nil {
		changes["title"] = *fields.Title
	}
	if fields.IsDefault != nil {
		changes["is_default"] = *fields.IsDefault
	}

	if raw == nil {
		if err := s.repo.UpdateFields(ctx, id, changes); err != nil {
			return nil, translate(err, "update ifc model")
		}
		updated, err := s.repo.FindByID(ctx, id)
		return updated, translate(err, "reload ifc model")
	}

	updated, err := s.repo.ResetConversion(ctx, id, &raw.ID, changes)
	if err != nil {
		s.discard(ctx, raw.ID)
		return nil, translate(err, "replace raw upload")
	}
	s.log.Info().
		Str("model_id", id.String()).
		Int64("generation", updated.Generation).
		Str("raw_attachment_id", raw.ID.String()).
		Msg("raw upload replaced")

	s.discard(ctx, current.AttachmentIDs()...)
	s.submit(ctx, updated)
	return updated, nil
}

// Delete removes the model and its attachments. Deleting a missing model is a no-op.
func (s *IFCModelService) Delete(ctx context.Context, project *models.Project, id uuid.UUID) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	model, err := s.repo.FindByID(ctx, id)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "find ifc model")
	}
	if model.ProjectID != project.ID {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete ifc model")
	}

	s.log.Info().Str("model_id", id.String()).Msg("ifc model deleted")
	s.discard(ctx, model.AttachmentIDs()...)
	return nil
}

// ApplyConversion records the artifacts of a finished conversion. Results for
// a superseded generation or a deleted model are dropped and those of their
// artifacts no model references are removed.
func (s *IFCModelService) ApplyConversion(ctx context.Context, result models.ConversionResult) error {
	unlock := s.locks.Lock(result.ModelID)
	defer unlock()

	applied, err := s.repo.ApplyConversion(ctx, result)
	if err != nil {
		s.metrics.ConversionResult(metrics.OutcomeFailed)
		return errors.Wrap(err, "apply conversion")
	}

	if !applied {
		s.metrics.ConversionResult(metrics.OutcomeStale)
		s.log.Debug().
			Str("model_id", result.ModelID.String()).
			Int64("generation", result.Generation).
			Msg("stale conversion result dropped")
		s.discard(ctx, result.GeometryID, result.MetadataID)
		return nil
	}

	s.metrics.ConversionResult(metrics.OutcomeApplied)
	s.log.Info().
		Str("model_id", result.ModelID.String()).
		Int64("generation", result.Generation).
		Str("geometry_attachment_id", result.GeometryID.String()).
		Str("metadata_attachment_id", result.MetadataID.String()).
		Msg("conversion applied")
	return nil
}

// Reconvert clears the artifacts of a model and requests a fresh conversion
// of its current raw upload.
func (s *IFCModelService) Reconvert(ctx context.Context, project *models.Project, id uuid.UUID) (*models.IFCModel, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.owned(ctx, project, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.ResetConversion(ctx, id, nil, nil)
	if err != nil {
		return nil, translate(err, "reset conversion")
	}

	s.discard(ctx, current.ArtifactIDs()...)
	s.submit(ctx, updated)
	return updated, nil
}

// Get returns a model of the project.
func (s *IFCModelService) Get(ctx context.Context, project *models.Project, id uuid.UUID) (*models.IFCModel, error) {
	return s.owned(ctx, project, id)
}

// List returns all models of the project in creation order.
func (s *IFCModelService) List(ctx context.Context, project *models.Project) ([]models.IFCModel, error) {
	list, err := s.repo.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list ifc models")
	}
	return list, nil
}

func (s *IFCModelService) owned(ctx context.Context, project *models.Project, id uuid.UUID) (*models.IFCModel, error) {
	model, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "find ifc model")
	}
	if model.ProjectID != project.ID {
		return nil, ErrNotFound
	}
	return model, nil
}

func (s *IFCModelService) submit(ctx context.Context, model *models.IFCModel) {
	req := models.ConversionRequest{
		ModelID:         model.ID,
		RawAttachmentID: model.RawAttachmentID,
		Generation:      model.Generation,
	}
	if err := s.trigger.Submit(ctx, req); err != nil {
		model.ConversionQueued = false
		s.metrics.ConversionRequested(metrics.OutcomeUnavailable)
		s.log.Warn().Err(err).
			Str("model_id", model.ID.String()).
			Int64("generation", model.Generation).
			Msg("conversion request refused, model stays not ready")
		return
	}
	model.ConversionQueued = true
	s.metrics.ConversionRequested(metrics.OutcomeQueued)
}

// discard removes attachments best-effort. Attachments still referenced by a
// model are kept.
func (s *IFCModelService) discard(ctx context.Context, ids ...uuid.UUID) {
	for _, id := range ids {
		referenced, err := s.repo.ReferencesAttachment(ctx, id)
		if err != nil {
			s.log.Error().Err(err).Str("attachment_id", id.String()).Msg("failed to check attachment references")
			continue
		}
		if referenced {
			s.log.Debug().Str("attachment_id", id.String()).Msg("attachment still referenced, kept")
			continue
		}
		if err := s.attachments.Delete(ctx, id); err != nil {
			s.log.Error().Err(err).Str("attachment_id", id.String()).Msg("failed to remove attachment")
		}
	}
}

func validateFields(fields ModelFields, creating bool) error {
	verr := &ValidationError{}

	switch {
	case fields.Title != nil:
		if strings.TrimSpace(*fields.Title) == "" {
			verr.Add("title", "can't be blank")
		}
	case creating:
		verr.Add("title", "can't be blank")
	}

	switch upload := fields.RawUpload; {
	case upload != nil:
		if upload.Reader == nil || upload.Size == 0 {
			verr.Add("ifc_attachment", "can't be empty")
		}
		if !allowedUploadExtensions[strings.ToLower(filepath.Ext(upload.Filename))] {
			verr.Add("ifc_attachment", "must be an IFC file or an archive containing one")
		}
	case creating:
		verr.Add("ifc_attachment", "can't be blank")
	}

	return verr.orNil()
}
