package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ifc-service/internal/models"
)

// IFCModelRepository defines persistence operations for IFC models.
type IFCModelRepository interface {
	Create(ctx context.Context, model *models.IFCModel) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.IFCModel, error)
	// ListByProject returns the models of a project in creation order.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.IFCModel, error)
	// UpdateFields merges the given user-editable columns into the stored record.
	// Columns outside UpdatableColumns are ignored.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	// ResetConversion clears both artifacts and bumps the generation. When
	// rawAttachmentID is non-nil it also replaces the raw upload. The given
	// user-editable fields are merged in the same write.
	ResetConversion(ctx context.Context, id uuid.UUID, rawAttachmentID *uuid.UUID, fields map[string]any) (*models.IFCModel, error)
	// ApplyConversion stores the artifacts only if the record still exists at
	// the given generation. It reports whether the record was changed.
	ApplyConversion(ctx context.Context, result models.ConversionResult) (bool, error)
	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
	// ReferencesAttachment reports whether any model points at the attachment.
	ReferencesAttachment(ctx context.Context, attachmentID uuid.UUID) (bool, error)
}

// UpdatableColumns are the columns a regular update may touch. The artifact
// columns belong to the conversion callback alone.
var UpdatableColumns = map[string]bool{
	"title":      true,
	"is_default": true,
}

func restrictColumns(fields map[string]any) map[string]any {
	allowed := make(map[string]any, len(fields))
	for k, v := range fields {
		if UpdatableColumns[k] {
			allowed[k] = v
		}
	}
	return allowed
}

// IFCModelRepositoryImpl stores IFC models in PostgreSQL through GORM.
type IFCModelRepositoryImpl struct {
	db *gorm.DB
}

// NewIFCModelRepository creates a new IFCModelRepositoryImpl instance with the provided GORM database connection.
func NewIFCModelRepository(db *gorm.DB) *IFCModelRepositoryImpl {
	return &IFCModelRepositoryImpl{db: db}
}

// Create inserts a new IFC model.
func (r *IFCModelRepositoryImpl) Create(ctx context.Context, model *models.IFCModel) error {
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID retrieves an IFC model by its ID.
func (r *IFCModelRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.IFCModel, error) {
	var model models.IFCModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &model, nil
}

// ListByProject retrieves all IFC models of a project, oldest first.
func (r *IFCModelRepositoryImpl) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.IFCModel, error) {
	var list []models.IFCModel
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&list).Error
	return list, err
}

// UpdateFields updates title and default flag without touching other columns.
func (r *IFCModelRepositoryImpl) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	allowed := restrictColumns(fields)
	if len(allowed) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.IFCModel{}).Where("id = ?", id).Updates(allowed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ResetConversion reverts the model to not-ready under a new generation.
func (r *IFCModelRepositoryImpl) ResetConversion(ctx context.Context, id uuid.UUID, rawAttachmentID *uuid.UUID, fields map[string]any) (*models.IFCModel, error) {
	updates := restrictColumns(fields)
	updates["geometry_attachment_id"] = nil
	updates["metadata_attachment_id"] = nil
	updates["generation"] = gorm.Expr("generation + ?", 1)
	if rawAttachmentID != nil {
		updates["raw_attachment_id"] = *rawAttachmentID
	}

	var model models.IFCModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.IFCModel{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// ApplyConversion writes the artifact references guarded by the generation.
func (r *IFCModelRepositoryImpl) ApplyConversion(ctx context.Context, result models.ConversionResult) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.IFCModel{}).
		Where("id = ? AND generation = ?", result.ModelID, result.Generation).
		Updates(map[string]any{
			"geometry_attachment_id": result.GeometryID,
			"metadata_attachment_id": result.MetadataID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete deletes an IFC model by its ID.
func (r *IFCModelRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.IFCModel{}, "id = ?", id).Error
}

// ReferencesAttachment checks the raw and artifact columns of all models.
func (r *IFCModelRepositoryImpl) ReferencesAttachment(ctx context.Context, attachmentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.IFCModel{}).
		Where("raw_attachment_id = ? OR geometry_attachment_id = ? OR metadata_attachment_id = ?",
			attachmentID, attachmentID, attachmentID).
		Count(&count).Error
	return count > 0, err
}
