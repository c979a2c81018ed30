package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ifc-service/internal/models"
)

// AttachmentRepository defines persistence operations for attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AttachmentRepositoryImpl provides methods to interact with the Attachment model in the database.
type AttachmentRepositoryImpl struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new AttachmentRepositoryImpl instance with the provided GORM database connection.
func NewAttachmentRepository(db *gorm.DB) *AttachmentRepositoryImpl {
	return &AttachmentRepositoryImpl{db: db}
}

// Create creates a new Attachment in the database.
func (r *AttachmentRepositoryImpl) Create(ctx context.Context, attachment *models.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

// FindByID retrieves an Attachment by its ID from the database.
func (r *AttachmentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.db.WithContext(ctx).First(&attachment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// Delete deletes an Attachment by its ID from the database.
func (r *AttachmentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Attachment{}, "id = ?", id).Error
}
