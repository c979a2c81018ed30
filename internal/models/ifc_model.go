package models

import (
	"time"

	"github.com/google/uuid"
)

// IFCModel is one uploaded BIM model and the artifacts converted from it.
type IFCModel struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID            uuid.UUID  `json:"project_id" gorm:"type:uuid;not null;index:idx_ifc_models_project_created,priority:1"`
	Title                string     `json:"title" gorm:"not null"`
	RawAttachmentID      uuid.UUID  `json:"raw_attachment_id" gorm:"type:uuid;not null"`
	GeometryAttachmentID *uuid.UUID `json:"geometry_attachment_id,omitempty" gorm:"type:uuid"`
	MetadataAttachmentID *uuid.UUID `json:"metadata_attachment_id,omitempty" gorm:"type:uuid"`
	IsDefault            bool       `json:"is_default" gorm:"not null;default:false"`
	// Generation is bumped every time the raw upload is replaced or reconverted.
	// Conversion results carrying any other generation are discarded.
	Generation int64     `json:"generation" gorm:"not null;default:1"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;index:idx_ifc_models_project_created,priority:2"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// ConversionQueued reports whether the last create/update handed the raw
	// upload to the converter. It is not persisted.
	ConversionQueued bool `json:"conversion_queued" gorm:"-"`
}

// TableName binds IFCModel to its table.
func (IFCModel) TableName() string {
	return "ifc_models"
}

// IsViewerReady reports whether both converted artifacts are present.
func (m *IFCModel) IsViewerReady() bool {
	return m.GeometryAttachmentID != nil && m.MetadataAttachmentID != nil
}

// InDefaultSet reports whether the model is flagged default and can be rendered.
func (m *IFCModel) InDefaultSet() bool {
	return m.IsDefault && m.IsViewerReady()
}

// AttachmentIDs returns every attachment the model references.
func (m *IFCModel) AttachmentIDs() []uuid.UUID {
	return append([]uuid.UUID{m.RawAttachmentID}, m.ArtifactIDs()...)
}

// ArtifactIDs returns the converted artifacts that are present.
func (m *IFCModel) ArtifactIDs() []uuid.UUID {
	var ids []uuid.UUID
	if m.GeometryAttachmentID != nil {
		ids = append(ids, *m.GeometryAttachmentID)
	}
	if m.MetadataAttachmentID != nil {
		ids = append(ids, *m.MetadataAttachmentID)
	}
	return ids
}

// CreatedBefore orders models by creation time, falling back to the id so
// that the order is total.
func CreatedBefore(a, b *IFCModel) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
