package models

import "github.com/google/uuid"

// ConversionRequest asks for the raw upload of one model generation to be
// turned into viewer artifacts.
type ConversionRequest struct {
	ModelID         uuid.UUID `json:"model_id"`
	RawAttachmentID uuid.UUID `json:"raw_attachment_id"`
	Generation      int64     `json:"generation"`
}

// ConversionResult is reported once a conversion job has produced both artifacts.
type ConversionResult struct {
	ModelID    uuid.UUID `json:"model_id"`
	Generation int64     `json:"generation"`
	GeometryID uuid.UUID `json:"geometry_attachment_id"`
	MetadataID uuid.UUID `json:"metadata_attachment_id"`
}
