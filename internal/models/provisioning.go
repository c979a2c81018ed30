package models

import "github.com/google/uuid"

// ProvisioningPayload is the data contract handed to the viewer client.
type ProvisioningPayload struct {
	Models              []ViewerModel           `json:"models"`
	Projects            []ViewerProject         `json:"projects"`
	GeometryArtifactIDs map[uuid.UUID]uuid.UUID `json:"geometryArtifactIds"`
	MetadataArtifactIDs map[uuid.UUID]uuid.UUID `json:"metadataArtifactIds"`
}

// ViewerModel is one catalog entry of a provisioning payload.
type ViewerModel struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Default bool      `json:"default"`
}

// ViewerProject describes the project the catalog belongs to.
type ViewerProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
