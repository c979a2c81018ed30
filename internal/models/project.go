package models

import (
	"time"

	"github.com/google/uuid"
)

// Project owns IFC models. The engine only reads it.
type Project struct {
	ID         uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Identifier string     `json:"identifier" gorm:"not null;uniqueIndex"`
	Name       string     `json:"name" gorm:"not null"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	IFCModels  []IFCModel `json:"ifc_models,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}
