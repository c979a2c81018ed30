package models

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Attachment represents the metadata of a blob held in object storage.
type Attachment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StorageKey  string    `json:"storage_key"`
	CreatedAt   time.Time `json:"created_at"`
}

// Upload is a file handed in by a client, not yet stored.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}
