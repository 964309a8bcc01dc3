package model

import "time"

// File is the metadata of one stored object.
// This is a pure domain model with no database-specific dependencies or tags.
// StoragePath is the opaque object key; it is exposed as filePath so clients can download by locator.
type File struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	StoragePath string    `json:"filePath"`
	Size        int64     `json:"size"`
	ContentType string    `json:"type"`
	CreatedAt   time.Time `json:"uploadDate"`
}
