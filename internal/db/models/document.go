package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Field names for document model
const (
	// DocumentTable is the table holding every document
	DocumentTable = "documents"
	// DocumentPathField is the column holding the full document path
	DocumentPathField = "path"
	// DocumentCollectionField is the column holding the parent collection path
	DocumentCollectionField = "collection"
	// DocumentVersionField is the column holding the write counter
	DocumentVersionField = "version"
	// DocumentDataField is the column holding the JSON body
	DocumentDataField = "data"
)

// Document is one JSON document addressed by a slash separated path such as
// "projects/P1" or "projects/P1/engineers/e-1".
type Document struct {
	Path       string          `json:"path" gorm:"primaryKey;size:512"`
	Collection string          `json:"collection" gorm:"not null;index;size:512"`
	Data       json.RawMessage `json:"data" gorm:"type:jsonb"`
	Version    uint64          `json:"version" gorm:"not null;default:0"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"index"`
}

// TableName pins the table name used in raw column expressions
func (Document) TableName() string {
	return DocumentTable
}

// ValidatePath checks that path names a document: an even number of
// non-empty segments.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("document path cannot be empty")
	}
	segments := strings.Split(path, "/")
	if len(segments)%2 != 0 {
		return fmt.Errorf("document path %q must have an even number of segments", path)
	}
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("document path %q has an empty segment", path)
		}
	}
	return nil
}

// CollectionOf returns the collection path that holds the document at path
func CollectionOf(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// BeforeSave is a GORM hook that derives the collection from the path
func (d *Document) BeforeSave(_ *gorm.DB) error {
	if err := ValidatePath(d.Path); err != nil {
		return err
	}
	d.Collection = CollectionOf(d.Path)
	if len(d.Data) == 0 {
		d.Data = json.RawMessage("{}")
	}
	return nil
}
