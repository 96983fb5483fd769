// Package models defines the database models
package models

import "errors"

var (
	// ErrDocumentNotFound is returned when no document exists at a path
	ErrDocumentNotFound = errors.New("document not found")
	// ErrVersionConflict is returned when a conditional write finds a newer version
	ErrVersionConflict = errors.New("document version conflict")
)
