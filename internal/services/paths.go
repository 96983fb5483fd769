package services

import (
	"fmt"
	"strings"

	"github.com/partsdesk/partsdesk/internal/docstore"
)

// Document layout of the store
const (
	projectsCollection  = "projects"
	bomCollection       = "bom"
	engineersCollection = "engineers"
	weeksCollection     = "weeks"
	settingsCollection  = "settings"
	costSettingsID      = "cost"
)

func projectPath(projectID string) string {
	return docstore.Path(projectsCollection, projectID)
}

func bomPath(projectID string) string {
	return docstore.Path(bomCollection, projectID)
}

func engineersPath(projectID string) string {
	return docstore.Path(projectsCollection, projectID, engineersCollection)
}

func engineerPath(projectID, engineerID string) string {
	return docstore.Path(engineersPath(projectID), engineerID)
}

func weeksPath(projectID string) string {
	return docstore.Path(projectsCollection, projectID, weeksCollection)
}

func weekPath(projectID, weekKey string) string {
	return docstore.Path(weeksPath(projectID), weekKey)
}

func settingsPath(projectID string) string {
	return docstore.Path(projectsCollection, projectID, settingsCollection)
}

func costSettingsPath(projectID string) string {
	return docstore.Path(settingsPath(projectID), costSettingsID)
}

// projectSubcollections are the collections owned by a project document
func projectSubcollections(projectID string) []string {
	return []string{engineersPath(projectID), weeksPath(projectID), settingsPath(projectID)}
}

// checkProjectID rejects IDs that cannot name a single project document
func checkProjectID(projectID string) error {
	if projectID == "" {
		return ErrProjectIDRequired
	}
	if strings.Contains(projectID, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidProjectID, projectID)
	}
	return nil
}
