package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/partsdesk/partsdesk/internal/db/models"
	"github.com/partsdesk/partsdesk/internal/docstore"
	"github.com/partsdesk/partsdesk/internal/logger"
)

// Project errors
var (
	ErrProjectExists   = errors.New("project ID already exists, please choose a different ID")
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidProject  = errors.New("invalid project")
)

// ProjectFilter narrows a project list. Empty fields place no restriction and
// a Status of "all" matches every status.
type ProjectFilter struct {
	Search string
	Client string
	Status string
}

// Matches reports whether p passes the filter
func (f ProjectFilter) Matches(p models.Project) bool {
	if f.Search != "" {
		search := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.ProjectName), search) &&
			!strings.Contains(strings.ToLower(p.ClientName), search) &&
			!strings.Contains(strings.ToLower(p.ProjectID), search) {
			return false
		}
	}
	if f.Client != "" && !strings.EqualFold(f.Client, p.ClientName) {
		return false
	}
	if f.Status != "" && !strings.EqualFold(f.Status, "all") && !strings.EqualFold(f.Status, p.Status.String()) {
		return false
	}
	return true
}

// Project handles project-related operations
type Project struct {
	store *docstore.Store
}

// NewProjectService creates a new instance of ProjectService
func NewProjectService(store *docstore.Store) *Project {
	return &Project{
		store: store,
	}
}

func prepareProject(project *models.Project) error {
	project.ProjectID = strings.TrimSpace(project.ProjectID)
	project.Status = models.NormalizeProjectStatus(project.Status.String())
	if err := project.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	return nil
}

// Create stores a new project under its ID. The ID must not be taken.
func (s *Project) Create(ctx context.Context, project *models.Project) error {
	if err := prepareProject(project); err != nil {
		return err
	}
	if err := s.ensureFree(ctx, project.ProjectID); err != nil {
		return err
	}

	if _, err := s.store.SetIfVersion(ctx, projectPath(project.ProjectID), project, 0); err != nil {
		if errors.Is(err, docstore.ErrVersionConflict) {
			return ErrProjectExists
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	logger.InfoWithFields("Project created", map[string]interface{}{"project_id": project.ProjectID})
	return nil
}

// ensureFree is a single read of the target key
func (s *Project) ensureFree(ctx context.Context, projectID string) error {
	snap, err := s.store.Get(ctx, projectPath(projectID))
	if err != nil {
		return err
	}
	if snap.Exists {
		return ErrProjectExists
	}
	return nil
}

// Get retrieves a project by ID
func (s *Project) Get(ctx context.Context, projectID string) (*models.Project, error) {
	if err := checkProjectID(projectID); err != nil {
		return nil, err
	}
	snap, err := s.store.Get(ctx, projectPath(projectID))
	if err != nil {
		return nil, err
	}
	if !snap.Exists {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	return decodeProject(snap)
}

func decodeProject(snap docstore.Snapshot) (*models.Project, error) {
	var project models.Project
	if err := snap.DataTo(&project); err != nil {
		return nil, fmt.Errorf("failed to decode project %s: %w", snap.ID(), err)
	}
	if project.ProjectID == "" {
		project.ProjectID = snap.ID()
	}
	return &project, nil
}

func decodeProjects(snaps []docstore.Snapshot) ([]models.Project, error) {
	projects := make([]models.Project, 0, len(snaps))
	for _, snap := range snaps {
		project, err := decodeProject(snap)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	return projects, nil
}

// List retrieves the projects passing filter, ordered by ID
func (s *Project) List(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	snaps, err := s.store.List(ctx, projectsCollection)
	if err != nil {
		return nil, err
	}
	all, err := decodeProjects(snaps)
	if err != nil {
		return nil, err
	}

	projects := make([]models.Project, 0, len(all))
	for _, p := range all {
		if filter.Matches(p) {
			projects = append(projects, p)
		}
	}
	return projects, nil
}

// Update replaces the project stored under currentID. When the project ID
// changes, the project and everything it owns are copied to the new key
// before the old key is deleted. The two steps are not atomic.
func (s *Project) Update(ctx context.Context, currentID string, project *models.Project) error {
	if err := prepareProject(project); err != nil {
		return err
	}
	if _, err := s.Get(ctx, currentID); err != nil {
		return err
	}

	if project.ProjectID == currentID {
		if _, err := s.store.Set(ctx, projectPath(currentID), project, false); err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		return nil
	}

	if err := s.ensureFree(ctx, project.ProjectID); err != nil {
		return err
	}
	if _, err := s.store.SetIfVersion(ctx, projectPath(project.ProjectID), project, 0); err != nil {
		if errors.Is(err, docstore.ErrVersionConflict) {
			return ErrProjectExists
		}
		return fmt.Errorf("failed to copy project: %w", err)
	}
	if err := s.copyOwned(ctx, currentID, project.ProjectID); err != nil {
		return err
	}
	if err := s.deleteAll(ctx, currentID); err != nil {
		return err
	}

	logger.InfoWithFields("Project renamed", map[string]interface{}{
		"old_project_id": currentID,
		"project_id":     project.ProjectID,
	})
	return nil
}

func (s *Project) copyOwned(ctx context.Context, fromID, toID string) error {
	snap, err := s.store.Get(ctx, bomPath(fromID))
	if err != nil {
		return err
	}
	if snap.Exists {
		if _, err := s.store.Set(ctx, bomPath(toID), snap.Data, false); err != nil {
			return fmt.Errorf("failed to copy BOM: %w", err)
		}
	}

	from := projectSubcollections(fromID)
	to := projectSubcollections(toID)
	for i := range from {
		snaps, err := s.store.List(ctx, from[i])
		if err != nil {
			return err
		}
		for _, snap := range snaps {
			if _, err := s.store.Set(ctx, docstore.Path(to[i], snap.ID()), snap.Data, false); err != nil {
				return fmt.Errorf("failed to copy %s: %w", snap.Path, err)
			}
		}
	}
	return nil
}

// Delete removes a project with its BOM, engineers, weeks and settings
func (s *Project) Delete(ctx context.Context, projectID string) error {
	if _, err := s.Get(ctx, projectID); err != nil {
		return err
	}
	if err := s.deleteAll(ctx, projectID); err != nil {
		return err
	}
	logger.InfoWithFields("Project deleted", map[string]interface{}{"project_id": projectID})
	return nil
}

func (s *Project) deleteAll(ctx context.Context, projectID string) error {
	for _, collection := range projectSubcollections(projectID) {
		if err := s.store.DeleteCollection(ctx, collection); err != nil {
			return err
		}
	}
	if err := s.store.Delete(ctx, bomPath(projectID)); err != nil {
		return err
	}
	return s.store.Delete(ctx, projectPath(projectID))
}

// Subscribe calls fn with every project now and after each change
func (s *Project) Subscribe(fn func([]models.Project, error)) docstore.Unsubscribe {
	return s.store.SubscribeCollection(projectsCollection, func(snaps []docstore.Snapshot, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(decodeProjects(snaps))
	})
}
