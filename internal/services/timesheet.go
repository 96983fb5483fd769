package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/partsdesk/partsdesk/internal/db/models"
	"github.com/partsdesk/partsdesk/internal/docstore"
	"github.com/partsdesk/partsdesk/internal/logger"
)

// Time tracking errors
var (
	ErrEngineerNotFound = errors.New("engineer not found")
	ErrInvalidEngineer  = errors.New("invalid engineer")
	ErrInvalidHours     = errors.New("hours must be greater than zero")
	ErrWeekExists       = errors.New("week already exists")
	ErrWeekKeyRequired  = errors.New("week key is required")
	ErrWeekNotFound     = errors.New("week not found")
)

// EngineerUpdate changes the profile of an engineer. Nil fields are left unchanged.
type EngineerUpdate struct {
	Name       *string `json:"name,omitempty"`
	Role       *string `json:"role,omitempty"`
	Department *string `json:"department,omitempty"`
}

func (u EngineerUpdate) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Role != nil {
		fields["role"] = *u.Role
	}
	if u.Department != nil {
		fields["department"] = *u.Department
	}
	return fields
}

// Timesheet handles engineers, weeks and time entries of projects
type Timesheet struct {
	store    *docstore.Store
	projects *Project
	now      func() time.Time
}

// NewTimesheetService creates a new timesheet service
func NewTimesheetService(store *docstore.Store, projects *Project) *Timesheet {
	return &Timesheet{
		store:    store,
		projects: projects,
		now:      time.Now,
	}
}

// AddEngineer adds an engineer to a project. The engineer starts with an
// empty, not updated entry for every existing week.
func (s *Timesheet) AddEngineer(ctx context.Context, projectID string, engineer models.Engineer) (*models.Engineer, error) {
	if err := engineer.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEngineer, err)
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}

	weeks, err := s.ListWeeks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	engineer.ID = uuid.NewString()
	engineer.Weeks = make(map[string]models.WeekData, len(weeks))
	for _, w := range weeks {
		engineer.Weeks[w.Key] = models.WeekData{Entries: []models.TimeEntry{}, Status: models.EntryStatusNotUpdated}
	}

	if _, err := s.store.Set(ctx, engineerPath(projectID, engineer.ID), engineer, false); err != nil {
		return nil, fmt.Errorf("failed to add engineer: %w", err)
	}
	logger.InfoWithFields("Engineer added", map[string]interface{}{
		"project_id":  projectID,
		"engineer_id": engineer.ID,
	})
	return &engineer, nil
}

// GetEngineer retrieves one engineer of a project
func (s *Timesheet) GetEngineer(ctx context.Context, projectID, engineerID string) (*models.Engineer, error) {
	if err := checkProjectID(projectID); err != nil {
		return nil, err
	}
	snap, err := s.store.Get(ctx, engineerPath(projectID, engineerID))
	if err != nil {
		return nil, err
	}
	if !snap.Exists {
		return nil, fmt.Errorf("%w: %s", ErrEngineerNotFound, engineerID)
	}
	return decodeEngineer(snap)
}

func decodeEngineer(snap docstore.Snapshot) (*models.Engineer, error) {
	var engineer models.Engineer
	if err := snap.DataTo(&engineer); err != nil {
		return nil, fmt.Errorf("failed to decode engineer %s: %w", snap.ID(), err)
	}
	engineer.ID = snap.ID()
	if engineer.Weeks == nil {
		engineer.Weeks = map[string]models.WeekData{}
	}
	return &engineer, nil
}

// UpdateEngineer changes the name, role or department of an engineer
func (s *Timesheet) UpdateEngineer(ctx context.Context, projectID, engineerID string, update EngineerUpdate) (*models.Engineer, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: engineer name cannot be empty", ErrInvalidEngineer)
	}
	fields := update.fields()
	if len(fields) == 0 {
		return s.GetEngineer(ctx, projectID, engineerID)
	}

	snap, err := s.store.UpdateFields(ctx, engineerPath(projectID, engineerID), fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrEngineerNotFound, engineerID)
	}
	if err != nil {
		return nil, err
	}
	return decodeEngineer(snap)
}

// ListEngineers returns the engineers of a project ordered by ID
func (s *Timesheet) ListEngineers(ctx context.Context, projectID string) ([]models.Engineer, error) {
	if err := checkProjectID(projectID); err != nil {
		return nil, err
	}
	snaps, err := s.store.List(ctx, engineersPath(projectID))
	if err != nil {
		return nil, err
	}
	engineers := make([]models.Engineer, 0, len(snaps))
	for _, snap := range snaps {
		engineer, err := decodeEngineer(snap)
		if err != nil {
			return nil, err
		}
		engineers = append(engineers, *engineer)
	}
	return engineers, nil
}

// AddWeek adds the week holding day to a project and an empty entry for it
// to every engineer
func (s *Timesheet) AddWeek(ctx context.Context, projectID string, day time.Time) (*models.Week, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}

	week := models.NewWeek(day)
	week.Status = week.StatusAt(s.now())
	if _, err := s.store.SetIfVersion(ctx, weekPath(projectID, week.Key), week, 0); err != nil {
		if errors.Is(err, docstore.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: %s", ErrWeekExists, week.Key)
		}
		return nil, fmt.Errorf("failed to add week: %w", err)
	}

	engineers, err := s.ListEngineers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	empty := models.WeekData{Entries: []models.TimeEntry{}, Status: models.EntryStatusFuture}
	for _, e := range engineers {
		if _, err := s.store.UpdateFields(ctx, engineerPath(projectID, e.ID), map[string]interface{}{
			"weeks." + week.Key: empty,
		}); err != nil {
			return nil, fmt.Errorf("failed to add week to engineer %s: %w", e.ID, err)
		}
	}
	return &week, nil
}

// ListWeeks returns the weeks of a project ordered by start date
func (s *Timesheet) ListWeeks(ctx context.Context, projectID string) ([]models.Week, error) {
	if err := checkProjectID(projectID); err != nil {
		return nil, err
	}
	snaps, err := s.store.List(ctx, weeksPath(projectID))
	if err != nil {
		return nil, err
	}
	weeks := make([]models.Week, 0, len(snaps))
	for _, snap := range snaps {
		var week models.Week
		if err := snap.DataTo(&week); err != nil {
			return nil, fmt.Errorf("failed to decode week %s: %w", snap.ID(), err)
		}
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].StartDate.Before(weeks[j].StartDate)
	})
	return weeks, nil
}

// AddTimeEntry books hours for an engineer in a week of the project and
// marks the week ok. The week must have been added to the project.
func (s *Timesheet) AddTimeEntry(ctx context.Context, projectID, engineerID, weekKey string, hours float64, description string) (*models.WeekData, error) {
	if weekKey == "" || strings.Contains(weekKey, ".") {
		return nil, ErrWeekKeyRequired
	}
	if hours <= 0 {
		return nil, ErrInvalidHours
	}
	engineer, err := s.GetEngineer(ctx, projectID, engineerID)
	if err != nil {
		return nil, err
	}
	weekSnap, err := s.store.Get(ctx, weekPath(projectID, weekKey))
	if err != nil {
		return nil, err
	}
	if !weekSnap.Exists {
		return nil, fmt.Errorf("%w: %s", ErrWeekNotFound, weekKey)
	}

	now := s.now()
	week := engineer.Weeks[weekKey]
	week.Total += hours
	week.Entries = append(week.Entries, models.TimeEntry{
		Hours:       hours,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	week.Status = models.EntryStatusOK

	if _, err := s.store.UpdateFields(ctx, engineerPath(projectID, engineerID), map[string]interface{}{
		"weeks." + weekKey: week,
	}); err != nil {
		return nil, fmt.Errorf("failed to add time entry: %w", err)
	}
	return &week, nil
}

// RefreshWeekStatuses recomputes the past, current or future status of every
// week of every project and returns how many weeks changed
func (s *Timesheet) RefreshWeekStatuses(ctx context.Context) (int, error) {
	now := s.now()
	snaps, err := s.store.List(ctx, projectsCollection)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, project := range snaps {
		weeks, err := s.ListWeeks(ctx, project.ID())
		if err != nil {
			return changed, err
		}
		for _, w := range weeks {
			status := w.StatusAt(now)
			if status == w.Status {
				continue
			}
			if _, err := s.store.UpdateFields(ctx, weekPath(project.ID(), w.Key), map[string]interface{}{
				"status": status,
			}); err != nil {
				return changed, err
			}
			changed++
		}
	}
	return changed, nil
}
