package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsdesk/partsdesk/internal/db/models"
)

func TestProjectService_Create(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	project := &models.Project{
		ProjectID:   " P1 ",
		ProjectName: "Rover",
		ClientName:  "Acme",
		Deadline:    "2025-06-30",
	}
	require.NoError(t, ts.ProjectService.Create(ts.ctx, project))
	assert.Equal(t, "P1", project.ProjectID)
	assert.Equal(t, models.ProjectStatusOngoing, project.Status)

	got, err := ts.ProjectService.Get(ts.ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, project, got)

	dup := *project
	dup.ProjectName = "Other"
	assert.ErrorIs(t, ts.ProjectService.Create(ts.ctx, &dup), ErrProjectExists)

	got, err = ts.ProjectService.Get(ts.ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "Rover", got.ProjectName)
}

func TestProjectService_CreateValidation(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	tests := []struct {
		name    string
		project models.Project
	}{
		{name: "Missing ID", project: models.Project{ProjectName: "n", ClientName: "c", Deadline: "2025-01-01"}},
		{name: "Slash in ID", project: models.Project{ProjectID: "a/b", ProjectName: "n", ClientName: "c", Deadline: "2025-01-01"}},
		{name: "Missing name", project: models.Project{ProjectID: "P", ClientName: "c", Deadline: "2025-01-01"}},
		{name: "Missing client", project: models.Project{ProjectID: "P", ProjectName: "n", Deadline: "2025-01-01"}},
		{name: "Bad deadline", project: models.Project{ProjectID: "P", ProjectName: "n", ClientName: "c", Deadline: "31/12/2025"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ts.ProjectService.Create(ts.ctx, &tt.project), ErrInvalidProject)
		})
	}

	projects, err := ts.ProjectService.List(ts.ctx, ProjectFilter{})
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestProjectService_ConcurrentCreateOneWins(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ts.ProjectService.Create(ts.ctx, &models.Project{
				ProjectID: "P1", ProjectName: "n", ClientName: "c", Deadline: "2025-01-01",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrProjectExists)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestProjectService_GetMissing(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	_, err := ts.ProjectService.Get(ts.ctx, "nope")
	assert.ErrorIs(t, err, ErrProjectNotFound)
	_, err = ts.ProjectService.Get(ts.ctx, "")
	assert.ErrorIs(t, err, ErrProjectIDRequired)
}

func TestProjectService_List(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	for _, p := range []models.Project{
		{ProjectID: "P2", ProjectName: "Drone", ClientName: "Acme", Deadline: "2025-01-01", Status: "delayed"},
		{ProjectID: "P1", ProjectName: "Rover", ClientName: "Acme", Deadline: "2025-01-01"},
		{ProjectID: "P3", ProjectName: "Buoy", ClientName: "Oceanic", Deadline: "2025-01-01", Status: "COMPLETED"},
	} {
		p := p
		require.NoError(t, ts.ProjectService.Create(ts.ctx, &p))
	}

	ids := func(filter ProjectFilter) []string {
		projects, err := ts.ProjectService.List(ts.ctx, filter)
		require.NoError(t, err)
		out := []string{}
		for _, p := range projects {
			out = append(out, p.ProjectID)
		}
		return out
	}

	assert.Equal(t, []string{"P1", "P2", "P3"}, ids(ProjectFilter{}))
	assert.Equal(t, []string{"P1", "P2", "P3"}, ids(ProjectFilter{Status: "all"}))
	assert.Equal(t, []string{"P2"}, ids(ProjectFilter{Status: "Delayed"}))
	assert.Equal(t, []string{"P3"}, ids(ProjectFilter{Status: "completed"}))
	assert.Equal(t, []string{"P1", "P2"}, ids(ProjectFilter{Client: "acme"}))
	assert.Equal(t, []string{"P3"}, ids(ProjectFilter{Search: "ocean"}))
	assert.Equal(t, []string{"P2"}, ids(ProjectFilter{Search: "p2"}))
	assert.Equal(t, []string{}, ids(ProjectFilter{Search: "rover", Client: "Oceanic"}))
}

func TestProjectService_UpdateInPlace(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()
	project := ts.createProject(t, "P1")

	project.ProjectName = "Renamed"
	project.Status = models.ProjectStatusCompleted
	require.NoError(t, ts.ProjectService.Update(ts.ctx, "P1", project))

	got, err := ts.ProjectService.Get(ts.ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.ProjectName)
	assert.Equal(t, models.ProjectStatusCompleted, got.Status)

	missing := *project
	missing.ProjectID = "P9"
	assert.ErrorIs(t, ts.ProjectService.Update(ts.ctx, "P9", &missing), ErrProjectNotFound)
}

func TestProjectService_UpdateChangesID(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()
	project := ts.createProject(t, "P1")
	ts.createProject(t, "P2")
	ts.addPart(t, "P1", "Sensors", "S-100")
	engineer, err := ts.TimesheetService.AddEngineer(ts.ctx, "P1", models.Engineer{Name: "Ana"})
	require.NoError(t, err)
	require.NoError(t, ts.CostService.UpdateSettings(ts.ctx, "P1", models.CostSettings{CostPerHour: 10, EstimatedBudget: 100}))

	// The new ID must be free
	taken := *project
	taken.ProjectID = "P2"
	assert.ErrorIs(t, ts.ProjectService.Update(ts.ctx, "P1", &taken), ErrProjectExists)

	moved := *project
	moved.ProjectID = "P1-NEW"
	require.NoError(t, ts.ProjectService.Update(ts.ctx, "P1", &moved))

	_, err = ts.ProjectService.Get(ts.ctx, "P1")
	assert.ErrorIs(t, err, ErrProjectNotFound)
	got, err := ts.ProjectService.Get(ts.ctx, "P1-NEW")
	require.NoError(t, err)
	assert.Equal(t, project.ProjectName, got.ProjectName)

	tree, _, err := ts.BOMService.Tree(ts.ctx, "P1-NEW")
	require.NoError(t, err)
	assert.Len(t, tree.Items(), 1)
	tree, _, err = ts.BOMService.Tree(ts.ctx, "P1")
	require.NoError(t, err)
	assert.Empty(t, tree)

	_, err = ts.TimesheetService.GetEngineer(ts.ctx, "P1-NEW", engineer.ID)
	require.NoError(t, err)
	engineers, err := ts.TimesheetService.ListEngineers(ts.ctx, "P1")
	require.NoError(t, err)
	assert.Empty(t, engineers)

	settings, err := ts.CostService.Settings(ts.ctx, "P1-NEW")
	require.NoError(t, err)
	assert.Equal(t, float64(10), settings.CostPerHour)
}

func TestProjectService_DeleteCascades(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()
	ts.createProject(t, "P1")
	ts.addPart(t, "P1", "Sensors", "S-100")
	_, err := ts.TimesheetService.AddEngineer(ts.ctx, "P1", models.Engineer{Name: "Ana"})
	require.NoError(t, err)
	_, err = ts.TimesheetService.AddWeek(ts.ctx, "P1", time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.NoError(t, ts.ProjectService.Delete(ts.ctx, "P1"))
	assert.ErrorIs(t, ts.ProjectService.Delete(ts.ctx, "P1"), ErrProjectNotFound)

	for _, path := range []string{bomPath("P1"), projectPath("P1")} {
		snap, err := ts.Store.Get(ts.ctx, path)
		require.NoError(t, err)
		assert.False(t, snap.Exists, path)
	}
	for _, collection := range projectSubcollections("P1") {
		snaps, err := ts.Store.List(ts.ctx, collection)
		require.NoError(t, err)
		assert.Empty(t, snaps, collection)
	}
}

func TestProjectService_Subscribe(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	got := make(chan []models.Project, 8)
	unsubscribe := ts.ProjectService.Subscribe(func(projects []models.Project, err error) {
		assert.NoError(t, err)
		got <- projects
	})
	defer unsubscribe()

	next := func() []models.Project {
		select {
		case projects := <-got:
			return projects
		case <-time.After(2 * time.Second):
			require.FailNow(t, "no project list received")
			return nil
		}
	}

	assert.Empty(t, next())
	ts.createProject(t, "P1")
	projects := next()
	require.Len(t, projects, 1)
	assert.Equal(t, "P1", projects[0].ProjectID)
}

func TestNormalizeProjectStatus(t *testing.T) {
	tests := map[string]models.ProjectStatus{
		"ongoing":   models.ProjectStatusOngoing,
		"Delayed":   models.ProjectStatusDelayed,
		"COMPLETED": models.ProjectStatusCompleted,
		"":          models.ProjectStatusOngoing,
		"archived":  models.ProjectStatusOngoing,
	}
	for in, want := range tests {
		assert.Equal(t, want, models.NormalizeProjectStatus(in), in)
	}
}
