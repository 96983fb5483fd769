package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsdesk/partsdesk/internal/bom"
	"github.com/partsdesk/partsdesk/internal/docstore"
)

type fakeSelection struct {
	selected string
	cleared  bool
}

func (f *fakeSelection) SelectedItemID() string { return f.selected }
func (f *fakeSelection) ClearSelection()        { f.selected, f.cleared = "", true }

func TestBOMService_AddPart(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	draft := NewPartDraft()
	draft.NewCategory = "  Sensors "
	draft.Name = "Temp sensor"
	draft.PartID = "S-100"
	draft.Quantity = 2
	draft.Description = []bom.DescriptionRow{{Key: "range", Value: "-40..125"}, {}}

	item, err := ts.BOMService.AddPart(ts.ctx, "P1", &draft)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Sensors", item.Category)
	assert.Equal(t, bom.StatusNotOrdered, item.Status)
	assert.Equal(t, "range: -40..125\n: ", item.Description)
	assert.Equal(t, NewPartDraft(), draft, "draft is reset after a successful add")

	tree, version, err := ts.BOMService.Tree(ts.ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)
	require.Len(t, tree, 1)
	assert.True(t, tree[0].IsExpanded)
	require.Len(t, tree[0].Items, 1)
	assert.Equal(t, item, tree[0].Items[0])

	// Adding to the existing category by name
	draft = NewPartDraft()
	draft.Category = "Sensors"
	draft.Name = "Hall sensor"
	draft.PartID = "S-200"
	_, err = ts.BOMService.AddPart(ts.ctx, "P1", &draft)
	require.NoError(t, err)

	tree, _, err = ts.BOMService.Tree(ts.ctx, "P1")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Len(t, tree[0].Items, 2)
}

func TestBOMService_AddPartValidation(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()
	ts.addPart(t, "P1", "Sensors", "S-100")

	tests := []struct {
		name    string
		project string
		mutate  func(d *PartDraft)
		wantErr error
	}{
		{name: "Duplicate part ID in another case", mutate: func(d *PartDraft) { d.PartID = "s-100" }, wantErr: ErrDuplicatePartID},
		{name: "Duplicate part ID with spaces", mutate: func(d *PartDraft) { d.PartID = " S-100 " }, wantErr: ErrDuplicatePartID},
		{name: "No category", mutate: func(d *PartDraft) { d.NewCategory = "" }, wantErr: ErrNoCategory},
		{name: "Blank new category", mutate: func(d *PartDraft) { d.NewCategory = "   " }, wantErr: ErrNoCategory},
		{name: "Unknown category", mutate: func(d *PartDraft) { d.NewCategory = ""; d.Category = "Cables" }, wantErr: ErrCategoryNotFound},
		{name: "Missing name", mutate: func(d *PartDraft) { d.Name = " " }, wantErr: ErrPartNameRequired},
		{name: "Missing part ID", mutate: func(d *PartDraft) { d.PartID = "" }, wantErr: ErrPartIDRequired},
		{name: "Zero quantity", mutate: func(d *PartDraft) { d.Quantity = 0 }, wantErr: ErrInvalidQuantity},
		{name: "Missing project", project: "-", wantErr: ErrProjectIDRequired},
		{name: "Nested project ID", project: "a/b/c", wantErr: ErrInvalidProjectID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := NewPartDraft()
			draft.NewCategory = "Sensors"
			draft.Name = "Other"
			draft.PartID = "S-999"
			if tt.mutate != nil {
				tt.mutate(&draft)
			}
			project := "P1"
			switch tt.project {
			case "":
			case "-":
				project = ""
			default:
				project = tt.project
			}
			saved := draft

			_, err := ts.BOMService.AddPart(ts.ctx, project, &draft)
			assert.ErrorIs(t, err, tt.wantErr)
			snaps, err := ts.Store.List(ts.ctx, "bom/a/b")
			require.NoError(t, err)
			assert.Empty(t, snaps, "no nested BOM document")
			assert.Equal(t, saved, draft, "draft is kept on failure")

			tree, version, err := ts.BOMService.Tree(ts.ctx, "P1")
			require.NoError(t, err)
			assert.Equal(t, uint64(1), version, "no write happened")
			require.Len(t, tree, 1)
			assert.Len(t, tree[0].Items, 1)
		})
	}
}

func TestBOMService_Scenarios(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	itemID := ts.addPart(t, "P1", "Sensors", "S-100")

	// A part ID differing only in case is rejected and the category keeps one item
	draft := NewPartDraft()
	draft.Category = "Sensors"
	draft.Name = "Copy"
	draft.PartID = "s-100"
	_, err := ts.BOMService.AddPart(ts.ctx, "P1", &draft)
	require.ErrorIs(t, err, ErrDuplicatePartID)
	tree, _, err := ts.BOMService.Tree(ts.ctx, "P1")
	require.NoError(t, err)
	require.Len(t, tree[0].Items, 1)

	// Update the status to received
	received := bom.StatusReceived
	_, err = ts.BOMService.UpdatePart(ts.ctx, "P1", itemID, bom.ItemUpdate{Status: &received})
	require.NoError(t, err)
	stats, err := ts.BOMService.Stats(ts.ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, bom.Stats{TotalParts: 1, ReceivedParts: 1}, stats)

	// Delete it
	_, err = ts.BOMService.DeletePart(ts.ctx, "P1", itemID, nil)
	require.NoError(t, err)
	tree, _, err = ts.BOMService.Tree(ts.ctx, "P1")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Empty(t, tree[0].Items)
	stats, err = ts.BOMService.Stats(ts.ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalParts)

	// Rename a category holding two items
	ts.addPart(t, "P1", "Sensors", "S-1")
	ts.addPart(t, "P1", "Sensors", "S-2")
	_, err = ts.BOMService.RenameCategory(ts.ctx, "P1", "Sensors", "Detectors")
	require.NoError(t, err)
	tree, _, err = ts.BOMService.Tree(ts.ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Detectors"}, tree.CategoryNames())
	require.Len(t, tree[0].Items, 2)
	for _, item := range tree[0].Items {
		assert.Equal(t, "Detectors", item.Category)
	}
}

func TestBOMService_UpdatePart(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()
	itemID := ts.addPart(t, "P1", "Sensors", "S-100")
	otherID := ts.addPart(t, "P1", "Sensors", "S-200")

	qty := 9
	vendor := bom.Vendor{Name: "Acme", Price: 12.5, LeadTime: "2 weeks", Availability: "in stock"}
	delivery := "2025-03-01"
	tree, err := ts.BOMService.UpdatePart(ts.ctx, "P1", itemID, bom.ItemUpdate{
		Quantity:         &qty,
		FinalizedVendor:  &vendor,
		ExpectedDelivery: &delivery,
	})
	require.NoError(t, err)

	item, ok := bom.FindItem(tree, itemID)
	require.True(t, ok)
	assert.Equal(t, 9, item.Quantity)
	assert.Equal(t, &vendor, item.FinalizedVendor)
	assert.Equal(t, delivery, item.ExpectedDelivery)

	// The part ID is not checked for uniqueness on update
	dup := "S-100"
	_, err = ts.BOMService.UpdatePart(ts.ctx, "P1", otherID, bom.ItemUpdate{PartID: &dup})
	require.NoError(t, err)

	// A missing item is a silent no-op that still writes
	_, before, err := ts.BOMService.Tree(ts.ctx, "P1")
	require.NoError(t, err)
	unchanged, err := ts.BOMService.UpdatePart(ts.ctx, "P1", "missing", bom.ItemUpdate{Quantity: &qty})
	require.NoError(t, err)
	stored, after, err := ts.BOMService.Tree(ts.ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
	assert.Equal(t, stored, unchanged)

	negative := -1
	_, err = ts.BOMService.UpdatePart(ts.ctx, "P1", itemID, bom.ItemUpdate{Quantity: &negative})
	assert.ErrorIs(t, err, ErrInvalidUpdate)
}

func TestBOMService_DeletePartClearsSelection(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()
	itemID := ts.addPart(t, "P1", "Sensors", "S-100")
	otherID := ts.addPart(t, "P1", "Sensors", "S-200")

	sel := &fakeSelection{selected: otherID}
	_, err := ts.BOMService.DeletePart(ts.ctx, "P1", itemID, sel)
	require.NoError(t, err)
	assert.False(t, sel.cleared, "selection of another item is kept")

	sel.selected = otherID
	_, err = ts.BOMService.DeletePart(ts.ctx, "P1", otherID, sel)
	require.NoError(t, err)
	assert.True(t, sel.cleared)
	assert.Empty(t, sel.selected)
}

func TestBOMService_RenameAndToggleCategory(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()
	ts.addPart(t, "P1", "Sensors", "S-100")
	ts.addPart(t, "P1", "Hardware", "H-1")

	// Renaming onto an existing name is not prevented
	tree, err := ts.BOMService.RenameCategory(ts.ctx, "P1", "Sensors", "Hardware")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hardware", "Hardware"}, tree.CategoryNames())

	_, err = ts.BOMService.RenameCategory(ts.ctx, "P1", "Hardware", " ")
	assert.ErrorIs(t, err, ErrCategoryNameRequired)

	tree, err = ts.BOMService.ToggleCategory(ts.ctx, "P1", "Hardware")
	require.NoError(t, err)
	assert.False(t, tree[0].IsExpanded)
	assert.False(t, tree[1].IsExpanded)
}

func TestBOMService_View(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()
	ts.addPart(t, "P1", "Sensors", "S-100")
	ts.addPart(t, "P1", "Hardware", "H-1")

	view, err := ts.BOMService.View(ts.ctx, "P1", bom.Query{Search: "h-"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hardware"}, view.Categories.CategoryNames())
	assert.Equal(t, 2, view.Stats.TotalParts, "stats cover the whole tree")
	assert.Equal(t, uint64(2), view.Version)

	view, err = ts.BOMService.View(ts.ctx, "empty", bom.Query{})
	require.NoError(t, err)
	assert.Empty(t, view.Categories)
}

func TestBOMService_Export(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()
	ts.createProject(t, "P1")
	ts.addPart(t, "P1", "Sensors", "S-100")

	var buf bytes.Buffer
	require.NoError(t, ts.BOMService.Export(ts.ctx, "P1", ExportCSV, &buf))
	lines := strings.Split(buf.String(), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"P1","Project P1","Acme","S-100","Part S-100","Sensors","2","Pending","","",""`, lines[1])

	buf.Reset()
	require.NoError(t, ts.BOMService.Export(ts.ctx, "P1", ExportXLSX, &buf))
	assert.NotZero(t, buf.Len())

	assert.Error(t, ts.BOMService.Export(ts.ctx, "P1", ExportFormat("pdf"), &buf))

	// Without a project document the project columns are empty
	ts.addPart(t, "P2", "Sensors", "S-100")
	buf.Reset()
	require.NoError(t, ts.BOMService.Export(ts.ctx, "P2", ExportCSV, &buf))
	assert.Contains(t, buf.String(), "\r\n"+`"","","","S-100"`)
}

func TestBOMService_LastWriterWins(t *testing.T) {
	ts := NewConcurrentTestSetup(t)
	defer ts.CleanUp()
	itemID := ts.addPart(t, "P1", "Sensors", "S-100")

	// Concurrent whole-tree writes all succeed without optimistic locking
	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			qty := i + 1
			_, errs[i] = ts.BOMService.UpdatePart(context.Background(), "P1", itemID, bom.ItemUpdate{Quantity: &qty})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	// Every write bumped the version and one of them is the stored tree
	tree, version, err := ts.BOMService.Tree(ts.ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, uint64(writers+1), version)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Items, 1)
	assert.GreaterOrEqual(t, tree[0].Items[0].Quantity, 1)
	assert.LessOrEqual(t, tree[0].Items[0].Quantity, writers)
}

func TestBOMService_OptimisticLocking(t *testing.T) {
	ts := NewOptimisticTestSetup(t)
	defer ts.CleanUp()
	itemID := ts.addPart(t, "P1", "Sensors", "S-100")

	// A stale write is rejected by the store
	_, version, err := ts.BOMService.Tree(ts.ctx, "P1")
	require.NoError(t, err)
	_, err = ts.Store.SetIfVersion(ts.ctx, bomPath("P1"), bom.Document{Categories: bom.Tree{}}, version-1)
	assert.True(t, errors.Is(err, docstore.ErrVersionConflict))

	// Sequential mutations read the current version and succeed
	qty := 3
	_, err = ts.BOMService.UpdatePart(ts.ctx, "P1", itemID, bom.ItemUpdate{Quantity: &qty})
	require.NoError(t, err)
	_, err = ts.BOMService.ToggleCategory(ts.ctx, "P1", "Sensors")
	require.NoError(t, err)

	_, after, err := ts.BOMService.Tree(ts.ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, version+2, after)
}
