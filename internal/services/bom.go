package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/partsdesk/partsdesk/internal/bom"
	"github.com/partsdesk/partsdesk/internal/db/models"
	"github.com/partsdesk/partsdesk/internal/docstore"
	"github.com/partsdesk/partsdesk/internal/logger"
	"github.com/partsdesk/partsdesk/internal/metrics"
)

// BOM mutation validation errors. None of them causes a write.
var (
	ErrProjectIDRequired    = errors.New("project ID is required")
	ErrInvalidProjectID     = errors.New("project ID cannot contain '/'")
	ErrDuplicatePartID      = errors.New("part ID must be unique, this part ID already exists")
	ErrNoCategory           = errors.New("no category chosen")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryNameRequired = errors.New("category name is required")
	ErrPartNameRequired     = errors.New("part name is required")
	ErrPartIDRequired       = errors.New("part ID is required")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrInvalidUpdate        = errors.New("invalid part update")
)

// BOM mutation names used in logs and metrics
const (
	OpAddPart        = "add_part"
	OpUpdatePart     = "update_part"
	OpDeletePart     = "delete_part"
	OpRenameCategory = "rename_category"
	OpToggleCategory = "toggle_category"
)

// PartDraft is the input of an add-part request. Either Category names an
// existing category or NewCategory names one to create.
type PartDraft struct {
	Category    string               `json:"category,omitempty"`
	NewCategory string               `json:"newCategory,omitempty"`
	Name        string               `json:"name"`
	PartID      string               `json:"partId"`
	Quantity    int                  `json:"quantity"`
	Description []bom.DescriptionRow `json:"description"`
}

// NewPartDraft returns an empty draft with one blank description row
func NewPartDraft() PartDraft {
	return PartDraft{Quantity: 1, Description: []bom.DescriptionRow{{}}}
}

// Reset clears the draft after a successful add
func (d *PartDraft) Reset() {
	*d = NewPartDraft()
}

func (d *PartDraft) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrPartNameRequired
	}
	if strings.TrimSpace(d.PartID) == "" {
		return ErrPartIDRequired
	}
	if d.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// Selection is the item currently shown in detail by a client
type Selection interface {
	SelectedItemID() string
	ClearSelection()
}

// BOMView is a filtered BOM. Stats always cover the whole tree.
type BOMView struct {
	Categories bom.Tree  `json:"categories"`
	Stats      bom.Stats `json:"stats"`
	Version    uint64    `json:"version"`
}

// BOM validates BOM mutations and writes the resulting tree back as one
// document. Without optimistic locking writes overwrite whatever is stored,
// with it a write fails with docstore.ErrVersionConflict when another writer
// got in between the read and the write.
type BOM struct {
	store      *docstore.Store
	optimistic bool
}

// NewBOMService creates a new BOM service
func NewBOMService(store *docstore.Store, optimistic bool) *BOM {
	return &BOM{
		store:      store,
		optimistic: optimistic,
	}
}

// Tree reads the stored tree of a project. A project without a BOM has an empty tree.
func (s *BOM) Tree(ctx context.Context, projectID string) (bom.Tree, uint64, error) {
	if err := checkProjectID(projectID); err != nil {
		return nil, 0, err
	}
	snap, err := s.store.Get(ctx, bomPath(projectID))
	if err != nil {
		return nil, 0, err
	}
	tree, err := decodeTree(snap)
	if err != nil {
		return nil, 0, err
	}
	return tree, snap.Version, nil
}

func decodeTree(snap docstore.Snapshot) (bom.Tree, error) {
	if !snap.Exists {
		return bom.Tree{}, nil
	}
	var doc bom.Document
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode BOM %s: %w", snap.Path, err)
	}
	if doc.Categories == nil {
		doc.Categories = bom.Tree{}
	}
	return doc.Categories, nil
}

func (s *BOM) mutate(ctx context.Context, op, projectID string, fn func(bom.Tree) (bom.Tree, error)) (tree bom.Tree, err error) {
	defer func() {
		metrics.BOMMutationsTotal.WithLabelValues(op, metrics.Result(err)).Inc()
	}()

	current, version, err := s.Tree(ctx, projectID)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}

	doc := bom.Document{Categories: next}
	if s.optimistic {
		_, err = s.store.SetIfVersion(ctx, bomPath(projectID), doc, version)
	} else {
		_, err = s.store.Set(ctx, bomPath(projectID), doc, false)
	}
	if err != nil {
		logger.ErrorWithFields("Failed to write BOM", map[string]interface{}{
			"project_id": projectID,
			"operation":  op,
			"error":      err.Error(),
		})
		return nil, err
	}

	logger.DebugWithFields("BOM written", map[string]interface{}{
		"project_id": projectID,
		"operation":  op,
	})
	return next, nil
}

// AddPart appends a new part to an existing or new category. The part ID is
// checked against every item of the project, ignoring case. On success the
// draft is reset.
func (s *BOM) AddPart(ctx context.Context, projectID string, draft *PartDraft) (bom.Item, error) {
	if err := draft.validate(); err != nil {
		return bom.Item{}, err
	}

	var added bom.Item
	_, err := s.mutate(ctx, OpAddPart, projectID, func(tree bom.Tree) (bom.Tree, error) {
		if bom.HasPartID(tree, draft.PartID) {
			return nil, ErrDuplicatePartID
		}

		category := strings.TrimSpace(draft.NewCategory)
		switch {
		case category != "":
			tree = bom.AppendCategory(tree, category)
		case draft.Category != "":
			category = draft.Category
			if !tree.HasCategory(category) {
				return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
			}
		default:
			return nil, ErrNoCategory
		}

		added = bom.NewItem(
			strings.TrimSpace(draft.Name),
			strings.TrimSpace(draft.PartID),
			bom.JoinDescription(draft.Description),
			category,
			draft.Quantity,
		)
		return bom.AddItem(tree, category, added), nil
	})
	if err != nil {
		return bom.Item{}, err
	}

	draft.Reset()
	return added, nil
}

// UpdatePart overlays update onto the item with the given id. A missing item
// is not an error and the tree is written back unchanged. The part ID is not
// checked for uniqueness here.
func (s *BOM) UpdatePart(ctx context.Context, projectID, itemID string, update bom.ItemUpdate) (bom.Tree, error) {
	if err := update.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	return s.mutate(ctx, OpUpdatePart, projectID, func(tree bom.Tree) (bom.Tree, error) {
		return bom.SetItemFields(tree, itemID, update), nil
	})
}

// DeletePart removes the item with the given id and clears sel when it points at it
func (s *BOM) DeletePart(ctx context.Context, projectID, itemID string, sel Selection) (bom.Tree, error) {
	tree, err := s.mutate(ctx, OpDeletePart, projectID, func(tree bom.Tree) (bom.Tree, error) {
		return bom.RemoveItem(tree, itemID), nil
	})
	if err != nil {
		return nil, err
	}
	if sel != nil && sel.SelectedItemID() == itemID {
		sel.ClearSelection()
	}
	return tree, nil
}

// RenameCategory renames a category and its items. Renaming onto the name of
// another existing category is not prevented.
func (s *BOM) RenameCategory(ctx context.Context, projectID, oldName, newName string) (bom.Tree, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, ErrCategoryNameRequired
	}
	return s.mutate(ctx, OpRenameCategory, projectID, func(tree bom.Tree) (bom.Tree, error) {
		return bom.RenameCategory(tree, oldName, newName), nil
	})
}

// ToggleCategory flips the expanded flag of a category
func (s *BOM) ToggleCategory(ctx context.Context, projectID, name string) (bom.Tree, error) {
	return s.mutate(ctx, OpToggleCategory, projectID, func(tree bom.Tree) (bom.Tree, error) {
		return bom.ToggleCategoryExpanded(tree, name), nil
	})
}

// View returns the categories matching q together with the statistics of the whole tree
func (s *BOM) View(ctx context.Context, projectID string, q bom.Query) (*BOMView, error) {
	tree, version, err := s.Tree(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &BOMView{
		Categories: bom.Filter(tree, q),
		Stats:      bom.ComputeStats(tree),
		Version:    version,
	}, nil
}

// Stats counts the parts of a project by status
func (s *BOM) Stats(ctx context.Context, projectID string) (bom.Stats, error) {
	tree, _, err := s.Tree(ctx, projectID)
	if err != nil {
		return bom.Stats{}, err
	}
	return bom.ComputeStats(tree), nil
}

// ExportFormat selects the export encoding
type ExportFormat string

// Export formats
const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// Export writes the BOM of a project with one row per item. Project columns
// are left empty when the project document does not exist.
func (s *BOM) Export(ctx context.Context, projectID string, format ExportFormat, w io.Writer) error {
	tree, _, err := s.Tree(ctx, projectID)
	if err != nil {
		return err
	}

	var info bom.ProjectInfo
	snap, err := s.store.Get(ctx, projectPath(projectID))
	if err != nil {
		return err
	}
	if snap.Exists {
		var project models.Project
		if err := snap.DataTo(&project); err != nil {
			return fmt.Errorf("failed to decode project %s: %w", projectID, err)
		}
		info = bom.ProjectInfo{ID: project.ProjectID, Name: project.ProjectName, ClientName: project.ClientName}
	}

	switch format {
	case ExportCSV:
		return bom.WriteCSV(w, info, tree)
	case ExportXLSX:
		return bom.WriteXLSX(w, info, tree)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}
