package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/partsdesk/partsdesk/internal/bom"
	"github.com/partsdesk/partsdesk/internal/db/models"
	"github.com/partsdesk/partsdesk/internal/docstore"
)

// ErrInvalidCostSettings is returned for negative cost settings
var ErrInvalidCostSettings = errors.New("invalid cost settings")

// Budget health labels
const (
	HealthOnTrack    = "On Track"
	HealthNearBudget = "Near Budget"
	HealthOverBudget = "Over Budget"
)

// CostSummary is the cost breakdown of a project
type CostSummary struct {
	ProjectID       string  `json:"projectId"`
	CostPerHour     float64 `json:"costPerHour"`
	EstimatedBudget float64 `json:"estimatedBudget"`
	MiscCost        float64 `json:"miscCost"`
	BOMCost         float64 `json:"bomCost"`
	TotalHours      float64 `json:"totalHours"`
	EngineerCost    float64 `json:"engineerCost"`
	TotalCost       float64 `json:"totalCost"`
	ProfitLoss      float64 `json:"profitLoss"`
	BudgetUsage     float64 `json:"budgetUsage"`
	Health          string  `json:"health"`
}

// BOMCost sums quantity times finalized vendor price over every item with a finalized vendor
func BOMCost(tree bom.Tree) float64 {
	var total float64
	for _, item := range tree.Items() {
		if item.FinalizedVendor != nil {
			total += float64(item.Quantity) * item.FinalizedVendor.Price
		}
	}
	return total
}

// BudgetHealth labels a budget usage percentage
func BudgetHealth(usage float64) string {
	switch {
	case usage <= 80:
		return HealthOnTrack
	case usage <= 100:
		return HealthNearBudget
	default:
		return HealthOverBudget
	}
}

// ComputeCost derives the cost breakdown from settings, the BOM and the booked hours
func ComputeCost(settings models.CostSettings, tree bom.Tree, engineers []models.Engineer) CostSummary {
	summary := CostSummary{
		CostPerHour:     settings.CostPerHour,
		EstimatedBudget: settings.EstimatedBudget,
		MiscCost:        settings.MiscCost,
		BOMCost:         BOMCost(tree),
	}
	for i := range engineers {
		summary.TotalHours += engineers[i].TotalHours()
	}
	summary.EngineerCost = summary.TotalHours * settings.CostPerHour
	summary.TotalCost = summary.BOMCost + summary.EngineerCost + summary.MiscCost
	summary.ProfitLoss = settings.EstimatedBudget - summary.TotalCost
	if settings.EstimatedBudget > 0 {
		summary.BudgetUsage = summary.TotalCost / settings.EstimatedBudget * 100
	}
	summary.Health = BudgetHealth(summary.BudgetUsage)
	return summary
}

// Cost computes project cost analyses
type Cost struct {
	store     *docstore.Store
	projects  *Project
	bom       *BOM
	timesheet *Timesheet
}

// NewCostService creates a new cost service
func NewCostService(store *docstore.Store, projects *Project, bomService *BOM, timesheet *Timesheet) *Cost {
	return &Cost{
		store:     store,
		projects:  projects,
		bom:       bomService,
		timesheet: timesheet,
	}
}

// Settings returns the cost settings of a project, or the defaults when none were saved
func (s *Cost) Settings(ctx context.Context, projectID string) (models.CostSettings, error) {
	if err := checkProjectID(projectID); err != nil {
		return models.CostSettings{}, err
	}
	snap, err := s.store.Get(ctx, costSettingsPath(projectID))
	if err != nil {
		return models.CostSettings{}, err
	}
	if !snap.Exists {
		return models.DefaultCostSettings(), nil
	}
	var settings models.CostSettings
	if err := snap.DataTo(&settings); err != nil {
		return models.CostSettings{}, fmt.Errorf("failed to decode cost settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings saves the cost settings of a project
func (s *Cost) UpdateSettings(ctx context.Context, projectID string, settings models.CostSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCostSettings, err)
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return err
	}
	if _, err := s.store.Set(ctx, costSettingsPath(projectID), settings, false); err != nil {
		return fmt.Errorf("failed to save cost settings: %w", err)
	}
	return nil
}

// Summary computes the cost breakdown of a project
func (s *Cost) Summary(ctx context.Context, projectID string) (*CostSummary, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	settings, err := s.Settings(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tree, _, err := s.bom.Tree(ctx, projectID)
	if err != nil {
		return nil, err
	}
	engineers, err := s.timesheet.ListEngineers(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := ComputeCost(settings, tree, engineers)
	summary.ProjectID = projectID
	return &summary, nil
}
