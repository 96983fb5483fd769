package api_test

import (
	"testing"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsdesk/partsdesk/internal/bom"
	"github.com/partsdesk/partsdesk/internal/db/models"
	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/internal/types"
	"github.com/partsdesk/partsdesk/test"
)

func TestCostAnalysis(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	createProject(t, suite, defaultProject)
	projectID := defaultProject.ProjectID

	summary, err := suite.APIClient.GetCost(suite.Context(), projectID)
	require.NoError(t, err)
	assert.Equal(t, float64(models.DefaultCostPerHour), summary.CostPerHour)
	assert.Equal(t, float64(models.DefaultEstimatedBudget), summary.EstimatedBudget)
	assert.Zero(t, summary.TotalCost)
	assert.Equal(t, services.HealthOnTrack, summary.Health)

	servo, err := suite.APIClient.AddPart(suite.Context(), projectID, services.PartDraft{
		NewCategory: "Motors",
		Name:        "Servo Motor",
		PartID:      "SRV-1",
		Quantity:    4,
	})
	require.NoError(t, err)
	_, err = suite.APIClient.UpdatePart(suite.Context(), projectID, servo.ID, bom.ItemUpdate{
		FinalizedVendor: &bom.Vendor{Name: "Motion Supply", Price: 250},
	})
	require.NoError(t, err)

	week, err := suite.APIClient.AddWeek(suite.Context(), projectID, types.AddWeekRequest{Date: "2026-03-04"})
	require.NoError(t, err)
	engineer, err := suite.APIClient.AddEngineer(suite.Context(), projectID, engineerRequest)
	require.NoError(t, err)
	_, err = suite.APIClient.AddTimeEntry(suite.Context(), projectID, engineer.ID, types.TimeEntryRequest{WeekKey: week.Key, Hours: 10})
	require.NoError(t, err)

	settings, err := suite.APIClient.UpdateCostSettings(suite.Context(), projectID, models.CostSettings{
		CostPerHour:     100,
		EstimatedBudget: 2500,
		MiscCost:        500,
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, settings.CostPerHour)

	summary, err = suite.APIClient.GetCost(suite.Context(), projectID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, summary.BOMCost)
	assert.Equal(t, 10.0, summary.TotalHours)
	assert.Equal(t, 1000.0, summary.EngineerCost)
	assert.Equal(t, 2500.0, summary.TotalCost)
	assert.Equal(t, 0.0, summary.ProfitLoss)
	assert.Equal(t, 100.0, summary.BudgetUsage)
	assert.Equal(t, services.HealthNearBudget, summary.Health)

	_, err = suite.APIClient.UpdateCostSettings(suite.Context(), projectID, models.CostSettings{CostPerHour: -1})
	requireStatus(t, err, fiber.StatusBadRequest)

	_, err = suite.APIClient.GetCost(suite.Context(), "missing")
	requireStatus(t, err, fiber.StatusNotFound)
}
