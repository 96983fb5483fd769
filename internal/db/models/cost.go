package models

import "fmt"

// Cost settings defaults
const (
	DefaultCostPerHour     = 1500
	DefaultEstimatedBudget = 600000
	DefaultMiscCost        = 0
)

// CostSettings is the body of a projects/{projectId}/settings/cost document
type CostSettings struct {
	CostPerHour     float64 `json:"costPerHour"`
	EstimatedBudget float64 `json:"estimatedBudget"`
	MiscCost        float64 `json:"miscCost"`
}

// DefaultCostSettings returns the settings used until a project saves its own
func DefaultCostSettings() CostSettings {
	return CostSettings{
		CostPerHour:     DefaultCostPerHour,
		EstimatedBudget: DefaultEstimatedBudget,
		MiscCost:        DefaultMiscCost,
	}
}

// Validate ensures that the settings are usable
func (s *CostSettings) Validate() error {
	if s.CostPerHour < 0 {
		return fmt.Errorf("cost per hour cannot be negative")
	}
	if s.EstimatedBudget < 0 {
		return fmt.Errorf("estimated budget cannot be negative")
	}
	if s.MiscCost < 0 {
		return fmt.Errorf("misc cost cannot be negative")
	}
	return nil
}
