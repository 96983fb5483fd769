package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/partsdesk/partsdesk/internal/db/models"
)

// DateLayout is the layout of calendar dates in requests
const DateLayout = "2006-01-02"

// ProjectListResponse is the body of a project listing
type ProjectListResponse struct {
	Projects []models.Project `json:"projects"`
	Total    int              `json:"total"`
}

// RenameCategoryRequest renames a BOM category
type RenameCategoryRequest struct {
	Name string `json:"name"`
}

// EngineerRequest adds an engineer to a project
type EngineerRequest struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// Engineer converts the request into a new engineer
func (r EngineerRequest) Engineer() models.Engineer {
	return models.Engineer{
		Name:       strings.TrimSpace(r.Name),
		Role:       strings.TrimSpace(r.Role),
		Department: strings.TrimSpace(r.Department),
	}
}

// EngineerUpdateRequest changes the given engineer fields
type EngineerUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	Role       *string `json:"role,omitempty"`
	Department *string `json:"department,omitempty"`
}

// AddWeekRequest adds the week containing Date, today when empty
type AddWeekRequest struct {
	Date string `json:"date,omitempty"`
}

// Day parses Date, falling back to now
func (r AddWeekRequest) Day(now time.Time) (time.Time, error) {
	if r.Date == "" {
		return now, nil
	}
	day, err := time.ParseInLocation(DateLayout, r.Date, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return day, nil
}

// TimeEntryRequest logs hours of an engineer against a week
type TimeEntryRequest struct {
	WeekKey     string  `json:"weekKey"`
	Hours       float64 `json:"hours"`
	Description string  `json:"description"`
}

// PurchaseOrderRequest asks the relay to mail a purchase order.
// An empty To sends to the configured default receiver.
type PurchaseOrderRequest struct {
	To string `json:"to,omitempty"`
}

// PurchaseOrderResponse is the relay result. It keeps the flat
// success/messageId shape instead of the slug envelope.
type PurchaseOrderResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}
