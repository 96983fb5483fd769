package models

import (
	"fmt"
	"time"
)

// WeekStatus is the position of a week relative to today
type WeekStatus string

// Week status constants
const (
	WeekStatusPast    WeekStatus = "past"
	WeekStatusCurrent WeekStatus = "current"
	WeekStatusFuture  WeekStatus = "future"
)

// EntryStatus tells whether an engineer booked time for a week
type EntryStatus string

// Entry status constants
const (
	// EntryStatusNotUpdated marks a week that existed before the engineer joined
	EntryStatusNotUpdated EntryStatus = "not-updated"
	// EntryStatusFuture marks a week added after the engineer joined
	EntryStatusFuture EntryStatus = "future"
	// EntryStatusOK marks a week with at least one time entry
	EntryStatusOK EntryStatus = "ok"
)

// TimeEntry is one booking of hours
type TimeEntry struct {
	Hours       float64   `json:"hours"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WeekData is an engineer's bookings for one week
type WeekData struct {
	Total   float64     `json:"total"`
	Entries []TimeEntry `json:"entries"`
	Status  EntryStatus `json:"status,omitempty"`
}

// Engineer is the body of a projects/{projectId}/engineers/{id} document
type Engineer struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Role       string              `json:"role"`
	Department string              `json:"department"`
	Weeks      map[string]WeekData `json:"weeks"`
}

// TotalHours sums the hours of every week
func (e *Engineer) TotalHours() float64 {
	var total float64
	for _, w := range e.Weeks {
		total += w.Total
	}
	return total
}

// Validate ensures that the engineer data is valid
func (e *Engineer) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("engineer name cannot be empty")
	}
	return nil
}

// Week is the body of a projects/{projectId}/weeks/{key} document
type Week struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Dates     string     `json:"dates"`
	Status    WeekStatus `json:"status"`
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
}

// NewWeek builds the week starting on the Monday of the week holding day
func NewWeek(day time.Time) Week {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)

	year, week := start.ISOWeek()
	return Week{
		Key:       fmt.Sprintf("%d-W%02d", year, week),
		Label:     fmt.Sprintf("Week %d", week),
		Dates:     fmt.Sprintf("%s - %s", start.Format("Jan 2"), end.Format("Jan 2")),
		StartDate: start,
		EndDate:   end,
	}
}

// StatusAt returns where the week lies relative to now
func (w Week) StatusAt(now time.Time) WeekStatus {
	switch {
	case now.Before(w.StartDate):
		return WeekStatusFuture
	case now.After(w.EndDate):
		return WeekStatusPast
	default:
		return WeekStatusCurrent
	}
}
