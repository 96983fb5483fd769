package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DeadlineLayout is the date format of project deadlines
const DeadlineLayout = "2006-01-02"

// ProjectStatus represents the delivery state of a project
type ProjectStatus string

// Project status constants
const (
	// ProjectStatusOngoing indicates work is in progress
	ProjectStatusOngoing ProjectStatus = "Ongoing"
	// ProjectStatusDelayed indicates the project slipped its deadline
	ProjectStatusDelayed ProjectStatus = "Delayed"
	// ProjectStatusCompleted indicates the project was delivered
	ProjectStatusCompleted ProjectStatus = "Completed"
)

// String returns the string representation of the project status
func (s ProjectStatus) String() string {
	return string(s)
}

// ParseProjectStatus converts a string to a ProjectStatus, ignoring case
func ParseProjectStatus(str string) (ProjectStatus, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "ongoing":
		return ProjectStatusOngoing, nil
	case "delayed":
		return ProjectStatusDelayed, nil
	case "completed":
		return ProjectStatusCompleted, nil
	default:
		return "", fmt.Errorf("invalid project status: %s", str)
	}
}

// NormalizeProjectStatus maps any input to a status. Unknown values become Ongoing.
func NormalizeProjectStatus(str string) ProjectStatus {
	status, err := ParseProjectStatus(str)
	if err != nil {
		return ProjectStatusOngoing
	}
	return status
}

// UnmarshalJSON implements json.Unmarshaler for ProjectStatus
func (s *ProjectStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = NormalizeProjectStatus(str)
	return nil
}

// Project is the body of a projects/{projectId} document. The project ID is
// chosen by the user and doubles as the document key.
type Project struct {
	ProjectID   string        `json:"projectId"`
	ProjectName string        `json:"projectName"`
	ClientName  string        `json:"clientName"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	Deadline    string        `json:"deadline"`
}

// Validate ensures that the project data is valid
func (p *Project) Validate() error {
	if strings.TrimSpace(p.ProjectID) == "" {
		return fmt.Errorf("project ID cannot be empty")
	}
	if strings.Contains(p.ProjectID, "/") {
		return fmt.Errorf("project ID cannot contain '/'")
	}
	if strings.TrimSpace(p.ProjectName) == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if strings.TrimSpace(p.ClientName) == "" {
		return fmt.Errorf("client name cannot be empty")
	}
	if _, err := time.Parse(DeadlineLayout, p.Deadline); err != nil {
		return fmt.Errorf("deadline must be a date in YYYY-MM-DD form: %q", p.Deadline)
	}
	return nil
}
