// Package client provides the API client for interacting with the partsdesk API
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/partsdesk/partsdesk/internal/bom"
	"github.com/partsdesk/partsdesk/internal/db/models"
	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/internal/types"
	"github.com/partsdesk/partsdesk/pkg/api/v1/handlers"
	"github.com/partsdesk/partsdesk/pkg/api/v1/routes"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// Client is the interface for API client
type Client interface {
	// Health Check
	HealthCheck(ctx context.Context) (map[string]string, error)

	// Project methods
	ListProjects(ctx context.Context, params handlers.ProjectListParams) ([]models.Project, error)
	GetProject(ctx context.Context, projectID string) (models.Project, error)
	CreateProject(ctx context.Context, project models.Project) (models.Project, error)
	UpdateProject(ctx context.Context, projectID string, project models.Project) (models.Project, error)
	DeleteProject(ctx context.Context, projectID string) error

	// BOM methods
	GetBOM(ctx context.Context, projectID string, params handlers.BOMQueryParams) (services.BOMView, error)
	GetBOMStats(ctx context.Context, projectID string) (bom.Stats, error)
	ExportBOM(ctx context.Context, projectID string, format services.ExportFormat) ([]byte, error)
	AddPart(ctx context.Context, projectID string, draft services.PartDraft) (bom.Item, error)
	UpdatePart(ctx context.Context, projectID, itemID string, update bom.ItemUpdate) (bom.Tree, error)
	DeletePart(ctx context.Context, projectID, itemID string) (bom.Tree, error)
	RenameCategory(ctx context.Context, projectID, oldName, newName string) (bom.Tree, error)
	ToggleCategory(ctx context.Context, projectID, name string) (bom.Tree, error)
	WatchBOM(ctx context.Context, projectID string, fn func(services.BOMUpdate)) error

	// Time tracking methods
	ListEngineers(ctx context.Context, projectID string) ([]models.Engineer, error)
	AddEngineer(ctx context.Context, projectID string, req types.EngineerRequest) (models.Engineer, error)
	UpdateEngineer(ctx context.Context, projectID, engineerID string, req types.EngineerUpdateRequest) (models.Engineer, error)
	AddTimeEntry(ctx context.Context, projectID, engineerID string, req types.TimeEntryRequest) (models.WeekData, error)
	ListWeeks(ctx context.Context, projectID string) ([]models.Week, error)
	AddWeek(ctx context.Context, projectID string, req types.AddWeekRequest) (models.Week, error)

	// Cost methods
	GetCost(ctx context.Context, projectID string) (services.CostSummary, error)
	UpdateCostSettings(ctx context.Context, projectID string, settings models.CostSettings) (models.CostSettings, error)

	// Mail relay
	SendPurchaseOrder(ctx context.Context, to string) (types.PurchaseOrderResponse, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate the base URL
	_, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &APIClient{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		timeout: opts.Timeout,
	}, nil
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	// Resolve the endpoint URL
	fullURL := c.baseURL + endpoint

	// Create a new agent based on the HTTP method
	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	case http.MethodPut:
		agent = fiber.Put(fullURL)
	case http.MethodDelete:
		agent = fiber.Delete(fullURL)
	case http.MethodPatch:
		agent = fiber.Patch(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	// Set common headers
	agent.Set("Content-Type", "application/json")
	agent.Set("Accept", "application/json")

	// Add body if provided
	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// send executes the request and turns non-success status codes into a *fiber.Error
func (c *APIClient) send(agent *fiber.Agent) ([]byte, error) {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("error sending request: %w", errs[0])
	}

	if statusCode < 200 || statusCode >= 300 {
		// Prefer the message of a slug response, fall back to the raw body
		message := string(body)
		var slug types.SlugResponse
		if err := json.Unmarshal(body, &slug); err == nil && slug.Error != "" {
			message = slug.Error
		}
		return nil, &fiber.Error{
			Code:    statusCode,
			Message: message,
		}
	}
	return body, nil
}

// doRequest sends the HTTP request and decodes the response body into v
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	body, err := c.send(agent)
	if err != nil {
		return err
	}

	// Decode the response body if a target is provided
	if v != nil && len(body) > 0 {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}

	return nil
}

// envelope is a slug response with its data left encoded
type envelope struct {
	Slug  types.Slug      `json:"slug"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// executeRequest creates an agent, sends the request and decodes the data of the slug response
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, body, response interface{}) error {
	agent, err := c.createAgent(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	var env envelope
	if err := c.doRequest(agent, &env); err != nil {
		return err
	}
	if env.Slug != types.SuccessSlug {
		return fmt.Errorf("unexpected response slug %q: %s", env.Slug, env.Error)
	}

	if response == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, response); err != nil {
		return fmt.Errorf("error decoding response data: %w", err)
	}
	return nil
}

// Health check implementation

// HealthCheck checks the health of the API
func (c *APIClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, routes.HealthCheckURL(), nil)
	if err != nil {
		return nil, err
	}
	var response map[string]string
	if err := c.doRequest(agent, &response); err != nil {
		return map[string]string{}, err
	}
	return response, nil
}

// Project methods implementation

// ListProjects lists the projects matching the filters
func (c *APIClient) ListProjects(ctx context.Context, params handlers.ProjectListParams) ([]models.Project, error) {
	q := url.Values{}
	setQuery(q, "search", params.Search)
	setQuery(q, "client", params.Client)
	setQuery(q, "status", params.Status)

	var response types.ProjectListResponse
	if err := c.executeRequest(ctx, http.MethodGet, routes.GetProjectsURL(q), nil, &response); err != nil {
		return nil, err
	}
	return response.Projects, nil
}

// GetProject retrieves a project by ID
func (c *APIClient) GetProject(ctx context.Context, projectID string) (models.Project, error) {
	var project models.Project
	err := c.executeRequest(ctx, http.MethodGet, routes.GetProjectURL(projectID), nil, &project)
	return project, err
}

// CreateProject creates a project
func (c *APIClient) CreateProject(ctx context.Context, project models.Project) (models.Project, error) {
	var created models.Project
	err := c.executeRequest(ctx, http.MethodPost, routes.CreateProjectURL(), project, &created)
	return created, err
}

// UpdateProject replaces a project, moving it when project.ProjectID differs from projectID
func (c *APIClient) UpdateProject(ctx context.Context, projectID string, project models.Project) (models.Project, error) {
	var updated models.Project
	err := c.executeRequest(ctx, http.MethodPut, routes.UpdateProjectURL(projectID), project, &updated)
	return updated, err
}

// DeleteProject deletes a project and everything it owns
func (c *APIClient) DeleteProject(ctx context.Context, projectID string) error {
	return c.executeRequest(ctx, http.MethodDelete, routes.DeleteProjectURL(projectID), nil, nil)
}

// BOM methods implementation

// GetBOM retrieves the filtered BOM of a project
func (c *APIClient) GetBOM(ctx context.Context, projectID string, params handlers.BOMQueryParams) (services.BOMView, error) {
	q := url.Values{}
	setQuery(q, "search", params.Search)
	setQuery(q, "status", params.Status)
	for _, name := range params.Categories {
		q.Add(handlers.CategoryParam, name)
	}

	var view services.BOMView
	err := c.executeRequest(ctx, http.MethodGet, routes.GetBOMURL(projectID, q), nil, &view)
	return view, err
}

// GetBOMStats retrieves the part counts of a project
func (c *APIClient) GetBOMStats(ctx context.Context, projectID string) (bom.Stats, error) {
	var stats bom.Stats
	err := c.executeRequest(ctx, http.MethodGet, routes.GetBOMStatsURL(projectID), nil, &stats)
	return stats, err
}

// ExportBOM downloads the BOM export in the given format
func (c *APIClient) ExportBOM(ctx context.Context, projectID string, format services.ExportFormat) ([]byte, error) {
	var endpoint string
	switch format {
	case services.ExportCSV:
		endpoint = routes.ExportBOMCSVURL(projectID)
	case services.ExportXLSX:
		endpoint = routes.ExportBOMXLSXURL(projectID)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}

	agent, err := c.createAgent(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.send(agent)
}

// AddPart adds a part and returns it with its generated id
func (c *APIClient) AddPart(ctx context.Context, projectID string, draft services.PartDraft) (bom.Item, error) {
	var item bom.Item
	err := c.executeRequest(ctx, http.MethodPost, routes.AddPartURL(projectID), draft, &item)
	return item, err
}

// UpdatePart changes the set fields of a part and returns the new tree
func (c *APIClient) UpdatePart(ctx context.Context, projectID, itemID string, update bom.ItemUpdate) (bom.Tree, error) {
	var doc bom.Document
	err := c.executeRequest(ctx, http.MethodPatch, routes.UpdatePartURL(projectID, itemID), update, &doc)
	return doc.Categories, err
}

// DeletePart removes a part and returns the new tree
func (c *APIClient) DeletePart(ctx context.Context, projectID, itemID string) (bom.Tree, error) {
	var doc bom.Document
	err := c.executeRequest(ctx, http.MethodDelete, routes.DeletePartURL(projectID, itemID), nil, &doc)
	return doc.Categories, err
}

// RenameCategory renames a category and returns the new tree
func (c *APIClient) RenameCategory(ctx context.Context, projectID, oldName, newName string) (bom.Tree, error) {
	var doc bom.Document
	req := types.RenameCategoryRequest{Name: newName}
	err := c.executeRequest(ctx, http.MethodPut, routes.RenameCategoryURL(projectID, oldName), req, &doc)
	return doc.Categories, err
}

// ToggleCategory flips the expanded flag of a category and returns the new tree
func (c *APIClient) ToggleCategory(ctx context.Context, projectID, name string) (bom.Tree, error) {
	var doc bom.Document
	err := c.executeRequest(ctx, http.MethodPost, routes.ToggleCategoryURL(projectID, name), nil, &doc)
	return doc.Categories, err
}

// WatchBOM calls fn for every BOM snapshot of a project until ctx is done or
// the server ends the stream. The first snapshot is the current state.
//
// The stream is read with net/http because fiber.Agent buffers whole bodies.
func (c *APIClient) WatchBOM(ctx context.Context, projectID string, fn func(services.BOMUpdate)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+routes.StreamBOMURL(projectID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", handlers.ContentTypeEventStream)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("error opening BOM feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var slug types.SlugResponse
		_ = json.NewDecoder(resp.Body).Decode(&slug)
		return &fiber.Error{Code: resp.StatusCode, Message: slug.Error}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	event := ""
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && event == handlers.FeedEventBOM:
			var update services.BOMUpdate
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &update); err != nil {
				return fmt.Errorf("error decoding BOM update: %w", err)
			}
			fn(update)
		case line == "":
			event = ""
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error reading BOM feed: %w", err)
	}
	return nil
}

// Time tracking methods implementation

// ListEngineers lists the engineers of a project
func (c *APIClient) ListEngineers(ctx context.Context, projectID string) ([]models.Engineer, error) {
	var engineers []models.Engineer
	err := c.executeRequest(ctx, http.MethodGet, routes.GetEngineersURL(projectID), nil, &engineers)
	return engineers, err
}

// AddEngineer adds an engineer to a project
func (c *APIClient) AddEngineer(ctx context.Context, projectID string, req types.EngineerRequest) (models.Engineer, error) {
	var engineer models.Engineer
	err := c.executeRequest(ctx, http.MethodPost, routes.AddEngineerURL(projectID), req, &engineer)
	return engineer, err
}

// UpdateEngineer changes the profile of an engineer
func (c *APIClient) UpdateEngineer(ctx context.Context, projectID, engineerID string, req types.EngineerUpdateRequest) (models.Engineer, error) {
	var engineer models.Engineer
	err := c.executeRequest(ctx, http.MethodPatch, routes.UpdateEngineerURL(projectID, engineerID), req, &engineer)
	return engineer, err
}

// AddTimeEntry logs hours and returns the updated week of the engineer
func (c *APIClient) AddTimeEntry(ctx context.Context, projectID, engineerID string, req types.TimeEntryRequest) (models.WeekData, error) {
	var week models.WeekData
	err := c.executeRequest(ctx, http.MethodPost, routes.AddTimeEntryURL(projectID, engineerID), req, &week)
	return week, err
}

// ListWeeks lists the weeks of a project
func (c *APIClient) ListWeeks(ctx context.Context, projectID string) ([]models.Week, error) {
	var weeks []models.Week
	err := c.executeRequest(ctx, http.MethodGet, routes.GetWeeksURL(projectID), nil, &weeks)
	return weeks, err
}

// AddWeek adds a week to a project
func (c *APIClient) AddWeek(ctx context.Context, projectID string, req types.AddWeekRequest) (models.Week, error) {
	var week models.Week
	err := c.executeRequest(ctx, http.MethodPost, routes.AddWeekURL(projectID), req, &week)
	return week, err
}

// Cost methods implementation

// GetCost retrieves the cost breakdown of a project
func (c *APIClient) GetCost(ctx context.Context, projectID string) (services.CostSummary, error) {
	var summary services.CostSummary
	err := c.executeRequest(ctx, http.MethodGet, routes.GetCostURL(projectID), nil, &summary)
	return summary, err
}

// UpdateCostSettings saves the cost settings of a project
func (c *APIClient) UpdateCostSettings(ctx context.Context, projectID string, settings models.CostSettings) (models.CostSettings, error) {
	var saved models.CostSettings
	err := c.executeRequest(ctx, http.MethodPut, routes.UpdateCostSettingsURL(projectID), settings, &saved)
	return saved, err
}

// Mail relay implementation

// SendPurchaseOrder asks the relay to mail a purchase order. The relay
// answers with a flat body, also on failure.
func (c *APIClient) SendPurchaseOrder(ctx context.Context, to string) (types.PurchaseOrderResponse, error) {
	agent, err := c.createAgent(ctx, http.MethodPost, routes.SendPurchaseOrderURL(), types.PurchaseOrderRequest{To: to})
	if err != nil {
		return types.PurchaseOrderResponse{}, err
	}

	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return types.PurchaseOrderResponse{}, fmt.Errorf("error sending request: %w", errs[0])
	}
	var response types.PurchaseOrderResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return types.PurchaseOrderResponse{}, &fiber.Error{Code: statusCode, Message: string(body)}
	}
	if !response.Success {
		return response, &fiber.Error{Code: statusCode, Message: response.Error}
	}
	return response, nil
}

func setQuery(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
