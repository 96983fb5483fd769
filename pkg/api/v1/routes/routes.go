// Package routes defines the API routes and URL structure
package routes

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/partsdesk/partsdesk/pkg/api/v1/handlers"
)

/*

To keep this file organized, routes should be organized in the following way:

1. Smallest scope first (i.e. project routes before BOM routes)
2. For similar scopes, put the endpoints in alphabetical order
3. Order routes in GET, POST, PUT, PATCH, DELETE order.
	a. Within this ordering, param urls (ie /:id) should go last, otherwise fiber will interpret the route slug as that param.
	b. After param considerations, order alphabetically.
4. For clarity, naming should match the action (i.e. GetProject, DeleteProject)

*/

// API base configuration
const (
	// DefaultPort is the default port for the API
	DefaultPort = "8080"
	// APIv1Prefix is the prefix for all API endpoints
	APIv1Prefix = "/api/v1"
)

// DefaultBaseURL is the default base URL for the API
var DefaultBaseURL = fmt.Sprintf("http://localhost:%s", DefaultPort)

// Route names for lookup
const (
	// Health check and metrics
	HealthCheck = "HealthCheck"
	Metrics     = "Metrics"

	// Project routes
	GetProjects   = "GetProjects"
	GetProject    = "GetProject"
	CreateProject = "CreateProject"
	UpdateProject = "UpdateProject"
	DeleteProject = "DeleteProject"

	// BOM routes
	GetBOM         = "GetBOM"
	ExportBOMCSV   = "ExportBOMCSV"
	ExportBOMXLSX  = "ExportBOMXLSX"
	StreamBOM      = "StreamBOM"
	GetBOMStats    = "GetBOMStats"
	ToggleCategory = "ToggleCategory"
	AddPart        = "AddPart"
	RenameCategory = "RenameCategory"
	UpdatePart     = "UpdatePart"
	DeletePart     = "DeletePart"

	// Time tracking routes
	GetEngineers   = "GetEngineers"
	GetWeeks       = "GetWeeks"
	AddEngineer    = "AddEngineer"
	AddTimeEntry   = "AddTimeEntry"
	AddWeek        = "AddWeek"
	UpdateEngineer = "UpdateEngineer"

	// Cost routes
	GetCost            = "GetCost"
	UpdateCostSettings = "UpdateCostSettings"

	// Mail relay
	SendPurchaseOrder = "SendPurchaseOrder"
)

// routeCache stores extracted routes for use prior to compilation
var (
	routeCache     map[string]string
	routeCacheMu   sync.RWMutex
	routeCacheInit sync.Once
)

// RegisterRoutes configures all the v1 routes
//
// NOTE: route ordering is important because routes will try and match in the order they are registered.
// For example, if we registered /bom/:x before /bom/stats, stats would get interpreted as a param.
func RegisterRoutes(
	app *fiber.App,
	projectHandler *handlers.ProjectHandler,
	bomHandler *handlers.BOMHandler,
	feedHandler *handlers.FeedHandler,
	timesheetHandler *handlers.TimesheetHandler,
	costHandler *handlers.CostHandler,
	mailHandler *handlers.MailHandler,
) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	}).Name(HealthCheck)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler())).Name(Metrics)

	// The mail relay keeps its unversioned path
	app.Post("/send-purchase-order", mailHandler.SendPurchaseOrder).Name(SendPurchaseOrder)

	// API v1 routes
	v1 := app.Group(APIv1Prefix)

	// ---------------------------
	// Project endpoints
	projects := v1.Group("/projects")
	projects.Get("/", projectHandler.ListProjects).Name(GetProjects)
	projects.Get("/:id", projectHandler.GetProject).Name(GetProject)
	projects.Post("/", projectHandler.CreateProject).Name(CreateProject)
	projects.Put("/:id", projectHandler.UpdateProject).Name(UpdateProject)
	projects.Delete("/:id", projectHandler.DeleteProject).Name(DeleteProject)

	// ---------------------------
	// BOM endpoints
	bom := projects.Group("/:id/bom")
	bom.Get("/", bomHandler.GetBOM).Name(GetBOM)
	bom.Get("/export.csv", bomHandler.ExportCSV).Name(ExportBOMCSV)
	bom.Get("/export.xlsx", bomHandler.ExportXLSX).Name(ExportBOMXLSX)
	bom.Get("/feed", feedHandler.StreamBOM).Name(StreamBOM)
	bom.Get("/stats", bomHandler.GetStats).Name(GetBOMStats)
	bom.Post("/categories/:name/toggle", bomHandler.ToggleCategory).Name(ToggleCategory)
	bom.Post("/parts", bomHandler.AddPart).Name(AddPart)
	bom.Put("/categories/:name", bomHandler.RenameCategory).Name(RenameCategory)
	bom.Patch("/parts/:itemID", bomHandler.UpdatePart).Name(UpdatePart)
	bom.Delete("/parts/:itemID", bomHandler.DeletePart).Name(DeletePart)

	// ---------------------------
	// Time tracking endpoints
	project := projects.Group("/:id")
	project.Get("/engineers", timesheetHandler.ListEngineers).Name(GetEngineers)
	project.Get("/weeks", timesheetHandler.ListWeeks).Name(GetWeeks)
	project.Post("/engineers", timesheetHandler.AddEngineer).Name(AddEngineer)
	project.Post("/engineers/:engineerID/entries", timesheetHandler.AddTimeEntry).Name(AddTimeEntry)
	project.Post("/weeks", timesheetHandler.AddWeek).Name(AddWeek)
	project.Patch("/engineers/:engineerID", timesheetHandler.UpdateEngineer).Name(UpdateEngineer)

	// ---------------------------
	// Cost endpoints
	project.Get("/cost", costHandler.GetCost).Name(GetCost)
	project.Put("/cost/settings", costHandler.UpdateSettings).Name(UpdateCostSettings)
}

// initRouteCache initializes the route cache by creating a mock app and extracting routes
func initRouteCache() {
	routeCacheInit.Do(func() {
		cache := make(map[string]string)

		// Create a mock app
		app := fiber.New()

		// Register routes with empty handlers, only the paths are needed
		RegisterRoutes(app,
			&handlers.ProjectHandler{},
			&handlers.BOMHandler{},
			&handlers.FeedHandler{},
			&handlers.TimesheetHandler{},
			&handlers.CostHandler{},
			&handlers.MailHandler{},
		)

		// Extract routes from the app
		for _, route := range app.GetRoutes() {
			if route.Name != "" {
				cache[route.Name] = route.Path
			}
		}

		routeCacheMu.Lock()
		routeCache = cache
		routeCacheMu.Unlock()
	})
}

// GetRoute returns the route pattern for the given route name
func GetRoute(name string) string {
	initRouteCache()

	routeCacheMu.RLock()
	defer routeCacheMu.RUnlock()
	return routeCache[name]
}

// BuildURL builds a URL for the given route name and parameters.
// Parameter values are path escaped.
func BuildURL(routeName string, params map[string]string, queryParams url.Values) string {
	route := GetRoute(routeName)
	if route == "" {
		return ""
	}

	// Replace parameters in the route
	for param, value := range params {
		route = strings.ReplaceAll(route, ":"+param, url.PathEscape(value))
	}

	// Remove trailing slash if it's a base endpoint with no parameters
	if strings.HasSuffix(route, "/") && len(route) > 1 {
		route = strings.TrimSuffix(route, "/")
	}

	// Add query parameters if any
	if len(queryParams) > 0 {
		route = fmt.Sprintf("%s?%s", route, queryParams.Encode())
	}

	return route
}

// Health check route helpers

// HealthCheckURL returns the URL for the health check endpoint
func HealthCheckURL() string {
	return BuildURL(HealthCheck, nil, nil)
}

// MetricsURL returns the URL of the Prometheus metrics endpoint
func MetricsURL() string {
	return BuildURL(Metrics, nil, nil)
}

// Project route helpers

// GetProjectsURL returns the URL for listing projects
func GetProjectsURL(queryParams url.Values) string {
	return BuildURL(GetProjects, nil, queryParams)
}

// GetProjectURL returns the URL for getting a project by ID
func GetProjectURL(id string) string {
	return BuildURL(GetProject, map[string]string{"id": id}, nil)
}

// CreateProjectURL returns the URL for creating a project
func CreateProjectURL() string {
	return BuildURL(CreateProject, nil, nil)
}

// UpdateProjectURL returns the URL for updating a project
func UpdateProjectURL(id string) string {
	return BuildURL(UpdateProject, map[string]string{"id": id}, nil)
}

// DeleteProjectURL returns the URL for deleting a project
func DeleteProjectURL(id string) string {
	return BuildURL(DeleteProject, map[string]string{"id": id}, nil)
}

// BOM route helpers

// GetBOMURL returns the URL for the filtered BOM of a project
func GetBOMURL(id string, queryParams url.Values) string {
	return BuildURL(GetBOM, map[string]string{"id": id}, queryParams)
}

// GetBOMStatsURL returns the URL for the BOM stats of a project
func GetBOMStatsURL(id string) string {
	return BuildURL(GetBOMStats, map[string]string{"id": id}, nil)
}

// ExportBOMCSVURL returns the URL of the CSV export
func ExportBOMCSVURL(id string) string {
	return BuildURL(ExportBOMCSV, map[string]string{"id": id}, nil)
}

// ExportBOMXLSXURL returns the URL of the spreadsheet export
func ExportBOMXLSXURL(id string) string {
	return BuildURL(ExportBOMXLSX, map[string]string{"id": id}, nil)
}

// StreamBOMURL returns the URL of the BOM event stream
func StreamBOMURL(id string) string {
	return BuildURL(StreamBOM, map[string]string{"id": id}, nil)
}

// AddPartURL returns the URL for adding a part
func AddPartURL(id string) string {
	return BuildURL(AddPart, map[string]string{"id": id}, nil)
}

// UpdatePartURL returns the URL for updating a part
func UpdatePartURL(id, itemID string) string {
	return BuildURL(UpdatePart, map[string]string{"id": id, "itemID": itemID}, nil)
}

// DeletePartURL returns the URL for deleting a part
func DeletePartURL(id, itemID string) string {
	return BuildURL(DeletePart, map[string]string{"id": id, "itemID": itemID}, nil)
}

// RenameCategoryURL returns the URL for renaming a category
func RenameCategoryURL(id, name string) string {
	return BuildURL(RenameCategory, map[string]string{"id": id, "name": name}, nil)
}

// ToggleCategoryURL returns the URL for toggling a category
func ToggleCategoryURL(id, name string) string {
	return BuildURL(ToggleCategory, map[string]string{"id": id, "name": name}, nil)
}

// Time tracking route helpers

// GetEngineersURL returns the URL for listing engineers
func GetEngineersURL(id string) string {
	return BuildURL(GetEngineers, map[string]string{"id": id}, nil)
}

// AddEngineerURL returns the URL for adding an engineer
func AddEngineerURL(id string) string {
	return BuildURL(AddEngineer, map[string]string{"id": id}, nil)
}

// UpdateEngineerURL returns the URL for updating an engineer
func UpdateEngineerURL(id, engineerID string) string {
	return BuildURL(UpdateEngineer, map[string]string{"id": id, "engineerID": engineerID}, nil)
}

// AddTimeEntryURL returns the URL for logging hours
func AddTimeEntryURL(id, engineerID string) string {
	return BuildURL(AddTimeEntry, map[string]string{"id": id, "engineerID": engineerID}, nil)
}

// GetWeeksURL returns the URL for listing weeks
func GetWeeksURL(id string) string {
	return BuildURL(GetWeeks, map[string]string{"id": id}, nil)
}

// AddWeekURL returns the URL for adding a week
func AddWeekURL(id string) string {
	return BuildURL(AddWeek, map[string]string{"id": id}, nil)
}

// Cost route helpers

// GetCostURL returns the URL for the cost breakdown
func GetCostURL(id string) string {
	return BuildURL(GetCost, map[string]string{"id": id}, nil)
}

// UpdateCostSettingsURL returns the URL for saving cost settings
func UpdateCostSettingsURL(id string) string {
	return BuildURL(UpdateCostSettings, map[string]string{"id": id}, nil)
}

// Mail route helpers

// SendPurchaseOrderURL returns the URL of the purchase-order relay
func SendPurchaseOrderURL() string {
	return BuildURL(SendPurchaseOrder, nil, nil)
}
