package test

import (
	"context"
	"net"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/partsdesk/partsdesk/internal/logger"
	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/pkg/api/v1/client"
	"github.com/partsdesk/partsdesk/pkg/api/v1/handlers"
	"github.com/partsdesk/partsdesk/pkg/api/v1/routes"
)

// testClientTimeout is the timeout for test API client requests
const testClientTimeout = 5 * time.Second

// testFeedKeepAlive keeps idle feeds chatty enough to notice closed clients quickly
const testFeedKeepAlive = 200 * time.Millisecond

// SetupServer configures the test suite with a real API server listening on
// a random local port. A real listener is used instead of an in-process
// adaptor because the BOM feed streams its body.
func SetupServer(suite *Suite) {
	// Create Fiber app with default config
	suite.App = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	suite.App.Use(cors.New())
	suite.App.Use(logger.APILogger())

	// Create services
	suite.ProjectService = services.NewProjectService(suite.Store)
	suite.BOMService = services.NewBOMService(suite.Store, false)
	suite.TimesheetService = services.NewTimesheetService(suite.Store, suite.ProjectService)
	suite.CostService = services.NewCostService(suite.Store, suite.ProjectService, suite.BOMService, suite.TimesheetService)
	mailer := services.NewMailerWithSender(TestMailConfig, suite.Mail.Send)

	feedCtx, stopFeeds := context.WithCancel(suite.ctx)

	// Register routes
	routes.RegisterRoutes(suite.App,
		handlers.NewProjectHandler(suite.ProjectService),
		handlers.NewBOMHandler(suite.BOMService),
		handlers.NewFeedHandler(feedCtx, suite.Store).WithKeepAlive(testFeedKeepAlive),
		handlers.NewTimesheetHandler(suite.TimesheetService),
		handlers.NewCostHandler(suite.CostService),
		handlers.NewMailHandler(mailer),
	)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	suite.Require().NoError(err, "Failed to listen")
	go func() {
		_ = suite.App.Listener(ln)
	}()
	suite.BaseURL = "http://" + ln.Addr().String()

	// Create API client with test configuration
	apiClient, err := client.NewClient(&client.Options{
		BaseURL: suite.BaseURL,
		Timeout: testClientTimeout,
	})
	suite.Require().NoError(err, "Failed to create API client")
	suite.APIClient = apiClient

	suite.addCleanup(func() {
		stopFeeds()
		_ = suite.App.ShutdownWithTimeout(testClientTimeout)
	})
}
