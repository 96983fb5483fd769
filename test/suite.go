package test

import (
	"context"
	"testing"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/partsdesk/partsdesk/config"
	"github.com/partsdesk/partsdesk/internal/docstore"
	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/pkg/api/v1/client"
	"github.com/partsdesk/partsdesk/test/mocks"
)

// DefaultTestTimeout is the default timeout for test suites.
const DefaultTestTimeout = 30 * time.Second

// TestMailConfig is the relay configuration used by the suite
var TestMailConfig = config.MailConfig{
	Host:            "smtp.example.com",
	Port:            587,
	Sender:          "purchasing@example.com",
	Password:        "secret",
	DefaultReceiver: "vendor@example.com",
	Body:            "hello world",
}

// Suite encapsulates all components needed for integration testing.
// It provides a complete test setup with:
//   - In-memory database and document store
//   - Real API server
//   - Real API client
//   - Recorded outgoing mail
type Suite struct {
	t *testing.T // The testing.T instance for this suite

	// Server components
	App     *fiber.App
	BaseURL string

	// Client components
	APIClient client.Client

	// Storage components
	DB    *gorm.DB
	Store *docstore.Store

	// Services
	ProjectService   *services.Project
	BOMService       *services.BOM
	TimesheetService *services.Timesheet
	CostService      *services.Cost

	// Mock mail delivery
	Mail *mocks.MailRecorder

	// Context management
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Cleanup function
	cleanup func()
}

// SetS sets the suite instance for this suite
func (s *Suite) SetS(_ suite.TestingSuite) {
	// This method is required by suite.TestingSuite but we don't need to do anything here
}

// SetT sets the testing.T instance for this suite
func (s *Suite) SetT(t *testing.T) {
	s.t = t
}

// T returns the testing.T instance for this suite
func (s *Suite) T() *testing.T {
	return s.t
}

// NewSuite creates a new test suite with a database, server and client.
// The suite must be cleaned up after use by calling Cleanup.
func NewSuite(t *testing.T) *Suite {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)

	suite := &Suite{
		t:          t,
		ctx:        ctx,
		cancelFunc: cancel,
		Mail:       mocks.NewMailRecorder(),
	}

	// Cleanup steps are stacked by the setup functions, this one runs last
	suite.cleanup = func() {
		if suite.cancelFunc != nil {
			suite.cancelFunc()
		}
	}

	SetupTestDB(suite)
	SetupServer(suite)

	return suite
}

// newStore starts a store on db and stacks its shutdown onto the cleanup
func newStore(suite *Suite, db *gorm.DB) *docstore.Store {
	store := docstore.New(db)
	store.Start(suite.ctx)

	suite.addCleanup(func() {
		store.Close()
		sqlDB, err := db.DB()
		if err == nil && sqlDB != nil {
			_ = sqlDB.Close()
		}
	})
	return store
}

// addCleanup runs fn before the cleanup registered so far
func (s *Suite) addCleanup(fn func()) {
	previous := s.cleanup
	s.cleanup = func() {
		fn()
		if previous != nil {
			previous()
		}
	}
}

// Cleanup tears down the test suite, releasing all resources.
// This should be deferred immediately after creating the suite.
func (s *Suite) Cleanup() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// Context returns the suite's context, which is automatically
// canceled when the suite is cleaned up.
func (s *Suite) Context() context.Context {
	return s.ctx
}

// Require returns a require.Assertions instance for this suite.
// This is a convenience method to avoid passing t around.
func (s *Suite) Require() *require.Assertions {
	return require.New(s.t)
}

// Retry retries a function until it succeeds or the number of retries is reached.
func (s *Suite) Retry(fn func() error, retries int, interval time.Duration) (err error) {
	for i := 0; i < retries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		time.Sleep(interval)
	}
	return
}
