// Package handlers provides HTTP request handling
package handlers

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/partsdesk/partsdesk/internal/docstore"
	"github.com/partsdesk/partsdesk/internal/logger"
	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/internal/types"
)

// Common error messages
const (
	ErrMsgInvalidReqBody  = "Invalid request body"
	ErrMsgInvalidQuery    = "Invalid query parameters"
	ErrMsgStoreClosed     = "Server is shutting down"
	ErrMsgInternal        = "Internal server error"
	ErrMsgProjIDRequired  = "Project id is required"
	ErrMsgItemIDRequired  = "Item id is required"
	ErrMsgCategoryMissing = "Category name is required"
)

// Project error messages
const (
	ErrMsgProjCreateFailed = "Failed to create project"
	ErrMsgProjListFailed   = "Failed to list projects"
	ErrMsgProjUpdateFailed = "Failed to update project"
	ErrMsgProjDeleteFailed = "Failed to delete project"
	ErrMsgProjGetFailed    = "Failed to get project"
)

// BOM error messages
const (
	ErrMsgBOMGetFailed    = "Failed to get BOM"
	ErrMsgBOMWriteFailed  = "Failed to update BOM"
	ErrMsgBOMExportFailed = "Failed to export BOM"
	ErrMsgBOMFeedFailed   = "Failed to subscribe to BOM"
)

// Time tracking error messages
const (
	ErrMsgEngineerIDRequired = "Engineer id is required"
	ErrMsgEngineerFailed     = "Failed to update engineers"
	ErrMsgWeekFailed         = "Failed to update weeks"
	ErrMsgTimeEntryFailed    = "Failed to log time entry"
)

// Cost error messages
const (
	ErrMsgCostFailed = "Failed to compute cost"
)

// badRequestErrs are service errors caused by the request content
var badRequestErrs = []error{
	services.ErrInvalidProject,
	services.ErrProjectIDRequired,
	services.ErrInvalidProjectID,
	services.ErrNoCategory,
	services.ErrCategoryNameRequired,
	services.ErrPartNameRequired,
	services.ErrPartIDRequired,
	services.ErrInvalidQuantity,
	services.ErrInvalidUpdate,
	services.ErrInvalidEngineer,
	services.ErrInvalidHours,
	services.ErrWeekKeyRequired,
	services.ErrInvalidCostSettings,
}

var notFoundErrs = []error{
	services.ErrProjectNotFound,
	services.ErrEngineerNotFound,
	services.ErrWeekNotFound,
	services.ErrCategoryNotFound,
	docstore.ErrNotFound,
}

var conflictErrs = []error{
	services.ErrProjectExists,
	services.ErrDuplicatePartID,
	services.ErrWeekExists,
	services.ErrAlreadySubscribed,
	docstore.ErrVersionConflict,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondWithError writes the slug response matching err. msg is logged
// together with the error for server side failures.
func respondWithError(c *fiber.Ctx, err error, msg string) error {
	switch {
	case isAny(err, badRequestErrs):
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(err.Error()))
	case isAny(err, notFoundErrs):
		return c.Status(fiber.StatusNotFound).JSON(types.ErrNotFound(err.Error()))
	case isAny(err, conflictErrs):
		return c.Status(fiber.StatusConflict).JSON(types.ErrConflict(err.Error()))
	case errors.Is(err, docstore.ErrClosed):
		return c.Status(fiber.StatusServiceUnavailable).JSON(types.ErrServer(ErrMsgStoreClosed))
	}

	logger.ErrorWithFields(msg, map[string]interface{}{
		"path":  c.Path(),
		"error": err.Error(),
	})
	return c.Status(fiber.StatusInternalServerError).JSON(types.ErrServer(msg + ": " + err.Error()))
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(msg))
}
