package handlers

import (
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/internal/types"
)

// TimesheetHandler handles HTTP requests for engineers, weeks and time entries
type TimesheetHandler struct {
	timesheetService *services.Timesheet
}

// NewTimesheetHandler creates a new instance of TimesheetHandler
func NewTimesheetHandler(timesheetService *services.Timesheet) *TimesheetHandler {
	return &TimesheetHandler{
		timesheetService: timesheetService,
	}
}

// ListEngineers lists the engineers of a project
func (h *TimesheetHandler) ListEngineers(c *fiber.Ctx) error {
	engineers, err := h.timesheetService.ListEngineers(c.UserContext(), pathParam(c, "id"))
	if err != nil {
		return respondWithError(c, err, ErrMsgEngineerFailed)
	}
	return c.JSON(types.Success(engineers))
}

// AddEngineer adds an engineer to a project
func (h *TimesheetHandler) AddEngineer(c *fiber.Ctx) error {
	var req types.EngineerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}

	engineer, err := h.timesheetService.AddEngineer(c.UserContext(), pathParam(c, "id"), req.Engineer())
	if err != nil {
		return respondWithError(c, err, ErrMsgEngineerFailed)
	}
	return c.Status(fiber.StatusCreated).JSON(types.Success(engineer))
}

// UpdateEngineer changes the profile fields present in the body
func (h *TimesheetHandler) UpdateEngineer(c *fiber.Ctx) error {
	var req types.EngineerUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}

	engineer, err := h.timesheetService.UpdateEngineer(c.UserContext(), pathParam(c, "id"), pathParam(c, "engineerID"), services.EngineerUpdate{
		Name:       req.Name,
		Role:       req.Role,
		Department: req.Department,
	})
	if err != nil {
		return respondWithError(c, err, ErrMsgEngineerFailed)
	}
	return c.JSON(types.Success(engineer))
}

// AddTimeEntry books hours of an engineer against a week
func (h *TimesheetHandler) AddTimeEntry(c *fiber.Ctx) error {
	var req types.TimeEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}

	week, err := h.timesheetService.AddTimeEntry(c.UserContext(), pathParam(c, "id"), pathParam(c, "engineerID"), req.WeekKey, req.Hours, req.Description)
	if err != nil {
		return respondWithError(c, err, ErrMsgTimeEntryFailed)
	}
	return c.Status(fiber.StatusCreated).JSON(types.Success(week))
}

// ListWeeks lists the weeks of a project by start date
func (h *TimesheetHandler) ListWeeks(c *fiber.Ctx) error {
	weeks, err := h.timesheetService.ListWeeks(c.UserContext(), pathParam(c, "id"))
	if err != nil {
		return respondWithError(c, err, ErrMsgWeekFailed)
	}
	return c.JSON(types.Success(weeks))
}

// AddWeek adds the week holding the requested date, or the current week
func (h *TimesheetHandler) AddWeek(c *fiber.Ctx) error {
	var req types.AddWeekRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
		}
	}
	day, err := req.Day(time.Now())
	if err != nil {
		return badRequest(c, err.Error())
	}

	week, err := h.timesheetService.AddWeek(c.UserContext(), pathParam(c, "id"), day)
	if err != nil {
		return respondWithError(c, err, ErrMsgWeekFailed)
	}
	return c.Status(fiber.StatusCreated).JSON(types.Success(week))
}
