package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/partsdesk/partsdesk/internal/db/models"
	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/internal/types"
)

// CostHandler handles HTTP requests for project cost analysis
type CostHandler struct {
	costService *services.Cost
}

// NewCostHandler creates a new instance of CostHandler
func NewCostHandler(costService *services.Cost) *CostHandler {
	return &CostHandler{
		costService: costService,
	}
}

// GetCost returns the cost breakdown of a project
func (h *CostHandler) GetCost(c *fiber.Ctx) error {
	summary, err := h.costService.Summary(c.UserContext(), pathParam(c, "id"))
	if err != nil {
		return respondWithError(c, err, ErrMsgCostFailed)
	}
	return c.JSON(types.Success(summary))
}

// UpdateSettings replaces the cost settings of a project. Missing fields keep their defaults.
func (h *CostHandler) UpdateSettings(c *fiber.Ctx) error {
	settings := models.DefaultCostSettings()
	if err := c.BodyParser(&settings); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}

	if err := h.costService.UpdateSettings(c.UserContext(), pathParam(c, "id"), settings); err != nil {
		return respondWithError(c, err, ErrMsgCostFailed)
	}
	return c.JSON(types.Success(settings))
}
