package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/partsdesk/partsdesk/internal/logger"
	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/internal/types"
)

// MailHandler relays purchase-order mails
type MailHandler struct {
	mailer *services.Mailer
}

// NewMailHandler creates a new instance of MailHandler
func NewMailHandler(mailer *services.Mailer) *MailHandler {
	return &MailHandler{
		mailer: mailer,
	}
}

// SendPurchaseOrder mails a purchase order to the requested or the default recipient
func (h *MailHandler) SendPurchaseOrder(c *fiber.Ctx) error {
	var req types.PurchaseOrderRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.PurchaseOrderResponse{
				Error: ErrMsgInvalidReqBody + ": " + err.Error(),
			})
		}
	}

	messageID, err := h.mailer.SendPurchaseOrder(c.UserContext(), req.To)
	if err != nil {
		logger.ErrorWithFields("Failed to send purchase order", map[string]interface{}{
			"error": err.Error(),
		})
		return c.Status(fiber.StatusInternalServerError).JSON(types.PurchaseOrderResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(types.PurchaseOrderResponse{
		Success:   true,
		MessageID: messageID,
	})
}
