package handlers

import (
	"bytes"
	"fmt"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/partsdesk/partsdesk/internal/bom"
	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/internal/types"
)

// Export content types
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportFileName is the attachment name of BOM exports, without extension
const ExportFileName = "bom_export"

// BOMHandler handles HTTP requests for the BOM of a project
type BOMHandler struct {
	bomService *services.BOM
}

// NewBOMHandler creates a new instance of BOMHandler
func NewBOMHandler(bomService *services.BOM) *BOMHandler {
	return &BOMHandler{
		bomService: bomService,
	}
}

// GetBOM returns the categories matching the query together with the stats of the whole BOM
func (h *BOMHandler) GetBOM(c *fiber.Ctx) error {
	var params BOMQueryParams
	if err := c.QueryParser(&params); err != nil {
		return badRequest(c, ErrMsgInvalidQuery)
	}
	for _, name := range c.Context().QueryArgs().PeekMulti(CategoryParam) {
		params.Categories = append(params.Categories, string(name))
	}
	q, err := params.Query()
	if err != nil {
		return badRequest(c, err.Error())
	}

	view, err := h.bomService.View(c.UserContext(), pathParam(c, "id"), q)
	if err != nil {
		return respondWithError(c, err, ErrMsgBOMGetFailed)
	}
	return c.JSON(types.Success(view))
}

// GetStats returns the part counts by status
func (h *BOMHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.bomService.Stats(c.UserContext(), pathParam(c, "id"))
	if err != nil {
		return respondWithError(c, err, ErrMsgBOMGetFailed)
	}
	return c.JSON(types.Success(stats))
}

// ExportCSV streams the BOM as a CSV attachment
func (h *BOMHandler) ExportCSV(c *fiber.Ctx) error {
	return h.export(c, services.ExportCSV, ContentTypeCSV)
}

// ExportXLSX streams the BOM as a spreadsheet attachment
func (h *BOMHandler) ExportXLSX(c *fiber.Ctx) error {
	return h.export(c, services.ExportXLSX, ContentTypeXLSX)
}

func (h *BOMHandler) export(c *fiber.Ctx, format services.ExportFormat, contentType string) error {
	var buf bytes.Buffer
	if err := h.bomService.Export(c.UserContext(), pathParam(c, "id"), format, &buf); err != nil {
		return respondWithError(c, err, ErrMsgBOMExportFailed)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Attachment(fmt.Sprintf("%s.%s", ExportFileName, format))
	return c.Send(buf.Bytes())
}

// AddPart adds a part to an existing or a new category
func (h *BOMHandler) AddPart(c *fiber.Ctx) error {
	// Quantity defaults to one like a fresh draft, the description starts empty
	draft := services.PartDraft{Quantity: 1}
	if err := c.BodyParser(&draft); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}

	item, err := h.bomService.AddPart(c.UserContext(), pathParam(c, "id"), &draft)
	if err != nil {
		return respondWithError(c, err, ErrMsgBOMWriteFailed)
	}
	return c.Status(fiber.StatusCreated).JSON(types.Success(item))
}

// UpdatePart changes the fields present in the body on one part
func (h *BOMHandler) UpdatePart(c *fiber.Ctx) error {
	var update bom.ItemUpdate
	if err := c.BodyParser(&update); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}
	if update.IsEmpty() {
		return badRequest(c, services.ErrInvalidUpdate.Error()+": no fields to update")
	}

	tree, err := h.bomService.UpdatePart(c.UserContext(), pathParam(c, "id"), pathParam(c, "itemID"), update)
	if err != nil {
		return respondWithError(c, err, ErrMsgBOMWriteFailed)
	}
	return c.JSON(types.Success(bom.Document{Categories: tree}))
}

// DeletePart removes one part
func (h *BOMHandler) DeletePart(c *fiber.Ctx) error {
	tree, err := h.bomService.DeletePart(c.UserContext(), pathParam(c, "id"), pathParam(c, "itemID"), nil)
	if err != nil {
		return respondWithError(c, err, ErrMsgBOMWriteFailed)
	}
	return c.JSON(types.Success(bom.Document{Categories: tree}))
}

// RenameCategory renames a category and moves its items along
func (h *BOMHandler) RenameCategory(c *fiber.Ctx) error {
	var req types.RenameCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}

	tree, err := h.bomService.RenameCategory(c.UserContext(), pathParam(c, "id"), pathParam(c, "name"), req.Name)
	if err != nil {
		return respondWithError(c, err, ErrMsgBOMWriteFailed)
	}
	return c.JSON(types.Success(bom.Document{Categories: tree}))
}

// ToggleCategory flips the expanded flag of a category
func (h *BOMHandler) ToggleCategory(c *fiber.Ctx) error {
	tree, err := h.bomService.ToggleCategory(c.UserContext(), pathParam(c, "id"), pathParam(c, "name"))
	if err != nil {
		return respondWithError(c, err, ErrMsgBOMWriteFailed)
	}
	return c.JSON(types.Success(bom.Document{Categories: tree}))
}
