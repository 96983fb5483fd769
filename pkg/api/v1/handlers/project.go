package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/partsdesk/partsdesk/internal/db/models"
	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/internal/types"
)

// ProjectHandler handles HTTP requests for projects
type ProjectHandler struct {
	projectService *services.Project
}

// NewProjectHandler creates a new instance of ProjectHandler
func NewProjectHandler(projectService *services.Project) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// ListProjects handles listing projects matching the query filters
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	var params ProjectListParams
	if err := c.QueryParser(&params); err != nil {
		return badRequest(c, ErrMsgInvalidQuery)
	}
	if err := params.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	projects, err := h.projectService.List(c.UserContext(), params.Filter())
	if err != nil {
		return respondWithError(c, err, ErrMsgProjListFailed)
	}

	return c.JSON(types.Success(types.ProjectListResponse{
		Projects: projects,
		Total:    len(projects),
	}))
}

// GetProject handles retrieving a project by id
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	project, err := h.projectService.Get(c.UserContext(), pathParam(c, "id"))
	if err != nil {
		return respondWithError(c, err, ErrMsgProjGetFailed)
	}
	return c.JSON(types.Success(project))
}

// CreateProject handles the creation of a new project
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var project models.Project
	if err := c.BodyParser(&project); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}

	if err := h.projectService.Create(c.UserContext(), &project); err != nil {
		return respondWithError(c, err, ErrMsgProjCreateFailed)
	}

	return c.Status(fiber.StatusCreated).JSON(types.Success(project))
}

// UpdateProject replaces a project. A different projectId in the body moves
// the project and everything it owns to the new id.
func (h *ProjectHandler) UpdateProject(c *fiber.Ctx) error {
	var project models.Project
	if err := c.BodyParser(&project); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}

	currentID := pathParam(c, "id")
	if project.ProjectID == "" {
		project.ProjectID = currentID
	}

	if err := h.projectService.Update(c.UserContext(), currentID, &project); err != nil {
		return respondWithError(c, err, ErrMsgProjUpdateFailed)
	}

	return c.JSON(types.Success(project))
}

// DeleteProject handles deleting a project together with its BOM and subcollections
func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	projectID := pathParam(c, "id")
	if err := h.projectService.Delete(c.UserContext(), projectID); err != nil {
		return respondWithError(c, err, ErrMsgProjDeleteFailed)
	}
	return c.JSON(types.Success(nil))
}
