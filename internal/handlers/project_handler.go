package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"ifc-service/internal/models"
	"ifc-service/internal/services"
)

type ProjectHandler struct {
	projects *services.ProjectService
	log      zerolog.Logger
}

func NewProjectHandler(projects *services.ProjectService, log zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, log: log}
}

type createProjectRequest struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

// ListProjects returns all projects
// @Summary List projects
// @Tags projects
// @Produce json
// @Success 200 {array} models.Project
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.projects.ListProjects(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(projects)
}

// CreateProject creates a new project
// @Summary Create a project
// @Description Create a project with a unique identifier and a display name
// @Tags projects
// @Accept json
// @Produce json
// @Param project body createProjectRequest true "Project data"
// @Success 201 {object} models.Project "Project successfully created"
// @Failure 400 {object} map[string]interface{} "Invalid request format"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var req createProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request format")
	}

	project := &models.Project{Identifier: req.Identifier, Name: req.Name}
	if err := h.projects.CreateProject(c.UserContext(), project); err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Str("project_id", project.ID.String()).Str("identifier", project.Identifier).Msg("project created")
	return c.Status(fiber.StatusCreated).JSON(project)
}

// GetProject returns a project by ID
// @Summary Get a project
// @Tags projects
// @Produce json
// @Param projectId path string true "Project ID" Format(uuid)
// @Success 200 {object} models.Project
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Router /projects/{projectId} [get]
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	project, err := loadProject(c, h.projects)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(project)
}

func loadProject(c *fiber.Ctx, projects *services.ProjectService) (*models.Project, error) {
	id, err := paramUUID(c, "projectId")
	if err != nil {
		return nil, err
	}
	return projects.GetProject(c.UserContext(), id)
}
