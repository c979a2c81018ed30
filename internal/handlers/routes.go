package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	_ "ifc-service/docs"
)

type Handlers struct {
	Projects    *ProjectHandler
	Models      *IFCModelHandler
	Attachments *AttachmentHandler
	Cache       *CacheHandler
}

// Register mounts every API route on r.
func (h *Handlers) Register(r fiber.Router) {
	r.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	r.Get("/projects", h.Projects.ListProjects)
	r.Post("/projects", h.Projects.CreateProject)
	r.Get("/projects/:projectId", h.Projects.GetProject)

	models := r.Group("/projects/:projectId/ifc_models")
	models.Get("/", h.Models.Index)
	models.Post("/", h.Models.Create)
	models.Get("/defaults", h.Models.ShowDefaults)
	models.Get("/:id", h.Models.Show)
	models.Put("/:id", h.Models.Update)
	models.Patch("/:id", h.Models.Update)
	models.Delete("/:id", h.Models.Delete)
	models.Post("/:id/reconvert", h.Models.Reconvert)
	models.Post("/:id/conversion", h.Models.ConversionCallback)

	r.Post("/attachments", h.Attachments.Upload)
	r.Get("/attachments/:id/download", h.Attachments.Download)

	r.Get("/cache/stats", h.Cache.GetCacheStats)
	r.Delete("/cache", h.Cache.ClearCache)

	// SwaggerInfo.Host stays empty so the UI calls the host it was loaded from.
	r.Get("/swagger/*", swagger.HandlerDefault)
}
