package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"ifc-service/internal/services"
)

// CacheHandler exposes the artifact cache.
type CacheHandler struct {
	attachments *services.AttachmentService
	log         zerolog.Logger
}

func NewCacheHandler(attachments *services.AttachmentService, log zerolog.Logger) *CacheHandler {
	return &CacheHandler{attachments: attachments, log: log}
}

// GetCacheStats handles GET /cache/stats
// @Summary Get cache statistics
// @Tags cache
// @Produce json
// @Success 200 {object} map[string]interface{} "Per layer statistics"
// @Router /cache/stats [get]
func (h *CacheHandler) GetCacheStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"layers": h.attachments.Stats(c.UserContext())})
}

// ClearCache handles DELETE /cache
// @Summary Clear the artifact cache
// @Tags cache
// @Produce json
// @Success 200 {object} map[string]interface{} "Cache cleared"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /cache [delete]
func (h *CacheHandler) ClearCache(c *fiber.Ctx) error {
	if err := h.attachments.ClearCache(c.UserContext()); err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Msg("artifact cache cleared")
	return c.JSON(fiber.Map{"success": true, "message": "cache cleared"})
}
