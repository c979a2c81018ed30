package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"ifc-service/internal/metrics"
	"ifc-service/internal/services"
)

// AttachmentHandler serves raw uploads and converted artifacts.
type AttachmentHandler struct {
	attachments *services.AttachmentService
	log         zerolog.Logger
}

func NewAttachmentHandler(attachments *services.AttachmentService, log zerolog.Logger) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments, log: log}
}

// Upload stores a file as an attachment. External converters use it to
// hand in artifacts before reporting a conversion.
// @Summary Upload an attachment
// @Tags attachments
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File"
// @Success 201 {object} models.Attachment
// @Failure 400 {object} map[string]interface{} "Missing file"
// @Router /attachments [post]
func (h *AttachmentHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "failed to read file: "+err.Error())
	}
	upload, file, err := openUpload(fh)
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer file.Close()

	attachment, err := h.attachments.Store(c.UserContext(), *upload)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(attachment)
}

// Download streams an attachment through the artifact cache
// @Summary Download an attachment
// @Description Responses carry X-Latency-* and X-Cache-* headers describing the lookup.
// @Tags attachments
// @Produce octet-stream
// @Param id path string true "Attachment ID" Format(uuid)
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 404 {object} map[string]interface{} "Attachment not found"
// @Router /attachments/{id}/download [get]
func (h *AttachmentHandler) Download(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	dm := metrics.NewDownloadMetrics(id.String())
	rc, attachment, err := h.attachments.Download(c.UserContext(), id, dm)
	if err != nil {
		return respondError(c, h.log, err)
	}
	dm.Finalize()

	for name, value := range dm.Headers() {
		c.Set(name, value)
	}
	contentType := attachment.ContentType
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", attachment.Filename))

	h.log.Debug().
		Str("attachment_id", id.String()).
		Bool("cache_hit", dm.CacheHit).
		Str("cache_layer", dm.CacheLayerUsed).
		Msg("attachment download")

	// fasthttp closes rc once the body is written.
	return c.SendStream(rc, int(attachment.Size))
}
