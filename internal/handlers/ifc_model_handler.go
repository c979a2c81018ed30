package handlers

import (
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ifc-service/internal/models"
	"ifc-service/internal/services"
)

// IFCModelHandler serves the IFC models of a project and their viewer payloads.
type IFCModelHandler struct {
	projects    *services.ProjectService
	models      *services.IFCModelService
	attachments *services.AttachmentService
	defaults    *services.DefaultSetManager
	provisioner *services.Provisioner
	log         zerolog.Logger
}

func NewIFCModelHandler(
	projects *services.ProjectService,
	ifcModels *services.IFCModelService,
	attachments *services.AttachmentService,
	defaults *services.DefaultSetManager,
	provisioner *services.Provisioner,
	log zerolog.Logger,
) *IFCModelHandler {
	return &IFCModelHandler{
		projects:    projects,
		models:      ifcModels,
		attachments: attachments,
		defaults:    defaults,
		provisioner: provisioner,
		log:         log,
	}
}

type conversionCallback struct {
	Generation           int64     `json:"generation"`
	GeometryAttachmentID uuid.UUID `json:"geometry_attachment_id"`
	MetadataAttachmentID uuid.UUID `json:"metadata_attachment_id"`
}

// Index lists the models of a project
// @Summary List IFC models
// @Tags ifc_models
// @Produce json
// @Param projectId path string true "Project ID" Format(uuid)
// @Success 200 {array} models.IFCModel
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Router /projects/{projectId}/ifc_models [get]
func (h *IFCModelHandler) Index(c *fiber.Ctx) error {
	project, err := loadProject(c, h.projects)
	if err != nil {
		return respondError(c, h.log, err)
	}
	list, err := h.models.List(c.UserContext(), project)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if list == nil {
		list = []models.IFCModel{}
	}
	return c.JSON(list)
}

// Create uploads a new IFC model
// @Summary Upload an IFC model
// @Description Store the raw upload and queue its conversion to viewer artifacts
// @Tags ifc_models
// @Accept multipart/form-data
// @Produce json
// @Param projectId path string true "Project ID" Format(uuid)
// @Param title formData string true "Title"
// @Param ifc_attachment formData file true "IFC file or archive containing one"
// @Param is_default formData boolean false "Open by default"
// @Success 201 {object} models.IFCModel
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /projects/{projectId}/ifc_models [post]
func (h *IFCModelHandler) Create(c *fiber.Ctx) error {
	project, err := loadProject(c, h.projects)
	if err != nil {
		return respondError(c, h.log, err)
	}
	fields, cleanup, err := modelFields(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer cleanup()

	model, err := h.models.Create(c.UserContext(), project, fields)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(model)
}

// ShowDefaults opens the default set of a project
// @Summary Provision the default models
// @Description Viewer payload with the default set preloaded. Redirects to the model list when the project has no models.
// @Tags ifc_models
// @Produce json
// @Param projectId path string true "Project ID" Format(uuid)
// @Success 200 {object} models.ProvisioningPayload
// @Success 302 "Project has no models"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Router /projects/{projectId}/ifc_models/defaults [get]
func (h *IFCModelHandler) ShowDefaults(c *fiber.Ctx) error {
	project, err := loadProject(c, h.projects)
	if err != nil {
		return respondError(c, h.log, err)
	}
	empty, err := h.defaults.IsEmpty(c.UserContext(), project)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if empty {
		return c.Redirect(strings.TrimSuffix(c.Path(), "/defaults"), fiber.StatusFound)
	}
	payload, err := h.provisioner.ProvisionDefaults(c.UserContext(), project)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(payload)
}

// Show opens a single model
// @Summary Provision one model
// @Description Viewer payload listing every ready model of the project with the requested one preloaded
// @Tags ifc_models
// @Produce json
// @Param projectId path string true "Project ID" Format(uuid)
// @Param id path string true "Model ID" Format(uuid)
// @Success 200 {object} models.ProvisioningPayload
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 404 {object} map[string]interface{} "Model not found"
// @Router /projects/{projectId}/ifc_models/{id} [get]
func (h *IFCModelHandler) Show(c *fiber.Ctx) error {
	project, id, err := h.target(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	payload, err := h.provisioner.ProvisionModel(c.UserContext(), project, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(payload)
}

// Update changes a model
// @Summary Update an IFC model
// @Description Fields that are left out stay untouched. A new upload clears the artifacts and queues a conversion.
// @Tags ifc_models
// @Accept multipart/form-data
// @Produce json
// @Param projectId path string true "Project ID" Format(uuid)
// @Param id path string true "Model ID" Format(uuid)
// @Param title formData string false "Title"
// @Param ifc_attachment formData file false "IFC file or archive containing one"
// @Param is_default formData boolean false "Open by default"
// @Success 200 {object} models.IFCModel
// @Failure 404 {object} map[string]interface{} "Model not found"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /projects/{projectId}/ifc_models/{id} [put]
// @Router /projects/{projectId}/ifc_models/{id} [patch]
func (h *IFCModelHandler) Update(c *fiber.Ctx) error {
	project, id, err := h.target(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	fields, cleanup, err := modelFields(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer cleanup()

	model, err := h.models.Update(c.UserContext(), project, id, fields)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(model)
}

// Delete removes a model
// @Summary Delete an IFC model
// @Tags ifc_models
// @Param projectId path string true "Project ID" Format(uuid)
// @Param id path string true "Model ID" Format(uuid)
// @Success 204 "Deleted or already gone"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Router /projects/{projectId}/ifc_models/{id} [delete]
func (h *IFCModelHandler) Delete(c *fiber.Ctx) error {
	project, id, err := h.target(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.models.Delete(c.UserContext(), project, id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reconvert queues a fresh conversion
// @Summary Reconvert an IFC model
// @Tags ifc_models
// @Produce json
// @Param projectId path string true "Project ID" Format(uuid)
// @Param id path string true "Model ID" Format(uuid)
// @Success 202 {object} models.IFCModel
// @Failure 404 {object} map[string]interface{} "Model not found"
// @Router /projects/{projectId}/ifc_models/{id}/reconvert [post]
func (h *IFCModelHandler) Reconvert(c *fiber.Ctx) error {
	project, id, err := h.target(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	model, err := h.models.Reconvert(c.UserContext(), project, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(model)
}

// ConversionCallback records artifacts produced by an external converter
// @Summary Report a finished conversion
// @Description Both artifacts must already be stored as attachments. Results for a superseded generation are accepted and dropped.
// @Tags ifc_models
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID" Format(uuid)
// @Param id path string true "Model ID" Format(uuid)
// @Param result body conversionCallback true "Conversion result"
// @Success 200 {object} models.IFCModel
// @Failure 404 {object} map[string]interface{} "Model not found"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /projects/{projectId}/ifc_models/{id}/conversion [post]
func (h *IFCModelHandler) ConversionCallback(c *fiber.Ctx) error {
	project, id, err := h.target(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var body conversionCallback
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request format")
	}
	verr := &services.ValidationError{}
	if body.Generation < 1 {
		verr.Add("generation", "must be greater than 0")
	}
	if body.GeometryAttachmentID == uuid.Nil {
		verr.Add("geometry_attachment_id", "can't be blank")
	}
	if body.MetadataAttachmentID == uuid.Nil {
		verr.Add("metadata_attachment_id", "can't be blank")
	}
	if len(verr.Fields) > 0 {
		return respondError(c, h.log, verr)
	}

	if _, err := h.models.Get(c.UserContext(), project, id); err != nil {
		return respondError(c, h.log, err)
	}
	artifacts := map[string]uuid.UUID{
		"geometry_attachment_id": body.GeometryAttachmentID,
		"metadata_attachment_id": body.MetadataAttachmentID,
	}
	for field, attachmentID := range artifacts {
		exists, err := h.attachments.Exists(c.UserContext(), attachmentID)
		if err != nil {
			return respondError(c, h.log, err)
		}
		if !exists {
			verr.Add(field, "does not exist")
		}
	}
	if len(verr.Fields) > 0 {
		return respondError(c, h.log, verr)
	}

	err = h.models.ApplyConversion(c.UserContext(), models.ConversionResult{
		ModelID:    id,
		Generation: body.Generation,
		GeometryID: body.GeometryAttachmentID,
		MetadataID: body.MetadataAttachmentID,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	model, err := h.models.Get(c.UserContext(), project, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(model)
}

func (h *IFCModelHandler) target(c *fiber.Ctx) (*models.Project, uuid.UUID, error) {
	project, err := loadProject(c, h.projects)
	if err != nil {
		return nil, uuid.Nil, err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return nil, uuid.Nil, err
	}
	return project, id, nil
}

// modelFields reads the multipart form. Only fields present in the form are set.
// The returned cleanup closes the uploaded file.
func modelFields(c *fiber.Ctx) (services.ModelFields, func(), error) {
	var fields services.ModelFields
	cleanup := func() {}

	form, err := c.MultipartForm()
	if err != nil {
		verr := &services.ValidationError{}
		verr.Add("form", "must be multipart/form-data")
		return fields, cleanup, verr
	}

	if values := form.Value["title"]; len(values) > 0 {
		fields.Title = &values[0]
	}
	if values := form.Value["is_default"]; len(values) > 0 {
		isDefault, err := strconv.ParseBool(values[0])
		if err != nil {
			verr := &services.ValidationError{}
			verr.Add("is_default", "must be true or false")
			return fields, cleanup, verr
		}
		fields.IsDefault = &isDefault
	}
	if files := form.File["ifc_attachment"]; len(files) > 0 {
		upload, file, err := openUpload(files[0])
		if err != nil {
			return fields, cleanup, err
		}
		fields.RawUpload = upload
		cleanup = func() { _ = file.Close() }
	}
	return fields, cleanup, nil
}

func openUpload(fh *multipart.FileHeader) (*models.Upload, multipart.File, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &models.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Reader:      file,
	}, file, nil
}
