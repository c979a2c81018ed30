package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"ifc-service/internal/cache"
	"ifc-service/internal/metrics"
	"ifc-service/internal/models"
	"ifc-service/internal/repository"
	"ifc-service/internal/services"
	"ifc-service/internal/storage"
)

type recordingTrigger struct {
	mu       sync.Mutex
	requests []models.ConversionRequest
}

func (r *recordingTrigger) Submit(_ context.Context, req models.ConversionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return nil
}

type apiEnv struct {
	app      *fiber.App
	trigger  *recordingTrigger
	projects *services.ProjectService
	project  *models.Project
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	log := zerolog.Nop()
	m := metrics.NewLifecycle(prometheus.NewRegistry())

	modelRepo := repository.NewMemoryIFCModelRepository()
	artifacts := cache.NewTiered(log, m, cache.NewMemoryCache(1<<20, time.Hour))
	attachments := services.NewAttachmentService(
		repository.NewMemoryAttachmentRepository(), storage.NewMemoryStorage(), artifacts, log)
	projects := services.NewProjectService(repository.NewMemoryProjectRepository())
	trigger := &recordingTrigger{}
	lifecycle := services.NewIFCModelService(modelRepo, attachments, trigger, m, log)

	h := &Handlers{
		Projects: NewProjectHandler(projects, log),
		Models: NewIFCModelHandler(projects, lifecycle, attachments,
			services.NewDefaultSetManager(modelRepo), services.NewProvisioner(modelRepo, m), log),
		Attachments: NewAttachmentHandler(attachments, log),
		Cache:       NewCacheHandler(attachments, log),
	}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	h.Register(app.Group("/api"))

	project := &models.Project{Identifier: "tower-a", Name: "Tower A"}
	require.NoError(t, projects.CreateProject(context.Background(), project))

	return &apiEnv{app: app, trigger: trigger, projects: projects, project: project}
}

func (env *apiEnv) modelsPath() string {
	return "/api/projects/" + env.project.ID.String() + "/ifc_models"
}

func (env *apiEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (env *apiEnv) doJSON(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return env.do(t, req)
}

type formFile struct {
	field    string
	filename string
	content  string
}

func (env *apiEnv) doForm(t *testing.T, method, path string, values map[string]string, files ...formFile) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range values {
		require.NoError(t, w.WriteField(name, value))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return env.do(t, req)
}

// createModel uploads a model and returns it.
func (env *apiEnv) createModel(t *testing.T, title string, isDefault bool) models.IFCModel {
	t.Helper()
	values := map[string]string{"title": title}
	if isDefault {
		values["is_default"] = "1"
	}
	resp := env.doForm(t, http.MethodPost, env.modelsPath(), values,
		formFile{"ifc_attachment", title + ".ifc", "ISO-10303-21;"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[models.IFCModel](t, resp)
}

// convert uploads artifacts and reports them for the given generation.
func (env *apiEnv) convert(t *testing.T, model models.IFCModel, generation int64) *http.Response {
	t.Helper()
	geometry := env.upload(t, "model.xkt", "xkt-bytes")
	metadata := env.upload(t, "model.json", `{"id":"root"}`)
	return env.doJSON(t, http.MethodPost, env.modelsPath()+"/"+model.ID.String()+"/conversion", fiber.Map{
		"generation":             generation,
		"geometry_attachment_id": geometry.ID,
		"metadata_attachment_id": metadata.ID,
	})
}

func (env *apiEnv) upload(t *testing.T, filename, content string) models.Attachment {
	t.Helper()
	resp := env.doForm(t, http.MethodPost, "/api/attachments", nil, formFile{"file", filename, content})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[models.Attachment](t, resp)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
