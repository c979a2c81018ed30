package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"ifc-service/internal/metrics"
	"ifc-service/internal/models"
	"ifc-service/internal/repository"
	"ifc-service/internal/storage"
)

// recordingTrigger collects submitted conversion requests.
type recordingTrigger struct {
	mu       sync.Mutex
	requests []models.ConversionRequest
	err      error
}

func (r *recordingTrigger) Submit(_ context.Context, req models.ConversionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.requests = append(r.requests, req)
	return nil
}

func (r *recordingTrigger) submitted() []models.ConversionRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ConversionRequest(nil), r.requests...)
}

type testEnv struct {
	ctx         context.Context
	project     *models.Project
	models      *repository.MemoryIFCModelRepository
	attachRepo  *repository.MemoryAttachmentRepository
	blobs       *storage.MemoryStorage
	attachments *AttachmentService
	trigger     *recordingTrigger
	metrics     *metrics.Lifecycle
	lifecycle   *IFCModelService
	defaults    *DefaultSetManager
	provisioner *Provisioner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		ctx:        context.Background(),
		project:    &models.Project{ID: uuid.New(), Identifier: "tower-a", Name: "Tower A"},
		models:     repository.NewMemoryIFCModelRepository(),
		attachRepo: repository.NewMemoryAttachmentRepository(),
		blobs:      storage.NewMemoryStorage(),
		trigger:    &recordingTrigger{},
		metrics:    metrics.NewLifecycle(prometheus.NewRegistry()),
	}
	env.attachments = NewAttachmentService(env.attachRepo, env.blobs, nil, zerolog.Nop())
	env.lifecycle = NewIFCModelService(env.models, env.attachments, env.trigger, env.metrics, zerolog.Nop())
	env.defaults = NewDefaultSetManager(env.models)
	env.provisioner = NewProvisioner(env.models, env.metrics)
	return env
}

func ifcUpload(name, content string) *models.Upload {
	return &models.Upload{
		Filename:    name,
		ContentType: "application/x-step",
		Size:        int64(len(content)),
		Reader:      strings.NewReader(content),
	}
}

func ptr[T any](v T) *T {
	return &v
}

// create adds a model through the lifecycle and returns it.
func (env *testEnv) create(t *testing.T, title string, isDefault bool) *models.IFCModel {
	t.Helper()
	model, err := env.lifecycle.Create(env.ctx, env.project, ModelFields{
		Title:     ptr(title),
		IsDefault: ptr(isDefault),
		RawUpload: ifcUpload(title+".ifc", "ISO-10303-21;"),
	})
	require.NoError(t, err)
	return model
}

// convert simulates a finished conversion of the model's current generation.
func (env *testEnv) convert(t *testing.T, model *models.IFCModel) models.ConversionResult {
	t.Helper()
	current, err := env.models.FindByID(env.ctx, model.ID)
	require.NoError(t, err)
	result := env.artifacts(t, current.ID, current.Generation)
	require.NoError(t, env.lifecycle.ApplyConversion(env.ctx, result))
	return result
}

// artifacts stores a geometry and a metadata attachment for a result.
func (env *testEnv) artifacts(t *testing.T, modelID uuid.UUID, generation int64) models.ConversionResult {
	t.Helper()
	geometry, err := env.attachments.Store(env.ctx, *ifcUpload("model.xkt", "xkt"))
	require.NoError(t, err)
	metadata, err := env.attachments.Store(env.ctx, *ifcUpload("model.json", "{}"))
	require.NoError(t, err)
	return models.ConversionResult{
		ModelID:    modelID,
		Generation: generation,
		GeometryID: geometry.ID,
		MetadataID: metadata.ID,
	}
}

func (env *testEnv) attachmentExists(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	ok, err := env.attachments.Exists(env.ctx, id)
	require.NoError(t, err)
	return ok
}
