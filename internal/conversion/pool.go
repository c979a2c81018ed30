package conversion

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ifc-service/internal/extraction"
	"ifc-service/internal/metrics"
	"ifc-service/internal/models"
	"ifc-service/internal/services"
	"ifc-service/internal/tracing"
)

// ResultHandler receives finished conversions.
type ResultHandler interface {
	ApplyConversion(ctx context.Context, result models.ConversionResult) error
}

// AttachmentSource reads raw uploads and stores produced artifacts.
type AttachmentSource interface {
	Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *models.Attachment, error)
	Store(ctx context.Context, upload models.Upload) (*models.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PoolConfig struct {
	Workers   int
	QueueSize int
	// Timeout bounds a whole job.
	Timeout time.Duration
	// WorkDir is the parent of the per-job temp dirs. Empty means os.TempDir.
	WorkDir string
}

// Pool runs conversion jobs on a fixed number of workers fed by a bounded queue.
type Pool struct {
	cfg         PoolConfig
	toolchain   Toolchain
	attachments AttachmentSource
	metrics     *metrics.Lifecycle
	log         zerolog.Logger

	mu      sync.RWMutex
	queue   chan models.ConversionRequest
	stopped bool
	wg      sync.WaitGroup
}

func NewPool(cfg PoolConfig, toolchain Toolchain, attachments AttachmentSource, m *metrics.Lifecycle, log zerolog.Logger) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &Pool{
		cfg:         cfg,
		toolchain:   toolchain,
		attachments: attachments,
		metrics:     m,
		log:         log.With().Str("component", "conversion").Logger(),
		queue:       make(chan models.ConversionRequest, cfg.QueueSize),
	}
}

// Submit enqueues req without blocking.
func (p *Pool) Submit(_ context.Context, req models.ConversionRequest) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return errors.Wrap(services.ErrConversionUnavailable, "conversion pool stopped")
	}
	select {
	case p.queue <- req:
		p.log.Debug().
			Str("model_id", req.ModelID.String()).
			Int64("generation", req.Generation).
			Msg("conversion queued")
		return nil
	default:
		return errors.Wrap(services.ErrConversionUnavailable, "conversion queue full")
	}
}

// Start launches the workers. Results are reported to handler.
func (p *Pool) Start(ctx context.Context, handler ResultHandler) {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, handler)
	}
	p.log.Info().Int("workers", p.cfg.Workers).Int("queue_size", p.cfg.QueueSize).Msg("conversion pool started")
}

// Stop refuses new requests, lets the workers drain the queue and waits for them.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, handler ResultHandler) {
	defer p.wg.Done()
	for req := range p.queue {
		p.process(ctx, handler, req)
	}
}

func (p *Pool) process(ctx context.Context, handler ResultHandler, req models.ConversionRequest) {
	ctx, span := tracing.Tracer().Start(ctx, "conversion.job")
	span.SetAttributes(
		attribute.String("model_id", req.ModelID.String()),
		attribute.Int64("generation", req.Generation),
	)
	defer span.End()

	log := p.log.With().
		Str("model_id", req.ModelID.String()).
		Int64("generation", req.Generation).
		Logger()

	start := time.Now()
	result, err := p.convert(ctx, req)
	p.metrics.ObserveConversion(time.Since(start))
	if err != nil {
		p.metrics.ConversionResult(metrics.OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Msg("conversion failed, model stays not ready")
		return
	}

	if err := handler.ApplyConversion(ctx, result); err != nil {
		span.RecordError(err)
		log.Error().Err(err).Msg("failed to record conversion result")
		return
	}
	log.Info().Dur("duration", time.Since(start)).Msg("conversion finished")
}

func (p *Pool) convert(ctx context.Context, req models.ConversionRequest) (models.ConversionResult, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	workDir, err := os.MkdirTemp(p.cfg.WorkDir, "ifc-conversion-*")
	if err != nil {
		return models.ConversionResult{}, errors.Wrap(err, "create work dir")
	}
	defer os.RemoveAll(workDir)

	ifcPath, err := p.fetchRaw(ctx, req.RawAttachmentID, workDir)
	if err != nil {
		return models.ConversionResult{}, err
	}

	artifacts, err := p.toolchain.Convert(ctx, ifcPath, workDir)
	if err != nil {
		return models.ConversionResult{}, errors.Wrap(err, "run toolchain")
	}

	base := strings.TrimSuffix(filepath.Base(ifcPath), filepath.Ext(ifcPath))
	geometry, err := p.storeFile(ctx, artifacts.GeometryPath, base+".xkt", "application/octet-stream")
	if err != nil {
		return models.ConversionResult{}, errors.Wrap(err, "store geometry")
	}
	metadata, err := p.storeFile(ctx, artifacts.MetadataPath, base+".json", "application/json")
	if err != nil {
		if delErr := p.attachments.Delete(ctx, geometry.ID); delErr != nil {
			p.log.Error().Err(delErr).Str("attachment_id", geometry.ID.String()).Msg("failed to remove orphaned geometry")
		}
		return models.ConversionResult{}, errors.Wrap(err, "store metadata")
	}

	return models.ConversionResult{
		ModelID:    req.ModelID,
		Generation: req.Generation,
		GeometryID: geometry.ID,
		MetadataID: metadata.ID,
	}, nil
}

// fetchRaw spools the raw upload into workDir and returns the IFC file to
// convert, unpacking archives first.
func (p *Pool) fetchRaw(ctx context.Context, id uuid.UUID, workDir string) (string, error) {
	rc, attachment, err := p.attachments.Open(ctx, id)
	if err != nil {
		return "", errors.Wrap(err, "open raw upload")
	}
	defer rc.Close()

	name := filepath.Base(attachment.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = "upload" + strings.ToLower(filepath.Ext(attachment.Filename))
	}
	spoolPath := filepath.Join(workDir, name)
	out, err := os.Create(spoolPath)
	if err != nil {
		return "", errors.Wrap(err, "create spool file")
	}
	_, err = io.Copy(out, rc)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", errors.Wrap(err, "spool raw upload")
	}

	if !extraction.IsArchive(attachment.Filename) {
		return spoolPath, nil
	}
	files, err := extraction.ExtractArchive(ctx, spoolPath, filepath.Join(workDir, "extracted"))
	if err != nil {
		return "", err
	}
	return extraction.FindIFC(files)
}

func (p *Pool) storeFile(ctx context.Context, path, filename, contentType string) (*models.Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return p.attachments.Store(ctx, models.Upload{
		Filename:    filename,
		ContentType: contentType,
		Size:        info.Size(),
		Reader:      f,
	})
}
