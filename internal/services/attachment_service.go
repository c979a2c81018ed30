package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"ifc-service/internal/cache"
	"ifc-service/internal/metrics"
	"ifc-service/internal/models"
	"ifc-service/internal/repository"
	"ifc-service/internal/storage"
)

// CacheableSize is the largest attachment the download path keeps in the artifact cache.
const CacheableSize = 32 << 20

// AttachmentService stores blobs in object storage and their metadata in the database.
type AttachmentService struct {
	repo    repository.AttachmentRepository
	storage storage.Storage
	cache   *cache.Tiered
	log     zerolog.Logger
}

// NewAttachmentService wires the attachment store. artifacts may be nil.
func NewAttachmentService(repo repository.AttachmentRepository, store storage.Storage, artifacts *cache.Tiered, log zerolog.Logger) *AttachmentService {
	return &AttachmentService{repo: repo, storage: store, cache: artifacts, log: log}
}

// Store writes the blob first and then its record. The blob is removed again
// if the record cannot be written.
func (s *AttachmentService) Store(ctx context.Context, upload models.Upload) (*models.Attachment, error) {
	if upload.Reader == nil {
		return nil, errors.New("upload has no content")
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	id := uuid.New()
	key := storageKey(id, upload.Filename)

	size := upload.Size
	if size <= 0 {
		size = -1
	}
	counter := &countingReader{r: upload.Reader}
	if err := s.storage.Put(ctx, key, counter, size, contentType); err != nil {
		return nil, errors.Wrap(err, "upload to storage")
	}

	attachment := &models.Attachment{
		ID:          id,
		Filename:    filepath.Base(upload.Filename),
		ContentType: contentType,
		Size:        counter.n,
		StorageKey:  key,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.log.Error().Err(delErr).Str("storage_key", key).Msg("failed to roll back stored blob")
		}
		return nil, errors.Wrap(err, "create attachment record")
	}
	return attachment, nil
}

// Find returns the attachment record.
func (s *AttachmentService) Find(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "find attachment")
	}
	return attachment, nil
}

// Exists reports whether both the record and the blob are present.
func (s *AttachmentService) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	attachment, err := s.Find(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ok, err := s.storage.Exists(ctx, attachment.StorageKey)
	return ok, errors.Wrap(err, "stat blob")
}

// Open streams the blob straight from storage.
func (s *AttachmentService) Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *models.Attachment, error) {
	attachment, err := s.Find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.storage.Get(ctx, attachment.StorageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "read blob")
	}
	return rc, attachment, nil
}

// Download serves an attachment through the artifact cache. Blobs up to
// CacheableSize are read fully and cached on a miss; larger ones are streamed.
func (s *AttachmentService) Download(ctx context.Context, id uuid.UUID, dm *metrics.DownloadMetrics) (io.ReadCloser, *models.Attachment, error) {
	if dm == nil {
		dm = metrics.NewDownloadMetrics(id.String())
	}
	dm.StartLookup()
	attachment, err := s.Find(ctx, id)
	dm.EndLookup()
	if err != nil {
		return nil, nil, err
	}
	dm.SetSize(attachment.Size)

	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, id, dm); ok {
			return io.NopCloser(bytes.NewReader(data)), attachment, nil
		}
	}

	dm.StartStorage()
	rc, err := s.storage.Get(ctx, attachment.StorageKey)
	dm.EndStorage()
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "read blob")
	}
	if s.cache == nil || attachment.Size > CacheableSize {
		return rc, attachment, nil
	}

	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read blob")
	}
	s.cache.Set(ctx, id, data)
	return io.NopCloser(bytes.NewReader(data)), attachment, nil
}

// Delete removes the blob, the record and any cached copy. Missing ids are ignored.
func (s *AttachmentService) Delete(ctx context.Context, id uuid.UUID) error {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return errors.Wrap(err, "find attachment")
	}
	if err := s.storage.Delete(ctx, attachment.StorageKey); err != nil {
		return errors.Wrap(err, "delete blob")
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	return errors.Wrap(s.repo.Delete(ctx, id), "delete attachment record")
}

// Stats returns the artifact cache layer statistics.
func (s *AttachmentService) Stats(ctx context.Context) []cache.LayerStats {
	if s.cache == nil {
		return []cache.LayerStats{}
	}
	return s.cache.Stats(ctx)
}

// ClearCache empties the artifact cache.
func (s *AttachmentService) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx)
}

func storageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("attachments/%s%s", id, strings.ToLower(filepath.Ext(filename)))
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
