package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ifc-service/internal/models"
)

var ifcModelColumns = []string{
	"id", "project_id", "title", "raw_attachment_id", "geometry_attachment_id",
	"metadata_attachment_id", "is_default", "generation", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestIFCModelRepository_ApplyConversion(t *testing.T) {
	ctx := context.Background()
	result := models.ConversionResult{
		ModelID: uuid.New(), Generation: 3, GeometryID: uuid.New(), MetadataID: uuid.New(),
	}

	t.Run("current generation", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewIFCModelRepository(db)

		mock.ExpectExec(`UPDATE "ifc_models" SET .* WHERE id = \$\d+ AND generation = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		applied, err := repo.ApplyConversion(ctx, result)
		assert.NoError(t, err)
		assert.True(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale generation or deleted model", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewIFCModelRepository(db)

		mock.ExpectExec(`UPDATE "ifc_models" SET .* WHERE id = \$\d+ AND generation = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		applied, err := repo.ApplyConversion(ctx, result)
		assert.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIFCModelRepository_ListByProject(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIFCModelRepository(db)
	ctx := context.Background()

	projectID := uuid.New()
	first, second := uuid.New(), uuid.New()
	geometry, metadata := uuid.New(), uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows(ifcModelColumns).
		AddRow(first.String(), projectID.String(), "Tower", uuid.New().String(), geometry.String(), metadata.String(), true, 1, now, now).
		AddRow(second.String(), projectID.String(), "Annex", uuid.New().String(), nil, nil, false, 2, now.Add(time.Second), now)

	mock.ExpectQuery(`SELECT \* FROM "ifc_models" WHERE project_id = \$1 ORDER BY created_at ASC,\s*id ASC`).
		WithArgs(projectID).
		WillReturnRows(rows)

	list, err := repo.ListByProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first, list[0].ID)
	assert.True(t, list[0].IsViewerReady())
	assert.Equal(t, second, list[1].ID)
	assert.False(t, list[1].IsViewerReady())
	assert.EqualValues(t, 2, list[1].Generation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIFCModelRepository_FindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIFCModelRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "ifc_models" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(ifcModelColumns))

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIFCModelRepository_UpdateFields(t *testing.T) {
	ctx := context.Background()

	t.Run("only artifact columns is a no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewIFCModelRepository(db)

		err := repo.UpdateFields(ctx, uuid.New(), map[string]any{"metadata_attachment_id": uuid.New()})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("title update", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewIFCModelRepository(db)

		mock.ExpectExec(`UPDATE "ifc_models" SET .*"title"=.* WHERE id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateFields(ctx, uuid.New(), map[string]any{"title": "Tower"})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing record", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewIFCModelRepository(db)

		mock.ExpectExec(`UPDATE "ifc_models" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateFields(ctx, uuid.New(), map[string]any{"is_default": true})
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestIFCModelRepository_ResetConversion(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIFCModelRepository(db)
	ctx := context.Background()

	id, projectID, raw := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "ifc_models" SET .*"generation"=generation \+ \$\d+.*"title"=.* WHERE id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "ifc_models" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(ifcModelColumns).
			AddRow(id.String(), projectID.String(), "Tower B", raw.String(), nil, nil, true, 4, now, now))
	mock.ExpectCommit()

	model, err := repo.ResetConversion(ctx, id, &raw, map[string]any{"title": "Tower B"})
	require.NoError(t, err)
	assert.Equal(t, raw, model.RawAttachmentID)
	assert.Equal(t, "Tower B", model.Title)
	assert.EqualValues(t, 4, model.Generation)
	assert.False(t, model.IsViewerReady())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIFCModelRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIFCModelRepository(db)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM "ifc_models" WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIFCModelRepository_ResetConversionMissingRecord(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIFCModelRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "ifc_models" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.ResetConversion(context.Background(), uuid.New(), nil, map[string]any{"title": "Tower"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIFCModelRepository_ReferencesAttachment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIFCModelRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "ifc_models" WHERE .*raw_attachment_id = \$1 OR geometry_attachment_id = \$2 OR metadata_attachment_id = \$3`).
		WithArgs(id, id, id).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	referenced, err := repo.ReferencesAttachment(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, referenced)
	assert.NoError(t, mock.ExpectationsWereMet())
}
