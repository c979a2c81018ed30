package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.Put(ctx, "attachments/a", strings.NewReader("ifc"), 3, "application/x-step"))

	exists, err := s.Exists(ctx, "attachments/a")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := s.Get(ctx, "attachments/a")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "ifc", string(data))

	require.NoError(t, s.Delete(ctx, "attachments/a"))
	require.NoError(t, s.Delete(ctx, "attachments/a"))

	_, err = s.Get(ctx, "attachments/a")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Equal(t, 0, s.Len())
}
