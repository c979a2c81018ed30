package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ifc-service/internal/models"
)

func TestFilterDefaultSet(t *testing.T) {
	now := time.Now()
	readyDefault := readyModel("ready default", now, true)
	readyPlain := readyModel("ready plain", now, false)
	pendingDefault := readyModel("pending default", now, true)
	pendingDefault.MetadataAttachmentID = nil

	set := FilterDefaultSet([]models.IFCModel{pendingDefault, readyDefault, readyPlain})

	require.Len(t, set, 1)
	assert.Equal(t, readyDefault.ID, set[0].ID)
	assert.NotNil(t, FilterDefaultSet(nil))
}

func TestDefaultSetManager_FlagBeforeReadiness(t *testing.T) {
	env := newTestEnv(t)
	model := env.create(t, "Tower", true)

	set, err := env.defaults.DefaultSet(env.ctx, env.project)
	require.NoError(t, err)
	assert.Empty(t, set)

	env.convert(t, model)

	set, err = env.defaults.DefaultSet(env.ctx, env.project)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, model.ID, set[0].ID)
}

func TestDefaultSetManager_SubsetOfCatalog(t *testing.T) {
	env := newTestEnv(t)
	a := env.create(t, "A", true)
	env.create(t, "B", true)
	c := env.create(t, "C", false)
	env.convert(t, a)
	env.convert(t, c)

	set, err := env.defaults.DefaultSet(env.ctx, env.project)
	require.NoError(t, err)
	catalog, err := env.lifecycle.List(env.ctx, env.project)
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, m := range catalog {
		ids[m.ID.String()] = true
	}
	for _, m := range set {
		assert.True(t, ids[m.ID.String()])
		assert.True(t, m.IsViewerReady())
	}
	require.Len(t, set, 1)
	assert.Equal(t, a.ID, set[0].ID)
}

func TestDefaultSetManager_IsEmpty(t *testing.T) {
	env := newTestEnv(t)

	empty, err := env.defaults.IsEmpty(env.ctx, env.project)
	require.NoError(t, err)
	assert.True(t, empty)

	env.create(t, "Tower", false)

	empty, err = env.defaults.IsEmpty(env.ctx, env.project)
	require.NoError(t, err)
	assert.False(t, empty)
}
