package fake_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/opentown/internal/session/fake"
)

func TestManager(t *testing.T) {
	ctx := context.Background()
	m, err := fake.NewManager(fake.ManagerConfig{FailCreate: map[string]bool{"ot-bad": true}})
	require.NoError(t, err)

	assert.Error(t, m.Create(ctx, "ot-bad", "/wt"))
	require.NoError(t, m.Create(ctx, "ot-a", "/wt/a"))
	require.NoError(t, m.Create(ctx, "other", "/wt/o"))

	ok, err := m.Exists(ctx, "ot-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/wt/a", m.Dir("ot-a"))

	names, err := m.List(ctx, "ot-")
	require.NoError(t, err)
	assert.Equal(t, []string{"ot-a"}, names)

	require.NoError(t, m.SendKeys(ctx, "ot-a", "opencode"))
	assert.Equal(t, []string{"opencode"}, m.SentKeys("ot-a"))

	require.NoError(t, m.Attach(ctx, "ot-a"))
	require.NoError(t, m.Kill(ctx, "ot-a"))
	assert.Error(t, m.Attach(ctx, "ot-a"))
	assert.Error(t, m.Kill(ctx, "ot-a"))
}
