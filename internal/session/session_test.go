package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store/repo"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/user/entity"
)

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	st := store.New(repo.NewMemoryRepo(), nil)
	s := New(st, "sid-1")

	assert.False(t, s.Authenticated(ctx))
	require.NoError(t, s.Set(ctx, entity.User{ID: "u1", Alias: "neo", Score: 0}))
	require.True(t, s.Authenticated(ctx))
	assert.Equal(t, "neo", s.Current(ctx).Alias)

	require.NoError(t, s.Refresh(ctx, entity.User{ID: "u1", Alias: "neo", Score: 100}))
	assert.Equal(t, 100, s.Current(ctx).Score)

	require.NoError(t, s.Refresh(ctx, entity.User{ID: "u2", Alias: "trinity"}))
	assert.Equal(t, "u1", s.Current(ctx).ID, "refresh ignores other users")

	require.NoError(t, s.Clear(ctx))
	assert.Nil(t, s.Current(ctx))
	require.NoError(t, s.Clear(ctx), "clearing twice never fails")
}

func TestRefreshOnEmptySessionIsNoop(t *testing.T) {
	ctx := context.Background()
	s := New(store.New(repo.NewMemoryRepo(), nil), "")
	require.NoError(t, s.Refresh(ctx, entity.User{ID: "u1"}))
	assert.Nil(t, s.Current(ctx))
}
