package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/store"
)

func TestLookupPlaceholders(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(store.NewMemory().Users())

	p := r.Lookup(ctx, "ghost")
	assert.Equal(t, "ghost", p.UID)
	assert.Equal(t, PlaceholderName, p.Name)
	assert.Equal(t, PlaceholderAvatar, p.AvatarURL)
}

func TestLookupFillsMissingFields(t *testing.T) {
	ctx := context.Background()
	users := store.NewMemory().Users()
	require.NoError(t, users.Set(ctx, &model.UserProfile{UID: "a", Name: "Aliya"}))

	p := NewResolver(users).Lookup(ctx, "a")
	assert.Equal(t, "Aliya", p.Name)
	assert.Equal(t, PlaceholderAvatar, p.AvatarURL, "missing avatar degrades to the placeholder")
}

func TestLookupCachesPerResolver(t *testing.T) {
	ctx := context.Background()
	users := store.NewMemory().Users()
	require.NoError(t, users.Set(ctx, &model.UserProfile{UID: "a", Name: "Aliya"}))

	r := NewResolver(users)
	assert.Equal(t, "Aliya", r.Lookup(ctx, "a").Name)

	// A rename does not reach an already-warmed resolver; a fresh one sees it.
	require.NoError(t, users.Update(ctx, "a", map[string]interface{}{"name": "Aliya N."}))
	assert.Equal(t, "Aliya", r.Lookup(ctx, "a").Name)
	assert.Equal(t, "Aliya N.", NewResolver(users).Lookup(ctx, "a").Name)

	// Misses are cached too, so a dead uid is fetched once.
	ghost := r.Lookup(ctx, "ghost")
	assert.Same(t, ghost, r.Lookup(ctx, "ghost"))
}
