package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreClaim(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := store.Claim(ctx, "wamid.1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.Claim(ctx, "wamid.1", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	other, err := store.Claim(ctx, "wamid.2", time.Minute)
	require.NoError(t, err)
	assert.True(t, other)

	now = now.Add(2 * time.Minute)
	expired, err := store.Claim(ctx, "wamid.1", time.Minute)
	require.NoError(t, err)
	assert.True(t, expired)
}
