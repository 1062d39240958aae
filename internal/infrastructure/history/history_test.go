package history_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
	"github.com/pixelforge-ai/generation-api/internal/domain/generation"
	"github.com/pixelforge-ai/generation-api/internal/domain/task"
	"github.com/pixelforge-ai/generation-api/internal/infrastructure/history"
)

func testRecord(id string) *generation.Record {
	return &generation.Record{
		ID:        id,
		Kind:      task.KindTextToImage,
		Result:    &chain.Result{Success: true, ProviderID: "sdxl-turbo"},
		CreatedAt: time.Now(),
	}
}

func TestStore_PutAndGet(t *testing.T) {
	store, err := history.NewStore(4, zerolog.Nop())
	require.NoError(t, err)

	rec := testRecord("gen_01jx3y5q8vw2m4n6p7r9s0t1v2")
	store.Put(rec)

	got, ok := store.Get(rec.ID)
	require.True(t, ok, "stored record not found")
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "sdxl-turbo", got.Result.ProviderID)

	_, ok = store.Get("gen_unknown")
	assert.False(t, ok, "found a record that was never stored")
}

func TestStore_EvictsOldest(t *testing.T) {
	store, err := history.NewStore(2, zerolog.Nop())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		store.Put(testRecord(fmt.Sprintf("gen_%026d", i)))
	}

	assert.Equal(t, 2, store.Len())
	_, ok := store.Get(fmt.Sprintf("gen_%026d", 0))
	assert.False(t, ok, "oldest record should have been evicted")
	_, ok = store.Get(fmt.Sprintf("gen_%026d", 2))
	assert.True(t, ok, "newest record should remain")
}

func TestStore_IgnoresNilAndEmpty(t *testing.T) {
	store, err := history.NewStore(2, zerolog.Nop())
	require.NoError(t, err)

	store.Put(nil)
	store.Put(&generation.Record{})
	assert.Equal(t, 0, store.Len())
}

func TestNewStore_RejectsBadSize(t *testing.T) {
	_, err := history.NewStore(0, zerolog.Nop())
	assert.Error(t, err)
}
