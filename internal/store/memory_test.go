package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Store = (*MemoryStore)(nil)
var _ Store = (*SQLStore)(nil)

func TestMemoryStoreLifecycle(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	_, err := m.Last(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	first := NewRecord("first.csv", sampleResult())
	second := NewRecord("second.csv", sampleResult())
	require.NoError(t, m.Create(ctx, first))
	require.NoError(t, m.Create(ctx, second))

	last, err := m.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, last.ID)

	// Returned records are copies.
	last.Distribution["1"] = 999
	again, err := m.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, again.Distribution["1"])

	first.FileName = "renamed.csv"
	require.NoError(t, m.Update(ctx, first))

	records, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "renamed.csv", records[0].FileName)

	require.NoError(t, m.Delete(ctx, first.ID))
	assert.ErrorIs(t, m.Delete(ctx, first.ID), ErrNotFound)
	_, err = m.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
