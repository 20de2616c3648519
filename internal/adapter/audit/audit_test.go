package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogger_LogAndReadAll(t *testing.T) {
	logger := NewFileLogger(filepath.Join(t.TempDir(), "audit.log"))
	fixed := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	logger.now = func() time.Time { return fixed }

	ctx := context.Background()
	require.NoError(t, logger.Log(ctx, "book", "added", map[string]string{"isbn": "9781234567890"}))
	require.NoError(t, logger.Log(ctx, "loan", "registered", nil))

	entries, err := logger.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "book", entries[0].Entity)
	assert.Equal(t, "added", entries[0].Action)
	assert.Equal(t, fixed, entries[0].Timestamp)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, map[string]any{"isbn": "9781234567890"}, entries[0].Data)

	assert.Equal(t, "loan", entries[1].Entity)
	assert.Equal(t, "registered", entries[1].Action)
	assert.Nil(t, entries[1].Data)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestFileLogger_ReadAllMissingFileIsEmpty(t *testing.T) {
	logger := NewFileLogger(filepath.Join(t.TempDir(), "never-written.log"))

	entries, err := logger.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDiscard_LogIsNoOp(t *testing.T) {
	assert.NoError(t, Discard{}.Log(context.Background(), "book", "added", nil))
}
