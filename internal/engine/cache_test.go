package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedClientServesRepeatPrompts(t *testing.T) {
	mock := NewMockClient(`{"n":1}`)
	cached := NewCachedClient(mock, time.Minute, 10)
	ctx := context.Background()

	out, err := cached.GenerateStructured(ctx, "same prompt")
	require.NoError(t, err)
	assert.EqualValues(t, 1, out["n"])

	_, err = cached.GenerateStructured(ctx, "same prompt")
	require.NoError(t, err)
	assert.Equal(t, 1, mock.Calls())

	_, err = cached.GenerateStructured(ctx, "different prompt")
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls())
}

func TestCachedClientExpiresEntries(t *testing.T) {
	mock := NewMockClient(`{"n":1}`)
	cached := NewCachedClient(mock, time.Millisecond, 10)
	ctx := context.Background()

	_, err := cached.GenerateStructured(ctx, "p")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = cached.GenerateStructured(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls())
}

func TestCachedClientDoesNotCacheErrors(t *testing.T) {
	mock := &MockClient{Responses: []MockResponse{
		{Text: "not json at all"},
		{Text: `{"ok":true}`},
	}}
	cached := NewCachedClient(mock, time.Minute, 10)
	ctx := context.Background()

	_, err := cached.GenerateStructured(ctx, "p")
	require.Error(t, err)

	out, err := cached.GenerateStructured(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, true, out["ok"])
}
