package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIssueNumber(t *testing.T) {
	tests := []struct {
		url  string
		want int
	}{
		{url: "https://github.com/owner/repo/issues/123", want: 123},
		{url: "https://github.com/owner/repo/issues/123\n", want: 123},
		{url: "https://github.com/owner/repo/issues/", want: 0},
		{url: "no-slashes", want: 0},
		{url: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := extractIssueNumber(tt.url)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryClient_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()

	created, err := c.Create(ctx, NewIssue{
		Title:  "fix the null check",
		Body:   "**Location**: `main.go:30`",
		Labels: []string{"actionmark:P1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Number)
	assert.Equal(t, "open", created.State)

	found, err := c.FindByProvenance(ctx, "main.go:30")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.Number, found.Number)

	missing, err := c.FindByProvenance(ctx, "other.go:1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryClient_Unavailable(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	c.Available = false

	assert.False(t, c.IsAvailable(ctx))

	_, err := c.FindByProvenance(ctx, "x")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = c.Create(ctx, NewIssue{Title: "t"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRecordingClient_Journals(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryClient()
	rec := NewRecordingClient(inner, nil)

	rec.IsAvailable(ctx)
	_, err := rec.FindByProvenance(ctx, "a.go:1")
	require.NoError(t, err)
	_, err = rec.Create(ctx, NewIssue{Title: "title"})
	require.NoError(t, err)

	calls := rec.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "is_available", calls[0].Op)
	assert.Equal(t, "find_by_provenance", calls[1].Op)
	assert.Equal(t, "a.go:1", calls[1].Arg)
	assert.Equal(t, "create", calls[2].Op)
	assert.Equal(t, "title", calls[2].Arg)
}
