package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-planner-backend/internal/models"
	"travel-planner-backend/internal/store"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func setupTips(t *testing.T, content string) (*store.Collection[models.Tip], string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tips.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return store.NewCollection[models.Tip]("tips", store.NewFileBackend(path)), path
}

func TestTTL_StalenessBound(t *testing.T) {
	ctx := context.Background()
	tips, path := setupTips(t, `[{"id":1,"title":"old","text":"a"}]`)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	ttl := 5 * time.Minute
	c := New[models.Tip](tips, ttl, clock.Now)

	first := c.Get(ctx)
	require.Len(t, first, 1)
	assert.Equal(t, "old", first[0].Title)

	// the document changes behind the cache's back
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"title":"new","text":"b"}]`), 0o644))

	clock.Advance(ttl - time.Second)
	assert.Equal(t, "old", c.Get(ctx)[0].Title)

	clock.Advance(2 * time.Second)
	assert.Equal(t, "new", c.Get(ctx)[0].Title)
}

func TestTTL_ExactlyTTLIsStale(t *testing.T) {
	ctx := context.Background()
	tips, path := setupTips(t, `[{"id":1,"title":"old"}]`)
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := New[models.Tip](tips, time.Hour, clock.Now)

	c.Get(ctx)
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"title":"new"}]`), 0o644))

	clock.Advance(time.Hour)
	assert.Equal(t, "new", c.Get(ctx)[0].Title)
}

func TestTTL_Invalidate(t *testing.T) {
	ctx := context.Background()
	tips, path := setupTips(t, `[{"id":1,"title":"old"}]`)
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := New[models.Tip](tips, 24*time.Hour, clock.Now)

	c.Get(ctx)
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"title":"new"}]`), 0o644))
	assert.Equal(t, "old", c.Get(ctx)[0].Title)

	c.Invalidate()
	assert.Equal(t, "new", c.Get(ctx)[0].Title)
}

func TestForCollection_InvalidatedByWrites(t *testing.T) {
	ctx := context.Background()
	tips, _ := setupTips(t, `[{"id":1,"title":"first"}]`)
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := ForCollection(tips, 24*time.Hour, clock.Now)

	require.Len(t, c.Get(ctx), 1)

	_, err := tips.Insert(ctx, models.Tip{Title: "second"})
	require.NoError(t, err)

	assert.Len(t, c.Get(ctx), 2)
}

func TestTTL_ReloadErrorServesPreviousData(t *testing.T) {
	ctx := context.Background()
	tips, path := setupTips(t, `[{"id":1,"title":"good"}]`)
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := New[models.Tip](tips, time.Minute, clock.Now)

	require.Len(t, c.Get(ctx), 1)

	require.NoError(t, os.WriteFile(path, []byte(`[{"id":`), 0o644))
	clock.Advance(2 * time.Minute)

	got := c.Get(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].Title)

	// the failed reload did not refresh the deadline, so a fixed file is picked up at once
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"title":"fixed"}]`), 0o644))
	assert.Equal(t, "fixed", c.Get(ctx)[0].Title)
}

func TestTTL_ReloadErrorWithoutDataIsEmpty(t *testing.T) {
	tips, _ := setupTips(t, `garbage`)
	c := New[models.Tip](tips, time.Minute, nil)

	assert.Empty(t, c.Get(context.Background()))
}

func TestTTL_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	tips, _ := setupTips(t, `[{"id":1,"title":"a"},{"id":2,"title":"b"}]`)
	c := New[models.Tip](tips, time.Hour, nil)

	got := c.Get(ctx)
	got[0], got[1] = got[1], got[0]

	again := c.Get(ctx)
	assert.Equal(t, 1, again[0].ID)
}
