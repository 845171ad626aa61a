package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-planner-backend/internal/apperr"
)

type item struct {
	Name string `json:"name"`
	Note string `json:"note"`
	ID   int    `json:"id"`
}

func (i item) RecordID() int { return i.ID }

func (i item) WithID(id int) item {
	i.ID = id
	return i
}

type notePatch struct {
	Note *string
}

func (p notePatch) Apply(i item) item {
	if p.Note != nil {
		i.Note = *p.Note
	}
	return i
}

func setupTestCollection(t *testing.T) (*Collection[item], string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.json")
	return NewCollection[item]("items", NewFileBackend(path)), path
}

func strPtr(s string) *string { return &s }

func TestCollection_InsertAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	c, _ := setupTestCollection(t)

	for want := 1; want <= 3; want++ {
		stored, err := c.Insert(ctx, item{Name: "x"})
		require.NoError(t, err)
		assert.Equal(t, want, stored.ID)
	}

	all := c.LoadAll(ctx)
	require.Len(t, all, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{all[0].ID, all[1].ID, all[2].ID})
}

func TestCollection_InsertContinuesFromMaxID(t *testing.T) {
	ctx := context.Background()
	c, _ := setupTestCollection(t)

	require.NoError(t, c.SaveAll(ctx, []item{{ID: 7}, {ID: 3}}))

	stored, err := c.Insert(ctx, item{Name: "next"})
	require.NoError(t, err)
	assert.Equal(t, 8, stored.ID)

	removed, err := c.Remove(ctx, 3)
	require.NoError(t, err)
	require.True(t, removed)

	stored, err = c.Insert(ctx, item{Name: "after gap"})
	require.NoError(t, err)
	assert.Equal(t, 9, stored.ID)
}

func TestCollection_SaveAllRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, path := setupTestCollection(t)

	raw := `[{"id":1,"name":"a","note":"n1"},{"id":2,"name":"b","note":""}]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	before := c.LoadAll(ctx)
	require.NoError(t, c.SaveAll(ctx, before))
	after := c.LoadAll(ctx)

	assert.Equal(t, before, after)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[\n  {\n    \"name\": \"a\"")
}

func TestCollection_UpdatePreservesUntouchedFields(t *testing.T) {
	ctx := context.Background()
	c, _ := setupTestCollection(t)

	original, err := c.Insert(ctx, item{Name: "keep", Note: "old"})
	require.NoError(t, err)

	updated, err := c.Update(ctx, original.ID, notePatch{Note: strPtr("new")})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Note)

	found, ok := c.FindByID(ctx, original.ID)
	require.True(t, ok)
	assert.Equal(t, item{ID: original.ID, Name: "keep", Note: "new"}, found)
}

func TestCollection_UpdateNotFound(t *testing.T) {
	ctx := context.Background()
	c, _ := setupTestCollection(t)

	_, err := c.Update(ctx, 42, notePatch{Note: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollection_ModifyCannotChangeID(t *testing.T) {
	ctx := context.Background()
	c, _ := setupTestCollection(t)

	stored, err := c.Insert(ctx, item{Name: "a"})
	require.NoError(t, err)

	updated, err := c.Modify(ctx, stored.ID, func(i item) (item, error) {
		i.ID = 99
		return i, nil
	})
	require.NoError(t, err)
	assert.Equal(t, stored.ID, updated.ID)

	_, ok := c.FindByID(ctx, 99)
	assert.False(t, ok)
}

func TestCollection_ModifyErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	c, path := setupTestCollection(t)

	stored, err := c.Insert(ctx, item{Name: "a"})
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	abort := errors.New("abort")
	_, err = c.Modify(ctx, stored.ID, func(i item) (item, error) {
		i.Name = "changed"
		return i, abort
	})
	assert.ErrorIs(t, err, abort)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCollection_RemoveTwice(t *testing.T) {
	ctx := context.Background()
	c, path := setupTestCollection(t)

	stored, err := c.Insert(ctx, item{Name: "a"})
	require.NoError(t, err)

	removed, err := c.Remove(ctx, stored.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	removed, err = c.Remove(ctx, stored.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCollection_Load(t *testing.T) {
	tests := []struct {
		name       string
		content    *string
		wantStatus LoadStatus
		wantLen    int
	}{
		{name: "missing file", content: nil, wantStatus: LoadEmpty},
		{name: "blank file", content: strPtr("  \n"), wantStatus: LoadEmpty},
		{name: "empty array", content: strPtr("[]"), wantStatus: LoadEmpty},
		{name: "corrupt file", content: strPtr("{not json"), wantStatus: LoadReadError},
		{name: "records", content: strPtr(`[{"id":1},{"id":2}]`), wantStatus: LoadOK, wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c, path := setupTestCollection(t)
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}

			res := c.Load(ctx)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Len(t, res.Records, tt.wantLen)
			if tt.wantStatus == LoadReadError {
				assert.True(t, apperr.Is(res.Err, apperr.KindStorageRead))
				assert.Empty(t, c.LoadAll(ctx))
			} else {
				assert.NoError(t, res.Err)
			}
		})
	}
}

func TestCollection_RefusesToOverwriteCorruptDocument(t *testing.T) {
	ctx := context.Background()
	c, path := setupTestCollection(t)
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := c.Insert(ctx, item{Name: "a"})
	assert.True(t, apperr.Is(err, apperr.KindStorageRead))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(data))
}

type failingBackend struct {
	data     []byte
	writeErr error
}

func (b *failingBackend) Read(ctx context.Context) ([]byte, error) {
	if b.data == nil {
		return nil, ErrDocumentNotFound
	}
	return b.data, nil
}

func (b *failingBackend) Write(ctx context.Context, data []byte) error {
	return b.writeErr
}

func (b *failingBackend) Location() string { return "memory" }

func TestCollection_WriteFailure(t *testing.T) {
	ctx := context.Background()
	c := NewCollection[item]("items", &failingBackend{writeErr: errors.New("disk full")})

	_, err := c.Insert(ctx, item{Name: "a"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindStorageWrite))
}

func TestCollection_OnWriteHook(t *testing.T) {
	ctx := context.Background()
	c, _ := setupTestCollection(t)

	calls := 0
	c.OnWrite(func() { calls++ })

	_, err := c.Insert(ctx, item{Name: "a"})
	require.NoError(t, err)
	_, err = c.Remove(ctx, 100)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestCollection_ConcurrentInsertsAreLinearized(t *testing.T) {
	ctx := context.Background()
	c, _ := setupTestCollection(t)

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := c.Insert(ctx, item{Name: "concurrent"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all := c.LoadAll(ctx)
	require.Len(t, all, writers)

	ids := make([]int, 0, writers)
	for _, record := range all {
		ids = append(ids, record.ID)
	}
	sort.Ints(ids)
	for i, id := range ids {
		assert.Equal(t, i+1, id)
	}
}

func TestNextID(t *testing.T) {
	assert.Equal(t, 1, NextID([]item{}))
	assert.Equal(t, 6, NextID([]item{{ID: 2}, {ID: 5}, {ID: 1}}))
}

func TestCollection_Stat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "items.json")
	c := NewCollection[item]("items", NewFileBackend(path))

	stat := c.Stat(ctx)
	assert.Equal(t, "items", stat.Name)
	assert.Equal(t, LoadEmpty, stat.Status)
	assert.Equal(t, "empty", stat.Status.String())

	_, err := c.Insert(ctx, item{Name: "a"})
	require.NoError(t, err)
	stat = c.Stat(ctx)
	assert.Equal(t, LoadOK, stat.Status)
	assert.Equal(t, 1, stat.Count)
	assert.Equal(t, path, stat.Location)

	require.NoError(t, os.WriteFile(path, []byte("[{"), 0o644))
	stat = c.Stat(ctx)
	assert.Equal(t, "read_error", stat.Status.String())
	assert.Error(t, stat.Err)
}
