package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"travel-planner-backend/internal/apperr"
	"travel-planner-backend/internal/metrics"

	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when no record has the requested ID
var ErrNotFound = errors.New("record not found")

// Record is an entity addressed by an integer ID
type Record[T any] interface {
	RecordID() int
	WithID(id int) T
}

// Patch changes an explicit set of fields of a record
type Patch[T any] interface {
	Apply(T) T
}

// LoadStatus tells an empty collection apart from an unreadable one
type LoadStatus int

const (
	// LoadOK means the document was read and holds at least one record
	LoadOK LoadStatus = iota
	// LoadEmpty means the document is missing or holds no records
	LoadEmpty
	// LoadReadError means the document exists but could not be read or parsed
	LoadReadError
)

// LoadResult is the outcome of reading a collection document
type LoadResult[T any] struct {
	Err     error
	Records []T
	Status  LoadStatus
}

// Collection is a JSON array of records persisted as one document.
//
// Mutations on the same collection are linearized: each one loads, changes
// and saves the document while holding the collection lock. A Collection must
// be the only writer of its document.
type Collection[T Record[T]] struct {
	backend Backend
	name    string
	onWrite []func()
	mu      sync.RWMutex
	hookMu  sync.Mutex
}

// NewCollection creates a collection stored in backend
func NewCollection[T Record[T]](name string, backend Backend) *Collection[T] {
	return &Collection[T]{
		name:    name,
		backend: backend,
	}
}

// Name returns the collection name
func (c *Collection[T]) Name() string {
	return c.name
}

// OnWrite registers fn to be called after every successful save.
// Hooks run after the collection lock is released.
func (c *Collection[T]) OnWrite(fn func()) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onWrite = append(c.onWrite, fn)
}

// Load reads the collection and reports whether it is empty or unreadable
func (c *Collection[T]) Load(ctx context.Context) LoadResult[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.load(ctx)
}

// LoadAll reads the collection, treating an unreadable document as empty.
// Read failures are logged.
func (c *Collection[T]) LoadAll(ctx context.Context) []T {
	res := c.Load(ctx)
	if res.Status == LoadReadError {
		log.Warn().
			Err(res.Err).
			Str("collection", c.name).
			Str("location", c.backend.Location()).
			Msg("Collection unreadable, serving it as empty")
	}
	return res.Records
}

// String returns the status name used in health reports
func (s LoadStatus) String() string {
	switch s {
	case LoadOK:
		return "ok"
	case LoadEmpty:
		return "empty"
	case LoadReadError:
		return "read_error"
	}
	return "unknown"
}

// Stat summarizes a collection for health checks
type Stat struct {
	Err      error
	Name     string
	Location string
	Status   LoadStatus
	Count    int
}

// Stat loads the collection and reports its status and size
func (c *Collection[T]) Stat(ctx context.Context) Stat {
	res := c.Load(ctx)
	return Stat{
		Name:     c.name,
		Location: c.backend.Location(),
		Status:   res.Status,
		Count:    len(res.Records),
		Err:      res.Err,
	}
}

// SaveAll replaces the whole collection
func (c *Collection[T]) SaveAll(ctx context.Context, records []T) error {
	return c.write(ctx, func([]T) ([]T, error) {
		return records, nil
	})
}

// FindByID returns the first record with the given ID
func (c *Collection[T]) FindByID(ctx context.Context, id int) (T, bool) {
	for _, record := range c.LoadAll(ctx) {
		if record.RecordID() == id {
			return record, true
		}
	}
	var zero T
	return zero, false
}

// Insert assigns the next ID to record, appends it and saves the collection
func (c *Collection[T]) Insert(ctx context.Context, record T) (T, error) {
	var stored T
	err := c.write(ctx, func(records []T) ([]T, error) {
		stored = record.WithID(NextID(records))
		return append(records, stored), nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return stored, nil
}

// Update applies patch to the record with the given ID and saves the collection.
// Returns ErrNotFound if no record has that ID.
func (c *Collection[T]) Update(ctx context.Context, id int, patch Patch[T]) (T, error) {
	return c.Modify(ctx, id, func(record T) (T, error) {
		return patch.Apply(record), nil
	})
}

// Modify replaces the record with the given ID by fn's result and saves the collection.
// If fn returns an error nothing is written. The record ID cannot be changed.
// Returns ErrNotFound if no record has that ID.
func (c *Collection[T]) Modify(ctx context.Context, id int, fn func(T) (T, error)) (T, error) {
	var updated T
	err := c.write(ctx, func(records []T) ([]T, error) {
		idx := indexOf(records, id)
		if idx == -1 {
			return nil, ErrNotFound
		}
		next, err := fn(records[idx])
		if err != nil {
			return nil, err
		}
		updated = next.WithID(id)
		records[idx] = updated
		return records, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

// Remove deletes the record with the given ID.
// The document is only written if a record was removed.
func (c *Collection[T]) Remove(ctx context.Context, id int) (bool, error) {
	err := c.write(ctx, func(records []T) ([]T, error) {
		idx := indexOf(records, id)
		if idx == -1 {
			return nil, ErrNotFound
		}
		return append(records[:idx], records[idx+1:]...), nil
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Mutate runs fn over the loaded records and saves what it returns.
// If fn returns an error nothing is written.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(records []T) ([]T, error)) error {
	return c.write(ctx, fn)
}

// NextID returns max(existing IDs)+1, or 1 for an empty collection.
// Gaps left by removed records are never filled.
func NextID[T Record[T]](records []T) int {
	maxID := 0
	for _, record := range records {
		if id := record.RecordID(); id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

func (c *Collection[T]) write(ctx context.Context, fn func(records []T) ([]T, error)) error {
	if err := c.writeLocked(ctx, fn); err != nil {
		return err
	}

	c.hookMu.Lock()
	hooks := append([]func(){}, c.onWrite...)
	c.hookMu.Unlock()
	for _, hook := range hooks {
		hook()
	}
	return nil
}

func (c *Collection[T]) writeLocked(ctx context.Context, fn func(records []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := c.load(ctx)
	if res.Status == LoadReadError {
		// Saving on top of an unreadable document would replace it with a partial one
		log.Error().
			Err(res.Err).
			Str("collection", c.name).
			Str("location", c.backend.Location()).
			Msg("Refusing to write over unreadable collection")
		return res.Err
	}

	records, err := fn(res.Records)
	if err != nil {
		return err
	}
	return c.save(ctx, records)
}

func (c *Collection[T]) load(ctx context.Context) LoadResult[T] {
	data, err := c.backend.Read(ctx)
	if errors.Is(err, ErrDocumentNotFound) {
		metrics.StoreOperations.WithLabelValues(c.name, "load", "empty").Inc()
		return LoadResult[T]{Records: []T{}, Status: LoadEmpty}
	}
	if err != nil {
		metrics.StoreOperations.WithLabelValues(c.name, "load", "error").Inc()
		return LoadResult[T]{Records: []T{}, Status: LoadReadError, Err: apperr.StorageRead(c.name, err)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		metrics.StoreOperations.WithLabelValues(c.name, "load", "empty").Inc()
		return LoadResult[T]{Records: []T{}, Status: LoadEmpty}
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		metrics.StoreOperations.WithLabelValues(c.name, "load", "error").Inc()
		return LoadResult[T]{
			Records: []T{},
			Status:  LoadReadError,
			Err:     apperr.StorageRead(c.name, fmt.Errorf("failed to parse document: %w", err)),
		}
	}
	if len(records) == 0 {
		metrics.StoreOperations.WithLabelValues(c.name, "load", "empty").Inc()
		return LoadResult[T]{Records: []T{}, Status: LoadEmpty}
	}

	metrics.StoreOperations.WithLabelValues(c.name, "load", "ok").Inc()
	return LoadResult[T]{Records: records, Status: LoadOK}
}

func (c *Collection[T]) save(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		metrics.StoreOperations.WithLabelValues(c.name, "save", "error").Inc()
		return apperr.StorageWrite(c.name, fmt.Errorf("failed to encode document: %w", err))
	}

	if err := c.backend.Write(ctx, data); err != nil {
		metrics.StoreOperations.WithLabelValues(c.name, "save", "error").Inc()
		log.Error().
			Err(err).
			Str("collection", c.name).
			Str("location", c.backend.Location()).
			Msg("Failed to save collection")
		return apperr.StorageWrite(c.name, err)
	}

	metrics.StoreOperations.WithLabelValues(c.name, "save", "ok").Inc()
	return nil
}

func indexOf[T Record[T]](records []T, id int) int {
	for i, record := range records {
		if record.RecordID() == id {
			return i
		}
	}
	return -1
}
