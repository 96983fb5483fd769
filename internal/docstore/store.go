// Package docstore is the document persistence boundary: path addressed JSON
// documents with whole-document writes and push subscriptions.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/partsdesk/partsdesk/internal/db/models"
	"github.com/partsdesk/partsdesk/internal/db/repos"
	"github.com/partsdesk/partsdesk/internal/events"
	"github.com/partsdesk/partsdesk/internal/logger"
	"github.com/partsdesk/partsdesk/internal/metrics"
)

var (
	// ErrNotFound is returned when an operation requires an existing document
	ErrNotFound = models.ErrDocumentNotFound
	// ErrVersionConflict is returned by SetIfVersion when the stored version moved on
	ErrVersionConflict = models.ErrVersionConflict
	// ErrClosed is returned by writes after Close
	ErrClosed = errors.New("document store is closed")
)

// SnapshotFunc receives document snapshots. err is set when the snapshot could not be read.
type SnapshotFunc func(snap Snapshot, err error)

// CollectionFunc receives the full content of a collection after every change to it
type CollectionFunc func(snaps []Snapshot, err error)

// Unsubscribe stops a subscription
type Unsubscribe = events.Unsubscribe

// Store is a document store client. It must be started before use and
// closed on shutdown, which tears down every open subscription.
type Store struct {
	repo   *repos.DocumentRepository
	bus    *events.Bus
	closed chan struct{}
}

// New creates a store over the given database
func New(db *gorm.DB) *Store {
	return &Store{
		repo:   repos.NewDocumentRepository(db),
		bus:    events.NewBus(),
		closed: make(chan struct{}),
	}
}

// Start starts snapshot delivery
func (s *Store) Start(ctx context.Context) {
	s.bus.Start(ctx)
}

// Close stops snapshot delivery and rejects further writes
func (s *Store) Close() {
	select {
	case <-s.closed:
		return
	default:
		close(s.closed)
	}
	s.bus.Close()
	metrics.SubscriptionsActive.Set(0)
	logger.Info("Document store closed")
}

func (s *Store) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Get reads one document. A missing document is returned with Exists false, not an error.
func (s *Store) Get(ctx context.Context, path string) (Snapshot, error) {
	doc, err := s.repo.Get(ctx, path)
	if errors.Is(err, models.ErrDocumentNotFound) {
		return Snapshot{Path: path}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get %s: %w", path, err)
	}
	return snapshotOf(doc), nil
}

// List reads every document directly inside a collection
func (s *Store) List(ctx context.Context, collection string) ([]Snapshot, error) {
	docs, err := s.repo.ListByCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	snaps := make([]Snapshot, 0, len(docs))
	for i := range docs {
		snaps = append(snaps, snapshotOf(&docs[i]))
	}
	return snaps, nil
}

// Set writes value as the document body. Without merge the body is
// replaced unconditionally and the last writer wins. With merge the fields of
// value are overlaid on the stored body.
func (s *Store) Set(ctx context.Context, path string, value interface{}, merge bool) (Snapshot, error) {
	if !merge {
		return s.overwrite(ctx, path, value)
	}
	return s.write(ctx, "set", path, nil, func(current *models.Document) (map[string]interface{}, error) {
		fields, err := fieldMap(value)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return fields, nil
		}
		stored := map[string]interface{}{}
		if err := json.Unmarshal(current.Data, &stored); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		mergeFields(stored, fields)
		return stored, nil
	})
}

// SetIfVersion replaces the document body only if the stored version equals
// version (0 meaning the document must not exist yet).
func (s *Store) SetIfVersion(ctx context.Context, path string, value interface{}, version uint64) (Snapshot, error) {
	return s.write(ctx, "set_if_version", path, &version, func(*models.Document) (map[string]interface{}, error) {
		return fieldMap(value)
	})
}

// UpdateFields sets the given fields on an existing document. Keys may use
// dots to address nested fields, for example "weeks.2024-W01".
func (s *Store) UpdateFields(ctx context.Context, path string, fields map[string]interface{}) (Snapshot, error) {
	return s.write(ctx, "update", path, nil, func(current *models.Document) (map[string]interface{}, error) {
		if current == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		stored := map[string]interface{}{}
		if err := json.Unmarshal(current.Data, &stored); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		for key, value := range fields {
			if err := setField(stored, key, value); err != nil {
				return nil, err
			}
		}
		return stored, nil
	})
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *Store) Delete(ctx context.Context, path string) error {
	if s.isClosed() {
		return ErrClosed
	}
	doc, err := s.repo.Delete(ctx, path)
	metrics.DocumentWritesTotal.WithLabelValues("delete", metrics.Result(err)).Inc()
	if errors.Is(err, models.ErrDocumentNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	s.publishDeleted(doc)
	return nil
}

// DeleteCollection removes every document directly inside a collection
func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	if s.isClosed() {
		return ErrClosed
	}
	docs, err := s.repo.DeleteCollection(ctx, collection)
	metrics.DocumentWritesTotal.WithLabelValues("delete_collection", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", collection, err)
	}
	for i := range docs {
		s.publishDeleted(&docs[i])
	}
	return nil
}

// Subscribe calls fn with the current state of the document and again after
// every committed change to it, in commit order.
func (s *Store) Subscribe(path string, fn SnapshotFunc) Unsubscribe {
	filter := func(e events.Event) bool { return e.Path == path }
	handler := func(ctx context.Context, _ events.Event) error {
		snap, err := s.Get(ctx, path)
		metrics.SnapshotsDeliveredTotal.WithLabelValues("document").Inc()
		fn(snap, err)
		return err
	}
	return s.subscribe(filter, handler, events.Event{Type: events.EventInitial, Path: path, Collection: models.CollectionOf(path)})
}

// SubscribeCollection calls fn with every document of the collection, first
// immediately and then after every change to any of them.
func (s *Store) SubscribeCollection(collection string, fn CollectionFunc) Unsubscribe {
	filter := func(e events.Event) bool { return e.Collection == collection }
	handler := func(ctx context.Context, _ events.Event) error {
		snaps, err := s.List(ctx, collection)
		metrics.SnapshotsDeliveredTotal.WithLabelValues("collection").Inc()
		fn(snaps, err)
		return err
	}
	return s.subscribe(filter, handler, events.Event{Type: events.EventInitial, Collection: collection})
}

func (s *Store) subscribe(filter events.Filter, handler events.Handler, initial events.Event) Unsubscribe {
	if s.isClosed() {
		return func() {}
	}
	unsubscribe := s.bus.Subscribe(filter, handler, initial)
	metrics.SubscriptionsActive.Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			if !s.isClosed() {
				metrics.SubscriptionsActive.Dec()
			}
		})
	}
}

type buildFunc func(current *models.Document) (map[string]interface{}, error)

// maxMergeAttempts bounds the retries of an unversioned read-modify-write
// that lost a race with another writer
const maxMergeAttempts = 5

func (s *Store) overwrite(ctx context.Context, path string, value interface{}) (Snapshot, error) {
	if s.isClosed() {
		return Snapshot{}, ErrClosed
	}
	fields, err := fieldMap(value)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to encode %s: %w", path, err)
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to encode %s: %w", path, err)
	}
	doc, err := s.repo.Overwrite(ctx, path, data)
	metrics.DocumentWritesTotal.WithLabelValues("set", metrics.Result(err)).Inc()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.publishWritten(doc)
	return snapshotOf(doc), nil
}

func (s *Store) write(ctx context.Context, kind, path string, version *uint64, build buildFunc) (Snapshot, error) {
	if s.isClosed() {
		return Snapshot{}, ErrClosed
	}
	fn := func(current *models.Document) ([]byte, error) {
		fields, err := build(current)
		if err != nil {
			return nil, err
		}
		return json.Marshal(fields)
	}

	doc, err := s.repo.Write(ctx, path, fn, version)
	// Without an expected version a conflict only means the document changed
	// under the merge, so it is recomputed from the newer state.
	for attempt := 1; version == nil && errors.Is(err, models.ErrVersionConflict) && attempt < maxMergeAttempts; attempt++ {
		doc, err = s.repo.Write(ctx, path, fn, nil)
	}
	metrics.DocumentWritesTotal.WithLabelValues(kind, metrics.Result(err)).Inc()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.publishWritten(doc)
	return snapshotOf(doc), nil
}

func (s *Store) publishWritten(doc *models.Document) {
	s.bus.Publish(events.Event{
		Type:       events.EventDocumentWritten,
		Path:       doc.Path,
		Collection: doc.Collection,
		Version:    doc.Version,
	})
}

func (s *Store) publishDeleted(doc *models.Document) {
	s.bus.Publish(events.Event{
		Type:       events.EventDocumentDeleted,
		Path:       doc.Path,
		Collection: doc.Collection,
		Version:    doc.Version,
	})
}
