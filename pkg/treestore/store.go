// Package treestore keeps one ordered tree behind a lock and persists it to a
// tree file, with logging, metrics and tracing around every operation.
package treestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/ordtree/pkg/observability"
	"github.com/Sumatoshi-tech/ordtree/pkg/ordtree"
)

// Sentinel errors.
var (
	ErrEmptyPath = errors.New("store path is empty")
	ErrClosed    = errors.New("store is closed")
)

// tmpSuffix names the file a flush writes before renaming it over the tree file.
const tmpSuffix = ".tmp"

// Options configures a Store.
type Options struct {
	// Path is the tree file. It is loaded on Open when it exists.
	Path string

	// Compress selects the LZ4 framed variant of the tree file.
	Compress bool

	// MaxNodes caps the number of nodes; zero means unlimited.
	MaxNodes int

	// Logger receives store events. Nil discards them.
	Logger *slog.Logger

	// Metrics receives operation counters and tree gauges. Nil disables them.
	Metrics *observability.TreeMetrics

	// Tracer opens spans on mutations and persistence. Nil uses a no-op tracer.
	Tracer trace.Tracer
}

// Stats describes the current tree.
type Stats struct {
	Size   int
	Depth  int
	Min    int64
	Max    int64
	HasMin bool
}

// Store is a tree of int64 payloads shared by concurrent callers. Reads share
// the lock, mutations and persistence take it exclusively.
type Store struct {
	mu           sync.RWMutex
	opts         Options
	tree         *ordtree.Tree[int64]
	registration metric.Registration
	dirty        bool
	closed       bool
}

var codec = ordtree.Int64Codec{}

// Open loads the tree file at opts.Path, or starts an empty tree when it does
// not exist yet.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, ErrEmptyPath
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if opts.Tracer == nil {
		opts.Tracer = nooptrace.NewTracerProvider().Tracer(observability.ScopeName)
	}

	ctx, span := opts.Tracer.Start(ctx, "treestore.Open", trace.WithAttributes(
		attribute.String("path", opts.Path),
		attribute.Bool("compress", opts.Compress),
	))
	defer span.End()

	tree, err := load(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")

		return nil, err
	}

	store := &Store{opts: opts, tree: tree}

	store.registration, err = opts.Metrics.ObserveTree(store.snapshot)
	if err != nil {
		tree.Delete()

		return nil, fmt.Errorf("observe tree: %w", err)
	}

	return store, nil
}

func load(ctx context.Context, opts Options) (*ordtree.Tree[int64], error) {
	allocator := ordtree.NewAllocator[int64](opts.MaxNodes)
	started := time.Now()

	var (
		tree *ordtree.Tree[int64]
		err  error
	)

	if opts.Compress {
		tree, err = ordtree.LoadCompressed[int64](opts.Path, codec, allocator)
	} else {
		tree, err = ordtree.Load[int64](opts.Path, codec, allocator)
	}

	if errors.Is(err, fs.ErrNotExist) {
		opts.Logger.InfoContext(ctx, "tree file not found, starting empty", "path", opts.Path)

		return ordtree.NewTree(allocator), nil
	}

	opts.Metrics.RecordPersist(ctx, observability.OpLoad, time.Since(started), err)

	if err != nil {
		if tree != nil {
			tree.Delete()
		}

		return nil, fmt.Errorf("load store: %w", err)
	}

	opts.Logger.InfoContext(ctx, "tree loaded",
		"path", opts.Path,
		"nodes", humanize.Comma(int64(tree.Len())),
		"elapsed", time.Since(started),
	)

	return tree, nil
}

// Insert adds key with value. It fails with ordtree.ErrAllocatorFull when
// MaxNodes is reached, leaving the tree unchanged.
func (s *Store) Insert(ctx context.Context, key, value int64) error {
	_, span := s.opts.Tracer.Start(ctx, "treestore.Insert", trace.WithAttributes(attribute.Int64("key", key)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	err := s.tree.Insert(key, value)
	s.opts.Metrics.RecordInsert(ctx, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")

		return fmt.Errorf("insert key %d: %w", key, err)
	}

	s.dirty = true

	return nil
}

// Lookup returns the value of the first node with key on the search path.
func (s *Store) Lookup(ctx context.Context, key int64) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, false
	}

	value, ok := s.tree.Lookup(key)
	s.opts.Metrics.RecordLookup(ctx, ok)

	return value, ok
}

// Remove deletes the node Lookup would report for key.
func (s *Store) Remove(ctx context.Context, key int64) bool {
	_, span := s.opts.Tracer.Start(ctx, "treestore.Remove", trace.WithAttributes(attribute.Int64("key", key)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	removed := s.tree.Remove(key)
	s.opts.Metrics.RecordRemove(ctx, removed)
	span.SetAttributes(attribute.Bool("removed", removed))

	if removed {
		s.dirty = true
	}

	return removed
}

// Stats returns the size, depth and key range of the tree.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Stats{}
	}

	stats := Stats{
		Size:  s.tree.Size(),
		Depth: s.tree.Depth(),
	}

	minEntry, ok := s.tree.Min()
	if ok {
		maxEntry, _ := s.tree.Max()

		stats.Min = minEntry.Key
		stats.Max = maxEntry.Key
		stats.HasMin = true
	}

	return stats
}

// Entries returns every record in key order.
func (s *Store) Entries() []ordtree.Entry[int64] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil
	}

	return s.tree.Entries()
}

// Dirty reports whether the tree changed since it was loaded or last flushed.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dirty
}

// Path returns the tree file location.
func (s *Store) Path() string {
	return s.opts.Path
}

// Ready returns ErrClosed once the store has been closed.
func (s *Store) Ready(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}

	return nil
}

// Flush writes the tree to Path. The file is replaced atomically.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	return s.flushLocked(ctx)
}

func (s *Store) flushLocked(ctx context.Context) error {
	ctx, span := s.opts.Tracer.Start(ctx, "treestore.Flush", trace.WithAttributes(attribute.String("path", s.opts.Path)))
	defer span.End()

	started := time.Now()
	err := s.save()
	elapsed := time.Since(started)

	s.opts.Metrics.RecordPersist(ctx, observability.OpFlush, elapsed, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "flush failed")

		return fmt.Errorf("flush store: %w", err)
	}

	s.dirty = false

	attrs := []any{
		"path", s.opts.Path,
		"nodes", humanize.Comma(int64(s.tree.Len())),
		"elapsed", elapsed,
	}

	info, statErr := os.Stat(s.opts.Path)
	if statErr == nil {
		attrs = append(attrs, "size", humanize.Bytes(uint64(info.Size())))
	}

	s.opts.Logger.InfoContext(ctx, "tree flushed", attrs...)

	return nil
}

func (s *Store) save() error {
	tmpPath := s.opts.Path + tmpSuffix

	var err error
	if s.opts.Compress {
		err = s.tree.SaveCompressed(tmpPath, codec)
	} else {
		err = s.tree.Save(tmpPath, codec)
	}

	if err != nil {
		removeErr := os.Remove(tmpPath)
		if removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			return errors.Join(err, fmt.Errorf("remove temp file: %w", removeErr))
		}

		return err
	}

	err = os.Rename(tmpPath, s.opts.Path)
	if err != nil {
		return fmt.Errorf("replace tree file: %w", err)
	}

	return nil
}

// Close flushes a dirty tree, then releases it. Later calls are no-ops.
// When the flush fails the store stays open with the tree intact, so the
// caller can fix the cause and call Flush or Close again.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	if s.dirty {
		err := s.flushLocked(ctx)
		if err != nil {
			return err
		}
	}

	var unregisterErr error
	if s.registration != nil {
		unregisterErr = s.registration.Unregister()
	}

	s.tree.Delete()
	s.closed = true

	s.opts.Logger.DebugContext(ctx, "store closed", "path", s.opts.Path)

	if unregisterErr != nil {
		return fmt.Errorf("unregister tree gauges: %w", unregisterErr)
	}

	return nil
}

// snapshot feeds the size and depth gauges. It runs on the metrics collection
// path, never while the store lock is held by the same goroutine.
func (s *Store) snapshot() observability.TreeSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return observability.TreeSnapshot{}
	}

	return observability.TreeSnapshot{
		Size:  int64(s.tree.Len()),
		Depth: int64(s.tree.Depth()),
	}
}
