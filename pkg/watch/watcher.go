// Package watch reloads rule files when they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mnohosten/ptstem/pkg/registry"
	"github.com/mnohosten/ptstem/pkg/ruledef"
)

const (
	// eventChannelBuffer is the size of the watch event channel
	eventChannelBuffer = 100

	// DefaultDebounce is how long changes are collected before being applied
	DefaultDebounce = 250 * time.Millisecond
)

// Op is the kind of change applied to an algorithm
type Op string

// OpRegister, OpReload and OpRemove enumerate the applied changes
const (
	OpRegister Op = "register"
	OpReload   Op = "reload"
	OpRemove   Op = "remove"
)

// Event reports a change that was applied to the registry
type Event struct {
	Algorithm string
	Path      string
	Op        Op
}

// Evictor drops a cached profile and anything derived from it
type Evictor interface {
	Evict(algorithm string) bool
}

// Config configures a Watcher
type Config struct {
	Dirs     []string
	Pattern  string        // rule file glob relative to each dir, ruledef.DefaultPattern when empty
	Debounce time.Duration // DefaultDebounce when zero
}

// Watcher watches rule directories. Modified or removed files evict the
// cached profile so the next request reloads it; new files register a
// lazy loader.
type Watcher struct {
	config   Config
	registry *registry.Registry
	evictor  Evictor
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// Debouncing: collect changes before applying them
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// files maps each algorithm name to the rule file registered for it
	filesMu sync.Mutex
	files   map[string]string

	events        chan Event
	droppedEvents atomic.Int64
}

// New creates a watcher that registers new rule files on reg and evicts
// changed ones through evictor (reg itself when nil)
func New(config Config, reg *registry.Registry, evictor Evictor, logger *slog.Logger) (*Watcher, error) {
	if len(config.Dirs) == 0 {
		return nil, errors.New("no rule directories to watch")
	}
	if config.Pattern == "" {
		config.Pattern = ruledef.DefaultPattern
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if evictor == nil {
		evictor = reg
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		config:   config,
		registry: reg,
		evictor:  evictor,
		watcher:  fsw,
		logger:   logger,
		pending:  make(map[string]fsnotify.Op),
		files:    make(map[string]string),
		events:   make(chan Event, eventChannelBuffer),
	}, nil
}

// Events returns the channel of applied changes. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// DroppedEvents is the number of events not delivered because nobody read them
func (w *Watcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

// Start begins watching every configured directory
func (w *Watcher) Start(ctx context.Context) error {
	sources, err := ruledef.Discover(w.config.Dirs, w.config.Pattern)
	if err != nil {
		return err
	}
	w.filesMu.Lock()
	for _, src := range sources {
		w.files[src.Name] = src.Path
	}
	w.filesMu.Unlock()

	for _, dir := range w.config.Dirs {
		if err := w.addWatchesRecursive(dir); err != nil {
			return err
		}
	}

	go w.processEvents(ctx)

	w.logger.Info("Rule watcher started",
		slog.Any("dirs", w.config.Dirs),
		slog.String("pattern", w.config.Pattern),
		slog.Duration("debounce", w.config.Debounce))
	return nil
}

// Stop stops the watcher.
// The events channel is closed by processEvents when it exits.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		// Skip hidden directories
		base := filepath.Base(path)
		if strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", slog.String("path", path), slog.String("error", err.Error()))
		} else {
			w.logger.Debug("Watching directory", slog.String("path", path))
		}
		return nil
	})
}

// processEvents handles fsnotify events with debouncing
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// relative returns path relative to the watched dir containing it
func (w *Watcher) relative(path string) (string, bool) {
	for _, dir := range w.config.Dirs {
		rel, err := filepath.Rel(dir, path)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return rel, true
		}
	}
	return "", false
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addWatchesRecursive(path); err != nil {
				w.logger.Warn("Failed to watch new directory", slog.String("path", path), slog.String("error", err.Error()))
			}
			return
		}
	}

	rel, ok := w.relative(path)
	if !ok || !ruledef.Matches(w.config.Pattern, rel) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Rule file change detected", slog.String("path", rel), slog.String("op", event.Op.String()))
}

func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		w.apply(path, op)
	}
}

// apply updates the registry for one debounced change
func (w *Watcher) apply(path string, op fsnotify.Op) {
	name := ruledef.AlgorithmName(path)
	_, statErr := os.Stat(path)
	exists := statErr == nil

	w.filesMu.Lock()
	defer w.filesMu.Unlock()

	switch {
	case !exists:
		// Removed or renamed away: drop the cached profile. The loader stays
		// registered so a file that comes back is picked up again.
		w.evictor.Evict(name)
		w.send(Event{Algorithm: name, Path: path, Op: OpRemove})

	case w.files[name] != path:
		// New file, possibly taking over a built-in or another file's name
		w.evictor.Evict(name)
		replaced := w.registry.Unregister(name)
		if err := w.registry.Register(name, ruledef.FileLoader{Path: path}); err != nil {
			w.logger.Warn("Failed to register rule file", slog.String("path", path), slog.String("error", err.Error()))
			return
		}
		w.files[name] = path
		w.logger.Info("Registered algorithm",
			slog.String("algorithm", name),
			slog.String("path", path),
			slog.Bool("replaced", replaced))
		w.send(Event{Algorithm: name, Path: path, Op: OpRegister})

	default:
		w.evictor.Evict(name)
		w.logger.Info("Rule file changed, profile will reload", slog.String("algorithm", name), slog.String("op", op.String()))
		w.send(Event{Algorithm: name, Path: path, Op: OpReload})
	}
}

func (w *Watcher) send(event Event) {
	select {
	case w.events <- event:
	default:
		w.droppedEvents.Add(1)
	}
}
