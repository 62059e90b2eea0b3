// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the delay before firing the onChange callback after the
// last filesystem event. Editors that write then rename a temp file produce
// several events per save.
const defaultDebounce = 500 * time.Millisecond

// defaultIgnores lists path patterns that are always excluded from watching.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

// Watcher monitors library sources and fires a debounced callback when they
// change. Run must be called exactly once.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	patterns []string
	ignores  []string
	stdout   io.Writer
	log      *slog.Logger
	debounce time.Duration
	baseDir  string
	started  atomic.Bool

	// trackMu guards tracked, dirs and closed, and serializes fsw.Add
	// against fsw.Close.
	trackMu sync.RWMutex
	tracked map[string]struct{}
	dirs    map[string]struct{}
	closed  bool
}

// New creates a Watcher from the given Config. It validates the config,
// resolves BaseDir to an absolute path and registers every non-ignored
// directory under it plus the parent directory of each tracked file.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = LibraryPatterns
	}

	ignores := make([]string, 0, len(defaultIgnores)+len(cfg.Ignore))
	ignores = append(ignores, defaultIgnores...)
	ignores = append(ignores, cfg.Ignore...)

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		patterns: patterns,
		ignores:  ignores,
		stdout:   stdout,
		log:      logger,
		debounce: debounce,
		baseDir:  absBase,
		tracked:  make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("watch: close after init failure", "error", closeErr)
		}
		return nil, err
	}
	w.Track(cfg.Files...)

	return w, nil
}

// Track adds files to the tracked set. Files inside BaseDir are already
// covered by the recursive watch; for the rest the parent directory is added.
// Safe to call from OnChange to follow newly reached manifests.
func (w *Watcher) Track(files ...string) {
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			w.log.Warn("watch: skipping file", "path", f, "error", err)
			continue
		}

		w.trackMu.Lock()
		w.tracked[abs] = struct{}{}
		dir := filepath.Dir(abs)
		_, seen := w.dirs[dir]
		if !seen && w.relative(abs) == "" && !w.closed {
			w.dirs[dir] = struct{}{}
			if err := w.fsw.Add(dir); err != nil {
				w.log.Warn("watch: add tracked directory", "path", dir, "error", err)
			}
		}
		w.trackMu.Unlock()
	}
}

// Close releases the fsnotify watcher of a Watcher that will not be Run.
// Track is a no-op for directories once the watcher is closed.
func (w *Watcher) Close() error {
	w.trackMu.Lock()
	defer w.trackMu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}

// Tracked returns the tracked files, sorted.
func (w *Watcher) Tracked() []string {
	w.trackMu.RLock()
	defer w.trackMu.RUnlock()
	return slices.Sorted(maps.Keys(w.tracked))
}

// Run blocks until ctx is cancelled, processing filesystem events and
// dispatching debounced callbacks. It returns nil on clean context
// cancellation and propagates fatal watcher errors.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may be scheduled by time.AfterFunc after ctx is cancelled.
	// At most one callback runs at a time; a busy fire re-arms the timer so
	// pending paths are not lost.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.log.Info("watch: skipping re-resolution, previous run still in progress")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.ClearScreen {
			// ANSI escape: clear screen and move cursor to top-left.
			fmt.Fprint(w.stdout, "\033[2J\033[H")
		}

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.log.Warn("watch: callback error", "error", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		localTimer := timer
		mu.Unlock()
		if localTimer != nil {
			localTimer.Stop()
		}
		if closeErr := w.Close(); closeErr != nil {
			w.log.Warn("watch: close fsnotify", "error", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}

			key, relevant := w.classify(evt.Name)
			if !relevant {
				continue
			}

			// Extend the recursive watch to directories created after startup.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			mu.Lock()
			pending[key] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			// isFatalFsnotifyError is platform-specific (see watcher_fatal_*.go).
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.log.Warn("watch: fsnotify error", "error", err)
		}
	}
}

// classify maps an event path to its pending-set key and reports whether it
// should trigger a callback. Tracked files always trigger; other paths must
// lie under BaseDir, match a pattern and not be ignored.
func (w *Watcher) classify(name string) (string, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		abs = name
	}
	rel := w.relative(abs)

	w.trackMu.RLock()
	_, tracked := w.tracked[abs]
	w.trackMu.RUnlock()

	switch {
	case tracked && rel != "":
		return filepath.ToSlash(rel), true
	case tracked:
		return abs, true
	case rel == "":
		return "", false
	case w.isIgnored(rel) || !w.matchesPatterns(rel):
		return "", false
	default:
		return filepath.ToSlash(rel), true
	}
}

// relative returns abs relative to BaseDir, or "" when abs is outside it.
func (w *Watcher) relative(abs string) string {
	rel, err := filepath.Rel(w.baseDir, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return rel
}

// addDirectories walks BaseDir and adds every non-ignored directory to the
// fsnotify watcher. Pattern filtering happens when events arrive.
func (w *Watcher) addDirectories() error {
	walkErr := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			// Inaccessible directories are skipped rather than aborting the walk.
			w.log.Warn("watch: skipping inaccessible path", "path", path, "error", walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.baseDir, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}

		if rel != "." && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir adds path to the fsnotify watcher if it is a non-ignored
// directory under BaseDir.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	rel := w.relative(path)
	if rel == "" || w.isIgnored(rel) || w.isIgnored(rel+"/") {
		return
	}

	if addErr := w.fsw.Add(path); addErr != nil {
		w.log.Warn("watch: add new directory", "path", path, "error", addErr)
	}
}

// isIgnored returns true if rel (relative to BaseDir) matches any ignore
// pattern.
func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

// matchesPatterns returns true if rel (relative to BaseDir) matches at least
// one watch pattern.
func (w *Watcher) matchesPatterns(rel string) bool {
	return matchAny(w.patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}
