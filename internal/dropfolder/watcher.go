package dropfolder

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"media-intake/internal/filesystem"
	"media-intake/internal/intake"
	"media-intake/internal/logging"
	"media-intake/internal/metrics"
)

var log = logging.For("dropfolder")

// DefaultSettle is the quiet period used when Config.Settle is zero.
const DefaultSettle = 2 * time.Second

// Config configures a Watcher.
type Config struct {
	Dir    string
	Settle time.Duration
	Retry  filesystem.RetryConfig
}

// Watcher delivers settled files under Dir as OriginDrop batches.
type Watcher struct {
	dir    string
	settle time.Duration
	retry  filesystem.RetryConfig
	fsw    *fsnotify.Watcher

	mu          sync.Mutex
	subscribers map[int]func(intake.Batch)
	nextID      int

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New starts watching cfg.Dir and every non-hidden directory below it.
func New(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("dropfolder: directory is required")
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.Retry == (filesystem.RetryConfig{}) {
		cfg.Retry = filesystem.DefaultRetryConfig()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		dir:         filepath.Clean(cfg.Dir),
		settle:      cfg.Settle,
		retry:       cfg.Retry,
		fsw:         fsw,
		subscribers: make(map[int]func(intake.Batch)),
		done:        make(chan struct{}),
	}

	if err := w.addTree(w.dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	log.Debug("watching %s (%d directories, settle %v)", w.dir, len(fsw.WatchList()), w.settle)

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Dir returns the watched root.
func (w *Watcher) Dir() string {
	return w.dir
}

// Subscribe registers deliver for every future batch. Batches are delivered
// on the watcher goroutine, one at a time.
func (w *Watcher) Subscribe(deliver func(intake.Batch)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subscribers[id] = deliver
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.subscribers, id)
		w.mu.Unlock()
	}
}

// Close stops the watcher. Pending files that have not settled are dropped.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
		metrics.DropFolderWatchedDirectories.Set(0)
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(tickInterval(w.settle))
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event, pending)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error("watcher error: %v", err)
			metrics.DropFolderErrors.Inc()

		case now := <-ticker.C:
			if settled(pending, now, w.settle) {
				w.flush(pending)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, pending map[string]time.Time) {
	if w.hidden(event.Name) {
		return
	}
	metrics.DropFolderEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := filesystem.Stat(event.Name, w.retry)
		if err != nil {
			return
		}
		now := time.Now()
		if !info.IsDir() {
			if info.Mode().IsRegular() {
				pending[event.Name] = now
			}
			return
		}

		// Files can land in a new directory before it is watched.
		if err := w.addTree(event.Name); err != nil {
			log.Warn("failed to watch new directory %s: %v", event.Name, err)
			metrics.DropFolderErrors.Inc()
		}
		files, err := filesystem.Expand([]string{event.Name}, w.retry)
		if err != nil {
			log.Warn("failed to list new directory %s: %v", event.Name, err)
			metrics.DropFolderErrors.Inc()
			return
		}
		for _, f := range files {
			pending[f] = now
		}

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		delete(pending, event.Name)
		prefix := event.Name + string(filepath.Separator)
		for path := range pending {
			if strings.HasPrefix(path, prefix) {
				delete(pending, path)
			}
		}
	}
}

// flush reads every pending file and delivers them as one batch.
func (w *Watcher) flush(pending map[string]time.Time) {
	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	clear(pending)
	slices.Sort(paths)

	files := make([]intake.File, 0, len(paths))
	for _, path := range paths {
		content, err := filesystem.ReadFile(path, w.retry)
		if err != nil {
			log.Warn("skipping %s: %v", path, err)
			metrics.DropFolderErrors.Inc()
			continue
		}
		files = append(files, intake.DetectFile(filepath.Base(path), "", content))
	}
	if len(files) == 0 {
		return
	}

	w.mu.Lock()
	subs := make([]func(intake.Batch), 0, len(w.subscribers))
	for _, deliver := range w.subscribers {
		subs = append(subs, deliver)
	}
	w.mu.Unlock()

	if len(subs) == 0 {
		log.Debug("no subscribers, dropping batch of %d files", len(files))
		return
	}

	metrics.DropFolderBatchesTotal.Inc()
	log.Debug("delivering batch of %d files", len(files))
	for _, deliver := range subs {
		deliver(intake.Batch{Origin: intake.OriginDrop, Files: slices.Clone(files)})
	}
}

// addTree watches root and every non-hidden directory below it.
func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
	metrics.DropFolderWatchedDirectories.Set(float64(len(w.fsw.WatchList())))
	return err
}

// hidden reports whether any element of path below the root starts with a dot.
func (w *Watcher) hidden(path string) bool {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func settled(pending map[string]time.Time, now time.Time, settle time.Duration) bool {
	if len(pending) == 0 {
		return false
	}
	for _, last := range pending {
		if now.Sub(last) < settle {
			return false
		}
	}
	return true
}

func tickInterval(settle time.Duration) time.Duration {
	tick := settle / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	return tick
}

func eventType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Chmod):
		return "chmod"
	default:
		return "unknown"
	}
}
