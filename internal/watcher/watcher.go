// Package watcher turns file system events under the plugins directory into
// debounced rescans.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// DefaultDebounce is how long the watcher waits after the last change before
// calling back.
const DefaultDebounce = 2 * time.Second

// Service watches a plugins directory recursively.
type Service struct {
	root          string
	onChange      func(changed []string)
	watcher       *fsnotify.Watcher
	changedDirs   map[string]bool
	mu            sync.Mutex
	debounceTimer *time.Timer
	debounceDelay time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// New creates a watcher for root. onChange receives the plugin directories
// (immediate children of root) touched since the previous call.
func New(root string, debounce time.Duration, onChange func(changed []string)) *Service {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Service{
		root:          root,
		onChange:      onChange,
		changedDirs:   make(map[string]bool),
		debounceDelay: debounce,
		stopChan:      make(chan struct{}),
	}
}

// Start begins watching. The root must exist.
func (w *Service) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// Files are watched via their parent directory
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return err
	}

	log.Infof("File watcher started for plugins: %s", w.root)
	go w.processEvents()
	return nil
}

// Stop stops the watcher and drops any pending callback.
func (w *Service) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
		if w.watcher != nil {
			err = w.watcher.Close()
		}
	})
	return err
}

func (w *Service) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("File watcher error: %v", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *Service) handleEvent(event fsnotify.Event) {
	// Chmod fires on plain reads in some editors and file managers.
	if event.Op == fsnotify.Chmod {
		return
	}

	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				log.Warnf("Failed to watch new directory %s: %v", event.Name, err)
			}
		}
	}

	w.Trigger(event.Name)
}

// Trigger records path as changed and restarts the debounce timer.
func (w *Service) Trigger(path string) {
	dir, ok := w.pluginDir(path)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.stopChan:
		return
	default:
	}
	w.changedDirs[dir] = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.flush)
}

// pluginDir maps a path to the plugin directory it belongs to.
func (w *Service) pluginDir(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	first := strings.Split(filepath.ToSlash(rel), "/")[0]
	if strings.HasPrefix(first, ".") {
		return "", false
	}
	return filepath.Join(w.root, first), true
}

func (w *Service) flush() {
	w.mu.Lock()
	if len(w.changedDirs) == 0 {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.changedDirs))
	for dir := range w.changedDirs {
		changed = append(changed, dir)
	}
	w.changedDirs = make(map[string]bool)
	w.mu.Unlock()

	sort.Strings(changed)
	log.Infof("File watcher detected changes in %d plugin director(ies)", len(changed))
	w.onChange(changed)
}
