// Package watch re-runs a callback when watched template files change
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDelay is how long the watcher waits for writes to settle
const DefaultDelay = 100 * time.Millisecond

// Config holds watcher settings
type Config struct {
	// Paths are files or directories to watch. Directories are not recursed.
	Paths []string

	// Patterns filter file names in watched directories, e.g. "*.txt".
	// Explicitly listed files always match.
	Patterns []string

	// Ignored file name patterns
	Ignored []string

	// Delay is the debounce duration; zero means DefaultDelay
	Delay time.Duration

	Logger *zap.Logger
}

// FileWatcher monitors file system changes and triggers callbacks
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	config    Config
	files     map[string]bool
	dirs      map[string]bool
	onChange  func([]string) error
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewFileWatcher creates a new file watcher instance. onChange receives the
// changed paths sorted; its errors are logged.
func NewFileWatcher(config Config, onChange func([]string) error) (*FileWatcher, error) {
	if len(config.Paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}
	if config.Delay <= 0 {
		config.Delay = DefaultDelay
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fw := &FileWatcher{
		debouncer: NewDebouncer(config.Delay),
		config:    config,
		files:     make(map[string]bool),
		dirs:      make(map[string]bool),
		onChange:  onChange,
		logger:    logger.Named("watch"),
		stopChan:  make(chan struct{}),
	}

	if err := fw.resolvePaths(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.watcher = watcher

	fw.debouncer.SetCallback(func(files []string) {
		if err := fw.onChange(files); err != nil {
			fw.logger.Warn("error handling file changes", zap.Error(err))
		}
	})

	return fw, nil
}

// resolvePaths splits the configured paths into watched directories and
// explicitly named files
func (fw *FileWatcher) resolvePaths() error {
	for _, path := range fw.config.Paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}

		if info.IsDir() {
			fw.dirs[abs] = true
		} else {
			fw.files[abs] = true
		}
	}

	return nil
}

// watchList returns the directories to add to fsnotify. Files are watched through
// their directory so editors that replace files on save don't end the watch.
func (fw *FileWatcher) watchList() []string {
	seen := make(map[string]bool)
	for dir := range fw.dirs {
		seen[dir] = true
	}
	for file := range fw.files {
		seen[filepath.Dir(file)] = true
	}

	list := make([]string, 0, len(seen))
	for dir := range seen {
		list = append(list, dir)
	}
	sort.Strings(list)
	return list
}

// Start begins watching the file system
func (fw *FileWatcher) Start() error {
	for _, dir := range fw.watchList() {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		fw.logger.Debug("watching directory", zap.String("dir", dir))
	}

	fw.wg.Add(1)
	go fw.watch()

	return nil
}

// Stop stops the file watcher. Pending changes are dropped.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		close(fw.stopChan)
		fw.wg.Wait()
		fw.debouncer.Stop()
		err = fw.watcher.Close()
	})
	return err
}

// watch is the main event loop
func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if fw.matches(event.Name) {
				fw.logger.Debug("file changed", zap.String("file", event.Name))
				fw.debouncer.Add(event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watch error", zap.Error(err))

		case <-fw.stopChan:
			return
		}
	}
}

// matches reports whether a changed path is one the caller cares about
func (fw *FileWatcher) matches(path string) bool {
	if fw.files[path] {
		return true
	}
	// siblings of named files are only seen because their directory is watched
	if !fw.dirs[filepath.Dir(path)] {
		return false
	}
	return !fw.shouldIgnore(path) && fw.matchesPattern(path)
}

// shouldIgnore checks if a file path should be ignored
func (fw *FileWatcher) shouldIgnore(path string) bool {
	baseName := filepath.Base(path)

	// hidden files and editor swap files
	if strings.HasPrefix(baseName, ".") || strings.HasSuffix(baseName, "~") {
		return true
	}

	for _, pattern := range fw.config.Ignored {
		if matched, _ := filepath.Match(pattern, baseName); matched {
			return true
		}
	}

	return false
}

// matchesPattern checks if a file matches any of the watch patterns
func (fw *FileWatcher) matchesPattern(path string) bool {
	if len(fw.config.Patterns) == 0 {
		return true
	}

	for _, pattern := range fw.config.Patterns {
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}

	return false
}

// Debouncer collects file changes and triggers callbacks after a delay
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
	stopped  bool
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
	}
}

// Add adds a file to the debouncer
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}

	d.files[file] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.duration, d.flush)
}

// flush triggers the callback with accumulated files
func (d *Debouncer) flush() {
	d.mutex.Lock()
	if d.stopped || len(d.files) == 0 {
		d.mutex.Unlock()
		return
	}

	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	sort.Strings(files)

	d.files = make(map[string]struct{})
	callback := d.callback
	d.mutex.Unlock()

	// outside the lock so the callback may take its time while new changes queue
	if callback != nil {
		callback(files)
	}
}

// SetCallback sets the callback function
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop stops the debouncer
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
}
