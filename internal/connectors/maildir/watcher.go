// Package maildir imports mail files from a directory tree and keeps
// importing as new files arrive.
//
// A file is treated as mail when it ends in .eml or sits in a Maildir "cur"
// or "new" directory. The folder is the first path element below the root,
// so root/Work/new/123 files into "Work". Maildir++ folders drop their
// leading dot (root/.Work files into "Work"). Files directly under the root,
// or under root/cur and root/new, go to the default folder. Hidden files are
// ignored.
package maildir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/pimsearch/internal/logger"
)

// DefaultDebounce is how long the watcher waits for more changes before importing.
const DefaultDebounce = 500 * time.Millisecond

// FileImporter imports mail files into a folder.
type FileImporter interface {
	ImportFiles(ctx context.Context, paths []string, folder string) (int, error)
}

// Watcher scans and watches one mail directory.
type Watcher struct {
	root          string
	defaultFolder string
	importer      FileImporter
	debounce      time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
}

// New creates a watcher for root that files mail through importer.
func New(root, defaultFolder string, importer FileImporter) *Watcher {
	return &Watcher{
		root:          filepath.Clean(root),
		defaultFolder: defaultFolder,
		importer:      importer,
		debounce:      DefaultDebounce,
		pending:       make(map[string]struct{}),
	}
}

// SetDebounce changes the quiet period before pending files are imported.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Scan imports every mail file currently below the root.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	var paths []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && !isHidden(d.Name()) && w.isMailFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning %s: %w", w.root, err)
	}

	logger.Info("Found %d mail files in %s", len(paths), w.root)
	return w.importPaths(ctx, paths)
}

// Watch imports new and changed mail files until ctx is done.
// Directories created while watching are watched too.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warn("Failed to close watcher: %v", err)
		}
	}()

	if err := w.addTree(watcher, w.root); err != nil {
		return err
	}
	logger.Info("Watching %s for new mail", w.root)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush(context.WithoutCancel(ctx))
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(watcher, event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// handleEvent queues mail files touched by event. It returns true when
// something was queued.
func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && watcher != nil {
			if err := w.addTree(watcher, event.Name); err != nil {
				logger.Warn("Cannot watch %s: %v", event.Name, err)
			}
		}
		return false
	}
	if isHidden(info.Name()) || !w.isMailFile(event.Name) {
		return false
	}

	w.mu.Lock()
	w.pending[event.Name] = struct{}{}
	w.mu.Unlock()
	logger.Debug("Queued %s (%s)", event.Name, event.Op)
	return true
}

// flush imports the queued files.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	slices.Sort(paths)

	n, err := w.importPaths(ctx, paths)
	if err != nil {
		logger.Error("Importing new mail: %v", err)
		return
	}
	logger.Info("Imported %d new mails", n)
}

// importPaths groups paths by folder and imports each group.
func (w *Watcher) importPaths(ctx context.Context, paths []string) (int, error) {
	byFolder := make(map[string][]string)
	for _, p := range paths {
		folder := w.folderFor(p)
		byFolder[folder] = append(byFolder[folder], p)
	}

	total := 0
	var errs []error
	for _, folder := range slices.Sorted(maps.Keys(byFolder)) {
		n, err := w.importer.ImportFiles(ctx, byFolder[folder], folder)
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("folder %s: %w", folder, err))
		}
	}
	return total, errors.Join(errs...)
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) isMailFile(path string) bool {
	if strings.EqualFold(filepath.Ext(path), ".eml") {
		return true
	}
	parent := filepath.Base(filepath.Dir(path))
	return parent == "cur" || parent == "new"
}

// folderFor returns the folder a mail file belongs to.
func (w *Watcher) folderFor(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return w.defaultFolder
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return w.defaultFolder
	}
	if first := strings.TrimPrefix(parts[0], "."); first != "" && first != "cur" && first != "new" && first != "tmp" {
		return first
	}
	return w.defaultFolder
}

// isHidden reports whether a file name is hidden.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
