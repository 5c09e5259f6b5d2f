package maildir

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingImporter records imported paths per folder.
type recordingImporter struct {
	mu      sync.Mutex
	folders map[string][]string
	err     error
}

func newRecordingImporter() *recordingImporter {
	return &recordingImporter{folders: make(map[string][]string)}
}

func (r *recordingImporter) ImportFiles(_ context.Context, paths []string, folder string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.folders[folder] = append(r.folders[folder], paths...)
	return len(paths), nil
}

func (r *recordingImporter) snapshot() map[string][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]string, len(r.folders))
	for k, v := range r.folders {
		sorted := append([]string(nil), v...)
		sort.Strings(sorted)
		out[k] = sorted
	}
	return out
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("Subject: test\r\n\r\nbody\r\n"), 0644))
}

func TestScan_FilesByFolder(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a.eml":             "inbox",
		"cur/789":           "inbox",
		"Work/new/123":      "Work",
		".Archive/cur/456":  "Archive",
		"Projects/q1/x.eml": "Projects",
	}
	for rel := range files {
		writeFile(t, filepath.Join(root, rel))
	}
	writeFile(t, filepath.Join(root, ".hidden.eml"))
	writeFile(t, filepath.Join(root, "notes.txt"))
	writeFile(t, filepath.Join(root, "tmp", "999"))

	importer := newRecordingImporter()
	n, err := New(root, "inbox", importer).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(files), n)

	want := make(map[string][]string)
	for rel, folder := range files {
		want[folder] = append(want[folder], filepath.Join(root, rel))
	}
	for _, paths := range want {
		sort.Strings(paths)
	}
	assert.Equal(t, want, importer.snapshot())
}

func TestScan_JoinsImportErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.eml"))
	importer := newRecordingImporter()
	importer.err = errors.New("disk full")

	_, err := New(root, "inbox", importer).Scan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "folder inbox")
	assert.ErrorIs(t, err, importer.err)
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), "inbox", newRecordingImporter()).Scan(context.Background())
	assert.Error(t, err)
}

func TestHandleEvent(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		dir       bool
		create    bool
		operation fsnotify.Op
		queued    bool
	}{
		{name: "create eml", file: "a.eml", create: true, operation: fsnotify.Create, queued: true},
		{name: "write maildir file", file: "new/1", create: true, operation: fsnotify.Write, queued: true},
		{name: "write and chmod", file: "a.eml", create: true, operation: fsnotify.Write | fsnotify.Chmod, queued: true},
		{name: "chmod only", file: "a.eml", create: true, operation: fsnotify.Chmod},
		{name: "remove", file: "gone.eml", operation: fsnotify.Remove},
		{name: "hidden file", file: ".a.eml", create: true, operation: fsnotify.Create},
		{name: "not mail", file: "notes.txt", create: true, operation: fsnotify.Create},
		{name: "directory", file: "Work", dir: true, operation: fsnotify.Create},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, tt.file)
			switch {
			case tt.dir:
				require.NoError(t, os.Mkdir(path, 0755))
			case tt.create:
				writeFile(t, path)
			}

			w := New(root, "inbox", newRecordingImporter())
			queued := w.handleEvent(nil, fsnotify.Event{Name: path, Op: tt.operation})

			assert.Equal(t, tt.queued, queued)
			_, pending := w.pending[path]
			assert.Equal(t, tt.queued, pending)
		})
	}
}

func TestFolderFor(t *testing.T) {
	w := New("/mail", "inbox", nil)

	assert.Equal(t, "inbox", w.folderFor("/mail/a.eml"))
	assert.Equal(t, "inbox", w.folderFor("/mail/new/1"))
	assert.Equal(t, "Work", w.folderFor("/mail/Work/cur/1"))
	assert.Equal(t, "Sent", w.folderFor("/mail/.Sent/cur/1"))
}

func TestWatch_ImportsNewFiles(t *testing.T) {
	root := t.TempDir()
	importer := newRecordingImporter()
	w := New(root, "inbox", importer)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	path := filepath.Join(root, "fresh.eml")
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("Subject: fresh\r\n\r\nbody\r\n"), 0644)
		return len(importer.snapshot()["inbox"]) > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Contains(t, importer.snapshot()["inbox"], path)
}
