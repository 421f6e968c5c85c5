package library

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc is called when the data file no longer holds what this process
// last wrote.
type ChangeFunc func(path string)

// WatchExternalChanges watches the directory holding the store's file and
// calls onChange when another writer replaces or edits it. The next Save
// overwrites such changes. The watcher stops when ctx is done.
//
// The directory is watched rather than the file because Save replaces the
// file by renaming over it.
func WatchExternalChanges(ctx context.Context, s *FileStorage, onChange ChangeFunc) error {
	path, err := filepath.Abs(s.Path())
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
					continue
				}
				if changedExternally(path, s.LastWritten()) {
					slog.WarnContext(ctx, "Data file changed outside this session; the next save overwrites it", "path", path, "op", event.Op.String())
					if onChange != nil {
						onChange(path)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching data file", "err", err)
			}
		}
	}()
	return nil
}

func changedExternally(path string, last []byte) bool {
	cur, err := os.ReadFile(path)
	if err != nil {
		// Removed: changed only if we had written something.
		return os.IsNotExist(err) && last != nil
	}
	return !bytes.Equal(cur, last)
}
