package main

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// newRecursiveWatcher adds every directory under root (skipping the same
// directories workspace.Discover skips) to a single fsnotify.Watcher, since
// fsnotify watches are not recursive on their own.
func newRecursiveWatcher(root string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == ".git" || name == ".healthscan" {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
	if err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
