package store

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Lock is an advisory, single-writer lock over a repository's state file
// (§5 Shared resources: "Concurrent scans on the same repository are not
// supported and MUST be rejected via lockfile"). It is advisory, not an
// OS-level flock: a lockfile containing a unique holder token is created
// exclusively, and concurrent scanners fail to acquire it.
type Lock struct {
	path  string
	token string
}

// Acquire creates path exclusively, failing if a lock is already held.
// The returned Lock's Release must be called to allow a subsequent scan.
func Acquire(path string) (*Lock, error) {
	token := uuid.NewString()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			holder, _ := os.ReadFile(path)
			return nil, fmt.Errorf("store: another scan is already in progress (lockfile %s held by %s); remove it manually only if you are certain no scan is running", path, string(holder))
		}
		return nil, fmt.Errorf("store: acquire lock %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(token); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("store: write lock token %s: %w", path, err)
	}
	return &Lock{path: path, token: token}, nil
}

// Release removes the lockfile, but only if it still holds this Lock's
// token — it will not clobber a lock some other process acquired after a
// stale-lock manual cleanup.
func (l *Lock) Release() error {
	holder, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if string(holder) != l.token {
		return fmt.Errorf("store: refusing to release lock %s: held by a different token", l.path)
	}
	return os.Remove(l.path)
}
