// Package store implements the on-disk layout of §6.1: atomically-written,
// pretty-printed JSON files with a retained previous-version backup,
// guarded by an advisory lockfile that rejects concurrent scans of the
// same repository (§5 Shared resources).
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSONAtomic serializes v as pretty-printed, UTF-8/LF JSON and writes
// it to path via write-temp-fsync-rename (§5, §6.1, §7 Atomic write
// failure), generalizing the teacher's writeScanFacts temp-file-then-
// rename pattern (cmd/nerd/cmd_init_scan.go) from a flat fact file to
// arbitrary JSON state. If a file already exists at path, it is copied to
// path+".bak" first (§6.1 "previous-version .bak copy is retained").
func WriteJSONAtomic(path string, v any) error {
	buf, err := marshalStable(v)
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create dir %s: %w", dir, err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".bak"); err != nil {
			return fmt.Errorf("store: backup %s: %w", path, err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: open temp %s: %w (remediation: check directory permissions)", tmp, err)
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("store: write temp %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("store: fsync temp %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: close temp %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		// Previous state is untouched; surface the temp file for
		// diagnosis rather than deleting it (§7 Atomic write failure).
		return fmt.Errorf("store: rename %s -> %s: %w (temp file retained at %s for diagnosis)", tmp, path, err, tmp)
	}
	return nil
}

// marshalStable produces pretty-printed JSON with a trailing newline.
// encoding/json already emits object keys in the order struct fields are
// declared (and sorts map keys), which is what gives us the "stable key
// order" §6.1 requires without any extra bookkeeping.
func marshalStable(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// ReadJSON reads and unmarshals path into v. A missing file is reported
// via os.IsNotExist on the returned error so callers can distinguish
// "no state yet" from real corruption (§7 State corruption: abort, do
// not overwrite, surface backup location).
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: %s is corrupt: %w (remediation: restore from %s.bak or delete %s to start fresh)", path, err, path, path)
	}
	return nil
}
