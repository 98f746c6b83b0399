// Package workspace discovers the file set a scan runs over and resolves
// the repository's module path, generalizing the teacher's world.Scanner
// walk (cmd/nerd/cmd_init_scan.go's ScanWorkspace call) from Mangle-fact
// production to the langplugin.FileInfo shape the detection pipeline
// consumes.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/healthscan/healthscan/internal/langplugin"
)

// skipDirs are directory basenames never descended into regardless of
// config.Exclude, since nothing under them is ever a first-class source
// file for this scan (§5 "the walk never traverses its own state dir").
var skipDirs = map[string]bool{
	".git":       true,
	".healthscan": true,
}

// Discover walks root and returns every file whose extension is in exts,
// repository-relative and forward-slash normalized, skipping any path
// matching an exclude glob (matched against the relative path and against
// the basename, so both "build/" and "*.min.go"-style patterns work).
func Discover(root string, exts []string, exclude []string) ([]langplugin.FileInfo, error) {
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[e] = true
	}

	var out []langplugin.FileInfo
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if skipDirs[d.Name()] || matchesAny(rel, exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if matchesAny(rel, exclude) {
			return nil
		}
		ext := filepath.Ext(rel)
		if !allowed[ext] {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			return statErr
		}
		out = append(out, langplugin.FileInfo{Path: rel, Ext: ext, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("workspace: walk %s: %w", root, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func matchesAny(rel string, patterns []string) bool {
	base := filepath.Base(rel)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
		if strings.Contains(rel, strings.Trim(p, "/")) && strings.Contains(p, "/") {
			return true
		}
	}
	return false
}

// ModulePath reads the module declaration from root/go.mod. A repository
// with no go.mod (or a non-Go project scanned only for its config/script
// zones) resolves to an empty module path; ResolveImport then treats
// every import as external, which only disables import-graph edges, not
// the rest of the scan (§6.3).
func ModulePath(root string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("workspace: read go.mod: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "module ")), nil
		}
	}
	return "", nil
}
