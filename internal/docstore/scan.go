package docstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
)

// defaultExcludes are directory and file patterns never worth indexing.
// Patterns match individual path segments.
var defaultExcludes = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"__pycache__",
	".venv",
	"vendor",
	".DS_Store",
	"*.tmp",
	"*.swp",
	"*.lock",
}

// FileInfo describes one candidate file found during a scan.
type FileInfo struct {
	// AbsPath is the absolute path on disk.
	AbsPath string

	// RelPath is the slash-separated path relative to the scan root.
	RelPath string

	Size    int64
	ModTime time.Time
}

// Failure records a file or directory the scan could not read. Failures do
// not abort the scan; they are reported so callers can surface them.
type Failure struct {
	Path string
	Err  error
}

// Diff is the result of comparing a filesystem scan against the store's
// current contents.
type Diff struct {
	// Added are files with no corresponding document.
	Added []FileInfo

	// Changed are files whose size or mtime differs from the stored row.
	// Content hashing later decides whether reindexing is actually needed.
	Changed []FileInfo

	// Removed are documents whose file no longer exists.
	Removed []Document

	Failures []Failure
}

// ScanOptions tunes a scan pass.
type ScanOptions struct {
	// ExcludePatterns are applied per path segment in addition to the
	// built-in defaults.
	ExcludePatterns []string
}

// Scan walks root and diffs what it finds against known. The root must
// exist and be readable; unreadable entries below it become Failures.
func Scan(ctx context.Context, root string, known []Document, opts ScanOptions) (*Diff, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, wserrors.IOFailure(fmt.Sprintf("cannot access knowledge base root %s", root), err)
	}
	if !info.IsDir() {
		return nil, wserrors.IOFailure(fmt.Sprintf("knowledge base root %s is not a directory", root), nil)
	}

	excludes := append(append([]string{}, defaultExcludes...), opts.ExcludePatterns...)

	byPath := make(map[string]Document, len(known))
	for _, d := range known {
		byPath[d.Path] = d
	}

	diff := &Diff{}
	seen := make(map[string]struct{}, len(known))

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			diff.Failures = append(diff.Failures, Failure{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if excluded(d.Name(), excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			diff.Failures = append(diff.Failures, Failure{Path: path, Err: err})
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			diff.Failures = append(diff.Failures, Failure{Path: path, Err: err})
			return nil
		}
		rel = filepath.ToSlash(rel)
		seen[rel] = struct{}{}

		entry := FileInfo{
			AbsPath: path,
			RelPath: rel,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		}

		prev, ok := byPath[rel]
		switch {
		case !ok:
			diff.Added = append(diff.Added, entry)
		// Stored mtimes have second precision, so compare at that grain.
		case prev.Size != fi.Size() || prev.ModifiedAt.Unix() != fi.ModTime().Unix():
			diff.Changed = append(diff.Changed, entry)
		}
		return nil
	})
	if walkErr != nil {
		if walkErr == context.Canceled || walkErr == context.DeadlineExceeded {
			return nil, walkErr
		}
		return nil, wserrors.IOFailure(fmt.Sprintf("scan of %s failed", root), walkErr)
	}

	for _, d := range known {
		if _, ok := seen[d.Path]; !ok {
			diff.Removed = append(diff.Removed, d)
		}
	}
	sort.Slice(diff.Removed, func(i, j int) bool { return diff.Removed[i].Path < diff.Removed[j].Path })

	return diff, nil
}

// excluded reports whether a path segment matches any exclude pattern.
// Patterns without metacharacters compare exactly.
func excluded(name string, patterns []string) bool {
	for _, p := range patterns {
		if strings.ContainsAny(p, "*?[") {
			if ok, _ := filepath.Match(p, name); ok {
				return true
			}
		} else if name == p {
			return true
		}
	}
	return false
}
