// Package discover finds the source files of a documentation build.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/metadoc/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to the source root, forward slashes
	Language string
	Size     int64
}

// Options narrows discovery.
type Options struct {
	// Extensions limits discovery to these file extensions. Empty means
	// every extension with a registered language.
	Extensions []string
	// Ignore holds extra gitignore-style patterns.
	Ignore []string
	// SkipTests drops files that look like test suites.
	SkipTests bool
}

// ignoreFiles are read from the source root when present.
var ignoreFiles = []string{".gitignore", ".buildignore"}

var skipDirs = map[string]struct{}{
	"node_modules":     {},
	"bower_components": {},
	"jspm_packages":    {},
	"coverage":         {},
	".nyc_output":      {},
	".git":             {},
	".hg":              {},
	".svn":             {},
}

// Files discovers source files under root, sorted by path.
func Files(root string, opts Options) ([]FileEntry, error) {
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, e := range opts.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}

	// git already applies .gitignore to its listing.
	gitFiles := gitLsFiles(root)
	names := ignoreFiles
	if gitFiles != nil {
		names = ignoreFiles[1:]
	}
	gi := loadIgnores(root, names, opts.Ignore)

	var results []FileEntry

	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if p == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gitFiles != nil {
			if _, ok := gitFiles[rel]; !ok {
				return nil
			}
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if opts.SkipTests && IsTestFile(rel) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		langName := lang.ForExtension(ext)
		if langName == "" {
			return nil
		}
		if len(exts) > 0 {
			if _, ok := exts[ext]; !ok {
				return nil
			}
		}

		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}
		results = append(results, FileEntry{Path: rel, Language: langName, Size: size})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

var testDirs = map[string]struct{}{
	"test":      {},
	"tests":     {},
	"spec":      {},
	"__tests__": {},
	"__mocks__": {},
}

// IsTestFile reports whether the slash-separated path looks like a test
// suite rather than library code.
func IsTestFile(p string) bool {
	dir, name := path.Split(p)
	for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
		if _, ok := testDirs[seg]; ok {
			return true
		}
	}
	base := strings.TrimSuffix(name, path.Ext(name))
	return strings.HasSuffix(base, ".test") || strings.HasSuffix(base, ".spec")
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

// loadIgnores merges the patterns of the named ignore files under root
// with extra. It returns nil when there is nothing to match.
func loadIgnores(root string, names []string, extra []string) *ignore.GitIgnore {
	var lines []string
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	lines = append(lines, extra...)
	if len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}
