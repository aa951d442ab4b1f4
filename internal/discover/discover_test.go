package discover

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverJavaScriptFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.js", "class A {}")
	writeFile(t, dir, "lib/util.mjs", "export const x = 1")
	// Non-JavaScript file should be ignored
	writeFile(t, dir, "readme.txt", "hello")
	// Hidden file should be ignored
	writeFile(t, dir, ".hidden.js", "secret")

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), paths)
	}

	// Should be sorted, with forward slashes
	if entries[0].Path != "lib/util.mjs" {
		t.Errorf("entry 0: got %q", entries[0].Path)
	}
	if entries[1].Path != "main.js" {
		t.Errorf("entry 1: got %q", entries[1].Path)
	}
	if entries[1].Size != int64(len("class A {}")) {
		t.Errorf("entry 1: size = %d", entries[1].Size)
	}

	for _, e := range entries {
		if e.Language != "javascript" {
			t.Errorf("entry %q: language = %q, want javascript", e.Path, e.Language)
		}
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.js", "")
	writeFile(t, dir, "node_modules/pkg/index.js", "")
	writeFile(t, dir, "coverage/report.js", "")
	writeFile(t, dir, ".hidden/secret.js", "")

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Path != "main.js" {
		t.Errorf("expected main.js, got %q", entries[0].Path)
	}
}

func TestDiscoverExtensionFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.js", "")
	writeFile(t, dir, "lib.cjs", "")

	entries, err := Files(dir, Options{Extensions: []string{"cjs"}})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "lib.cjs" {
		t.Fatalf("expected only lib.cjs, got %v", entries)
	}

	entries, err = Files(dir, Options{Extensions: []string{".ts"}})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries for .ts filter, got %d", len(entries))
	}
}

func TestDiscoverIgnoreFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, ".gitignore", "generated/\n")
	writeFile(t, dir, ".buildignore", "*.min.js\n")
	writeFile(t, dir, "main.js", "")
	writeFile(t, dir, "main.min.js", "")
	writeFile(t, dir, "generated/out.js", "")
	writeFile(t, dir, "vendor/lib.js", "")

	entries, err := Files(dir, Options{Ignore: []string{"vendor/"}})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "main.js" {
		t.Fatalf("expected only main.js, got %v", entries)
	}
}

func TestDiscoverSkipTests(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.js", "")
	writeFile(t, dir, "main.test.js", "")
	writeFile(t, dir, "test/unit.js", "")

	all, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}

	entries, err := Files(dir, Options{SkipTests: true})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "main.js" {
		t.Fatalf("expected only main.js, got %v", entries)
	}
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.js", "")

	// Create symlink
	err := os.Symlink(filepath.Join(dir, "real.js"), filepath.Join(dir, "link.js"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (no symlink), got %d", len(entries))
	}
	if entries[0].Path != "real.js" {
		t.Errorf("expected real.js, got %q", entries[0].Path)
	}
}

func TestIsTestFile(t *testing.T) {
	t.Parallel()
	cases := []struct {
		path string
		want bool
	}{
		// Test directory components
		{"test/engine.js", true},
		{"tests/unit/car.js", true},
		{"src/__tests__/foo.js", true},
		{"lib/__mocks__/fs.js", true},
		// Filename patterns
		{"foo.test.js", true},
		{"lib/foo.spec.mjs", true},
		// Production files
		{"lib/engine.js", false},
		{"lib/testing.js", false},
		{"contest/entry.js", false},
		{"lib/test-utils.js", false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()
			got := IsTestFile(tc.path)
			if got != tc.want {
				t.Errorf("IsTestFile(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
