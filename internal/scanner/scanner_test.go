package scanner

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"playlist-importer/internal/logging"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func names(paths []string, root string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, _ := filepath.Rel(root, p)
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func TestScanRecursiveWithExtensionFilter(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mp3"))
	touch(t, filepath.Join(root, "b.FLAC"))
	touch(t, filepath.Join(root, "cover.jpg"))
	touch(t, filepath.Join(root, "sub", "c.ogg"))
	touch(t, filepath.Join(root, "sub", "notes.txt"))

	got, err := Scan(root, DefaultOptions(), logging.Discard())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{"a.mp3", "b.FLAC", "sub/c.ogg"}
	if !reflect.DeepEqual(names(got, root), want) {
		t.Errorf("Scan = %v, want %v", names(got, root), want)
	}
}

func TestScanNonRecursive(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mp3"))
	touch(t, filepath.Join(root, "sub", "b.mp3"))

	opts := DefaultOptions()
	opts.Recursive = false
	got, err := Scan(root, opts, logging.Discard())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if want := []string{"a.mp3"}; !reflect.DeepEqual(names(got, root), want) {
		t.Errorf("Scan = %v, want %v", names(got, root), want)
	}
}

func TestScanIgnoresHidden(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mp3"))
	touch(t, filepath.Join(root, ".hidden.mp3"))
	touch(t, filepath.Join(root, ".cache", "b.mp3"))

	got, err := Scan(root, DefaultOptions(), logging.Discard())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if want := []string{"a.mp3"}; !reflect.DeepEqual(names(got, root), want) {
		t.Errorf("Scan = %v, want %v", names(got, root), want)
	}

	opts := DefaultOptions()
	opts.IgnoreHidden = false
	got, err = Scan(root, opts, logging.Discard())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if want := []string{".cache/b.mp3", ".hidden.mp3", "a.mp3"}; !reflect.DeepEqual(names(got, root), want) {
		t.Errorf("Scan(keep hidden) = %v, want %v", names(got, root), want)
	}
}

func TestScanExcludedDirs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "keep", "a.mp3"))
	touch(t, filepath.Join(root, "skipme", "b.mp3"))

	opts := DefaultOptions()
	opts.ExcludeDirs = []string{"skipme"}
	got, err := Scan(root, opts, logging.Discard())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if want := []string{"keep/a.mp3"}; !reflect.DeepEqual(names(got, root), want) {
		t.Errorf("Scan = %v, want %v", names(got, root), want)
	}
}

func TestScanSymlinkToggle(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "real.mp3"))
	outside := filepath.Join(t.TempDir(), "elsewhere.mp3")
	touch(t, outside)
	if err := os.Symlink(outside, filepath.Join(root, "link.mp3")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got, err := Scan(root, DefaultOptions(), logging.Discard())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if want := []string{"real.mp3"}; !reflect.DeepEqual(names(got, root), want) {
		t.Errorf("Scan(no follow) = %v, want %v", names(got, root), want)
	}

	opts := DefaultOptions()
	opts.FollowSymlinks = true
	got, err = Scan(root, opts, logging.Discard())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if want := []string{"link.mp3", "real.mp3"}; !reflect.DeepEqual(names(got, root), want) {
		t.Errorf("Scan(follow) = %v, want %v", names(got, root), want)
	}
}

func TestScanSingleFileRoot(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.mp3")
	touch(t, file)

	got, err := Scan(file, DefaultOptions(), logging.Discard())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 1 || got[0] != file {
		t.Errorf("Scan(file) = %v, want [%s]", got, file)
	}

	other := filepath.Join(root, "doc.pdf")
	touch(t, other)
	if _, err := Scan(other, DefaultOptions(), logging.Discard()); err == nil {
		t.Error("Scan(non-audio file) should fail")
	}
}

func TestScanCustomExtensions(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mp3"))
	touch(t, filepath.Join(root, "b.flac"))

	opts := DefaultOptions()
	opts.Extensions = []string{".flac"}
	got, err := Scan(root, opts, logging.Discard())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if want := []string{"b.flac"}; !reflect.DeepEqual(names(got, root), want) {
		t.Errorf("Scan = %v, want %v", names(got, root), want)
	}
}
