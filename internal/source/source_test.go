package source_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/farcloser/logsift"
	"github.com/farcloser/logsift/internal/source"
)

func write(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestReadLines(t *testing.T) {
	lines, err := source.ReadLines(strings.NewReader("one\r\ntwo\n\nthree"))
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(lines, []string{"one", "two", "", "three"}) {
		t.Errorf("lines = %q", lines)
	}
}

func TestReadLinesTooLong(t *testing.T) {
	long := strings.Repeat("x", 2*1024*1024)

	if _, err := source.ReadLines(strings.NewReader(long)); err == nil {
		t.Fatal("expected an error for an oversized line")
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "b.log"), "x")
	write(t, filepath.Join(dir, "nested", "a.LOG"), "x")
	write(t, filepath.Join(dir, "image.png"), "x")
	write(t, filepath.Join(dir, "c.txt"), "x")

	files, err := source.Collect(dir)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(dir, "b.log"),
		filepath.Join(dir, "c.txt"),
		filepath.Join(dir, "nested", "a.LOG"),
	}
	if !slices.Equal(files, want) {
		t.Errorf("files = %q, want %q", files, want)
	}

	single, err := source.Collect(filepath.Join(dir, "image.png"))
	if err != nil || len(single) != 1 {
		t.Errorf("single file: %q, %v", single, err)
	}

	if _, err := source.Collect(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected an error for a missing path")
	}

	empty := t.TempDir()
	if _, err := source.Collect(empty); err == nil {
		t.Error("expected an error for a directory without logs")
	}
}

func TestScanAllKeepsSourcesApart(t *testing.T) {
	dir := t.TempDir()
	// First file ends inside an error block; it must not continue into the second file.
	write(t, filepath.Join(dir, "a.log"), "ERROR first\n    at a.b.c\n")
	write(t, filepath.Join(dir, "b.log"), "ERROR second\nERROR third\n")

	sources, err := source.Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	results, err := source.ScanAll(context.Background(), sources, logsift.DefaultOptions(), 4)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}

	if len(results[0].Issues) != 0 {
		t.Errorf("a.log issues = %d, want 0", len(results[0].Issues))
	}

	if results[0].Lines != 2 || results[1].Lines != 2 {
		t.Errorf("line counts = %d, %d", results[0].Lines, results[1].Lines)
	}

	issues := source.Issues(results)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}

	if issues[0].Source != filepath.Join(dir, "b.log") || issues[0].Message != "second" || issues[0].Line != 1 {
		t.Errorf("issue = %s:%d %q", issues[0].Source, issues[0].Line, issues[0].Message)
	}
}

func TestScanAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sources := []*source.Source{{Path: "x", Lines: []string{"ERROR a", "ERROR b"}}}

	if _, err := source.ScanAll(ctx, sources, logsift.DefaultOptions(), 1); err == nil {
		t.Fatal("expected context error")
	}
}
