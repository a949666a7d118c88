// Package source reads log sources into line sequences and scans them.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/farcloser/primordium/fault"
	"golang.org/x/sync/errgroup"

	"github.com/farcloser/logsift"
)

// Stdin is the path naming standard input.
const Stdin = "-"

const maxLineSize = 1024 * 1024 // 1MB

var errNoLogFiles = errors.New("no log files found")

// Extensions lists the file extensions collected when walking a directory.
//
//nolint:gochecknoglobals
var Extensions = []string{".log", ".txt", ".out", ".err"}

// Source is the content of one log source.
type Source struct {
	Path  string
	Lines []string
}

// Result is the outcome of scanning one source.
type Result struct {
	Path     string
	Lines    int
	Issues   []*logsift.Issue
	Duration time.Duration
}

// ReadLines splits r into lines. Lines longer than 1MB fail the read.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return lines, nil
}

// ReadFile reads one file, or standard input for Stdin.
func ReadFile(path string) (*Source, error) {
	slog.Debug("source.ReadFile", "path", path)

	if path == Stdin {
		lines, err := ReadLines(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		return &Source{Path: path, Lines: lines}, nil
	}

	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified log files
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer file.Close()

	lines, err := ReadLines(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return &Source{Path: path, Lines: lines}, nil
}

// Collect returns the log files under root, sorted. A regular file is returned as is.
func Collect(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", root, err)
	}

	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			return nil
		}

		if slices.Contains(Extensions, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%q: %w", root, errNoLogFiles)
	}

	slices.Sort(files)

	return files, nil
}

// Load reads every source named by path: standard input, one file, or the log files of a directory.
func Load(path string) ([]*Source, error) {
	if path == Stdin {
		src, err := ReadFile(path)
		if err != nil {
			return nil, err
		}

		return []*Source{src}, nil
	}

	files, err := Collect(path)
	if err != nil {
		return nil, err
	}

	sources := make([]*Source, 0, len(files))

	for _, file := range files {
		src, err := ReadFile(file)
		if err != nil {
			return nil, err
		}

		sources = append(sources, src)
	}

	return sources, nil
}

// Scan scans one source with a fresh registry and stamps its path on every issue.
func Scan(src *Source, opts logsift.Options) *Result {
	start := time.Now()
	issues := logsift.Scan(src.Lines, opts)

	Stamp(issues, src.Path)

	return &Result{
		Path:     src.Path,
		Lines:    len(src.Lines),
		Issues:   issues,
		Duration: time.Since(start),
	}
}

// ScanAll scans sources independently, at most workers at a time. Results keep the order of sources.
func ScanAll(ctx context.Context, sources []*Source, opts logsift.Options, workers int) ([]*Result, error) {
	results := make([]*Result, len(sources))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(max(1, min(workers, len(sources))))

	for idx, src := range sources {
		group.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			results[idx] = Scan(src, opts)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Stamp records the source path on issues.
func Stamp(issues []*logsift.Issue, path string) {
	for _, issue := range issues {
		issue.Source = path
	}
}

// Issues flattens results into one issue list, in source order.
func Issues(results []*Result) []*logsift.Issue {
	var issues []*logsift.Issue

	for _, result := range results {
		issues = append(issues, result.Issues...)
	}

	return issues
}
