//nolint:wrapcheck
package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/logsift"
	"github.com/farcloser/logsift/internal/output"
	"github.com/farcloser/logsift/internal/rules"
	"github.com/farcloser/logsift/internal/source"
	"github.com/farcloser/logsift/internal/types"
)

const defaultOutputFile = "logsift-report.jsonl"

var (
	errNotDirectory = errors.New("not a directory")
	errFolderArg    = errors.New("expected exactly one argument: folder path")
)

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Scan a log collection and write a logsift JSONL report",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report file to write (a gzipped copy is written next to it)",
				Value:   defaultOutputFile,
			},
			&cli.BoolFlag{
				Name:  "redact-path",
				Usage: "Strip file paths from the report",
			},
			&cli.StringFlag{
				Name:    "rules",
				Aliases: []string{"r"},
				Usage:   "TOML file defining additional detector families",
				Sources: cli.EnvVars("LOGSIFT_RULES"),
			},
			&cli.StringFlag{
				Name:  "on-truncated",
				Usage: "What to do with a block still open at end of file: discard, flush",
				Value: "discard",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers",
				Value:   runtime.NumCPU(),
				Sources: cli.EnvVars("LOGSIFT_WORKERS"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errFolderArg
			}

			opts := logsift.DefaultOptions()

			policy, err := logsift.ParsePolicy(cmd.String("on-truncated"))
			if err != nil {
				return err
			}

			opts.Policy = policy

			if path := cmd.String("rules"); path != "" {
				set, err := rules.Load(path)
				if err != nil {
					return err
				}

				opts.Custom = set.Factories(types.DefaultSeverity)
			}

			workers := max(cmd.Int("workers"), 1)

			return runReport(ctx, cmd.Args().First(), cmd.String("output"), cmd.Bool("redact-path"), opts, workers)
		},
	}
}

func runReport(_ context.Context, folder, outputFile string, redact bool, opts logsift.Options, workers int) error {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q: %w", folder, errNotDirectory)
	}

	files, err := source.Collect(folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Found %d files to scan (%d workers)\n", len(files), workers)

	// Process files concurrently.
	startTime := time.Now()
	results := make([]Record, len(files))

	var progress atomic.Int64

	sem := make(chan struct{}, workers)

	var waitGroup sync.WaitGroup

	for idx, filePath := range files {
		waitGroup.Add(1)

		go func(idx int, filePath string) {
			defer waitGroup.Done()

			sem <- struct{}{}

			defer func() { <-sem }()

			results[idx] = processFile(filePath, opts)

			done := progress.Add(1)
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, len(files), filePath)
		}(idx, filePath)
	}

	waitGroup.Wait()

	// Write results in file order.
	out, err := os.Create(outputFile) //nolint:gosec // CLI tool writes to a user-specified path
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	failed := 0

	var totalRead, totalScan time.Duration

	for idx := range results {
		record := &results[idx]

		if record.Error != "" {
			failed++
		}

		if record.Timing != nil {
			totalRead += millisToDuration(record.Timing.ReadMs)
			totalScan += millisToDuration(record.Timing.ScanMs)
		}

		if redact {
			redactRecord(record)
		}

		if err := enc.Encode(record); err != nil {
			slog.Error("writing record", "file", files[idx], "error", err)
		}
	}

	out.Close()

	// Compress.
	if err := compressFile(outputFile); err != nil {
		slog.Error("compressing report", "error", err)
	}

	elapsed := time.Since(startTime)

	fmt.Fprintf(os.Stderr, "\nDone: %d files in %s (%d failed)\n", len(files), elapsed.Truncate(time.Millisecond), failed)
	fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n", outputFile, outputFile)

	// Timing breakdown.
	scanned := len(files) - failed
	fmt.Fprintf(os.Stderr, "\n--- Timing ---\n")
	fmt.Fprintf(os.Stderr, "  Wall clock:  %s\n", elapsed.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  read:        %s (cumulative)\n", totalRead.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  scan:        %s (cumulative)\n", totalScan.Truncate(time.Millisecond))

	if scanned > 0 {
		fmt.Fprintf(os.Stderr, "  avg/file:    %s (read: %s, scan: %s)\n",
			(totalRead+totalScan)/time.Duration(scanned),
			totalRead/time.Duration(scanned),
			totalScan/time.Duration(scanned),
		)
	}

	fmt.Fprintln(os.Stderr)

	return runDigest(outputFile, "")
}

func processFile(filePath string, opts logsift.Options) Record {
	fileStart := time.Now()
	timing := &RecordTiming{}

	src, err := source.ReadFile(filePath)

	timing.ReadMs = durationMs(time.Since(fileStart))

	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("read failed: %v", err), Timing: timing}
	}

	result := source.Scan(src, opts)

	timing.ScanMs = durationMs(result.Duration)
	timing.TotalMs = durationMs(time.Since(fileStart))

	return Record{
		File:     filePath,
		Analysis: output.ResultToMap(result),
		Timing:   timing,
	}
}

func redactRecord(record *Record) {
	record.File = ""

	issues, ok := record.Analysis["issues"].([]any)
	if !ok {
		return
	}

	for _, entry := range issues {
		if issue, ok := entry.(map[string]any); ok {
			delete(issue, "source")
		}
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func millisToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func compressFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // reading our own output file
	if err != nil {
		return err
	}

	gzFile, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := gzWriter.Write(data); err != nil {
		return err
	}

	return gzWriter.Close()
}
