//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/logsift/internal/source"
)

var (
	errInvalidArgCount = errors.New("expected exactly one argument: file, directory, or \"-\" for stdin")
	errNoDetectors     = errors.New("no detector family selected")
)

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Scan logs for multi-line issues",
		ArgsUsage: "<file | directory | ->",
		Flags:     scanFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			results, err := runScan(ctx, cmd)
			if err != nil {
				return err
			}

			return outputResults(results, nil, cmd.String("format"), cmd.Bool("debug"))
		},
	}
}

// runScan loads the sources named on the command line and scans each independently.
func runScan(ctx context.Context, cmd *cli.Command) ([]*source.Result, error) {
	if cmd.NArg() != 1 {
		return nil, fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	opts, err := buildOptions(cmd)
	if err != nil {
		return nil, err
	}

	sources, err := source.Load(cmd.Args().First())
	if err != nil {
		return nil, err
	}

	results, err := source.ScanAll(ctx, sources, opts, cmd.Int("workers"))
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	return results, nil
}
