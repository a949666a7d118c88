//nolint:wrapcheck
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/logsift/internal/integration/generator"
	"github.com/farcloser/logsift/internal/report"
	"github.com/farcloser/logsift/internal/resolve"
	"github.com/farcloser/logsift/internal/source"
	"github.com/farcloser/logsift/internal/types"
)

func resolveCommand() *cli.Command {
	flags := append(scanFlags(),
		&cli.StringFlag{
			Name:    "generator",
			Aliases: []string{"g"},
			Usage:   "Text generation command reading a prompt on stdin and printing JSON (empty: generic advice only)",
			Value:   generator.DefaultCommand,
			Sources: cli.EnvVars("LOGSIFT_GENERATOR"),
		},
		&cli.StringFlag{
			Name:    "html",
			Aliases: []string{"o"},
			Usage:   "Write an HTML report to this path",
		},
	)

	return &cli.Command{
		Name:      "resolve",
		Usage:     "Scan logs and propose a fix for every issue",
		ArgsUsage: "<file | directory | ->",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			results, err := runScan(ctx, cmd)
			if err != nil {
				return err
			}

			issues := source.Issues(results)

			var resolver resolve.Resolver = resolve.Canned{}
			if command := strings.Fields(cmd.String("generator")); len(command) > 0 {
				resolver = &resolve.Generated{Command: command}
			}

			solutions, err := resolve.All(ctx, resolver, issues, cmd.Int("workers"))
			if err != nil {
				return fmt.Errorf("resolution failed: %w", err)
			}

			if path := cmd.String("html"); path != "" {
				if err := writeHTML(path, cmd.Args().First(), issues, solutions); err != nil {
					return err
				}
			}

			return outputResults(results, solutions, cmd.String("format"), cmd.Bool("debug"))
		},
	}
}

func writeHTML(path, title string, issues []*types.Issue, solutions []*types.Solution) error {
	out, err := os.Create(path) //nolint:gosec // CLI tool writes to a user-specified path
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer out.Close()

	if err := report.Render(out, report.New("logsift: "+title, issues, solutions)); err != nil {
		return err
	}

	return out.Close()
}
