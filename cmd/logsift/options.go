package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/logsift"
	"github.com/farcloser/logsift/internal/rules"
	"github.com/farcloser/logsift/internal/types"
)

// scanFlags are shared by every command that scans logs.
func scanFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "families",
			Aliases: []string{"F"},
			Usage:   "Comma-separated detector families or presets: all, none, traceback, crash, error",
			Value:   "all",
			Sources: cli.EnvVars("LOGSIFT_FAMILIES"),
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
		&cli.BoolFlag{
			Name:  "check-conflicts",
			Usage: "Warn when several detectors would open an issue on the same line",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"j"},
			Usage:   "Number of concurrent workers",
			Value:   runtime.NumCPU(),
			Sources: cli.EnvVars("LOGSIFT_WORKERS"),
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: console, json, markdown",
			Value:   "console",
			Sources: cli.EnvVars("LOGSIFT_FORMAT"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"D"},
			Usage:   "Include raw lines and stack frames in output",
		},
	}
}

//nolint:gochecknoglobals
var familyNames = map[string]logsift.Family{
	"traceback": logsift.FamilyTraceback,
	"crash":     logsift.FamilyCrash,
	"error":     logsift.FamilyError,
	// Presets.
	"all":  logsift.FamiliesAll,
	"none": 0,
}

func parseFamilies(raw string) (logsift.Family, error) {
	var result logsift.Family

	explicit := false

	for name := range strings.SplitSeq(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		family, ok := familyNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown family %q", name)
		}

		explicit = true
		result |= family
	}

	if !explicit {
		return logsift.FamiliesAll, nil
	}

	return result, nil
}

func buildOptions(cmd *cli.Command) (logsift.Options, error) {
	opts := logsift.DefaultOptions()

	families, err := parseFamilies(cmd.String("families"))
	if err != nil {
		return opts, err
	}

	policy, err := logsift.ParsePolicy(cmd.String("on-truncated"))
	if err != nil {
		return opts, err
	}

	opts.Families = families
	opts.Policy = policy
	opts.CheckConflicts = cmd.Bool("check-conflicts")

	if path := cmd.String("rules"); path != "" {
		set, err := rules.Load(path)
		if err != nil {
			return opts, err
		}

		opts.Custom = set.Factories(types.DefaultSeverity)
	}

	if opts.Families == 0 && len(opts.Custom) == 0 {
		return opts, errNoDetectors
	}

	return opts, nil
}
