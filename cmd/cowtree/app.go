package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dkoosis/cowtree/internal/config"
	"github.com/dkoosis/cowtree/internal/logging"
	"github.com/dkoosis/cowtree/internal/render"
	"github.com/dkoosis/cowtree/pkg/btree"
)

type app struct {
	stdout io.Writer
	stderr io.Writer

	flags     config.CliFlags
	format    string
	logFormat string

	cfg  *config.ResolvedConfig
	log  zerolog.Logger
	tree *btree.BTree
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cowtree",
		Short:         "Inspect and edit copy-on-write B+tree databases",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.ConfigFile, "config", "", "Config file (default: discover "+config.FileName+")")
	pf.StringVar(&a.flags.Path, "db", config.DefaultPath, "Database table file; the root log is <db>.wal")
	pf.IntVar(&a.flags.B, "b", config.DefaultB, fmt.Sprintf("Branching parameter (%d-%d), fixed when the database is created", btree.MinB, btree.MaxB()))
	pf.BoolVar(&a.flags.NoSync, "no-sync", false, "Skip fsync on commit")
	pf.StringVar(&a.flags.Theme, "theme", config.DefaultTheme, "Theme: default, orca, mono")
	pf.BoolVar(&a.flags.NoColor, "no-color", false, "Disable colors")
	pf.BoolVar(&a.flags.Debug, "debug", false, "Log tree operations to stderr")
	pf.StringVar(&a.format, "format", "text", "Output format: text, json")
	pf.StringVar(&a.logFormat, "log-format", "console", "Log format on stderr: console, json")

	root.AddCommand(
		a.putCmd(),
		a.getCmd(),
		a.delCmd(),
		a.scanCmd(),
		a.printCmd(),
		a.statsCmd(),
		a.inspectCmd(),
		a.browseCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return root
}

// setup resolves configuration and the logger before any command runs.
func (a *app) setup(cmd *cobra.Command) error {
	pf := cmd.Flags()
	a.flags.PathSet = pf.Changed("db")
	a.flags.BSet = pf.Changed("b")
	a.flags.NoSyncSet = pf.Changed("no-sync")
	a.flags.ThemeSet = pf.Changed("theme")
	a.flags.NoColorSet = pf.Changed("no-color")
	a.flags.DebugSet = pf.Changed("debug")

	if a.format != "text" && a.format != "json" {
		return usageError{fmt.Errorf("invalid --format %q: must be text or json", a.format)}
	}
	if a.logFormat != "console" && a.logFormat != "json" {
		return usageError{fmt.Errorf("invalid --log-format %q: must be console or json", a.logFormat)}
	}

	cfg, err := config.Resolve(a.flags)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(a.stderr, logging.Options{
		Debug:   cfg.Debug,
		NoColor: cfg.NoColor,
		JSON:    a.logFormat == "json",
	})
	if cfg.File != "" {
		a.log.Debug().Str("file", cfg.File).Msg("loaded config")
	}
	return nil
}

func (a *app) open() (*btree.BTree, error) {
	if a.tree != nil {
		return a.tree, nil
	}
	opts := []btree.Option{
		btree.WithB(a.cfg.B),
		btree.WithSync(a.cfg.Sync),
		btree.WithLogger(a.log),
	}
	tree, err := btree.Open(a.cfg.Path, opts...)
	if err != nil {
		return nil, err
	}
	a.tree = tree
	return tree, nil
}

func (a *app) theme() render.Theme {
	return render.ThemeByName(a.cfg.Theme, a.cfg.NoColor)
}

func (a *app) renderer() render.Renderer {
	return render.New(a.format, a.theme(), render.Width(a.stdout))
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
