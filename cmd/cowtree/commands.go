package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dkoosis/cowtree/internal/browse"
	"github.com/dkoosis/cowtree/internal/render"
	"github.com/dkoosis/cowtree/internal/version"
)

func (a *app) putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put KEY VALUE",
		Short: "Store VALUE under KEY, replacing any existing value",
		Args:  exactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			tree, err := a.open()
			if err != nil {
				return err
			}
			return tree.Insert(args[0], args[1])
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value stored under KEY",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.open()
			if err != nil {
				return err
			}
			v, err := tree.Search(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprint(cmd.OutOrStdout(), a.renderer().Value(args[0], v))
			return nil
		},
	}
}

func (a *app) delCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "del KEY",
		Aliases: []string{"delete", "rm"},
		Short:   "Remove KEY",
		Args:    exactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			tree, err := a.open()
			if err != nil {
				return err
			}
			if err := tree.Delete(args[0]); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return nil
		},
	}
}

func (a *app) scanCmd() *cobra.Command {
	var prefix string
	var limit int

	c := &cobra.Command{
		Use:   "scan",
		Short: "List pairs in key order",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return usageError{errors.New("--limit must not be negative")}
			}
			tree, err := a.open()
			if err != nil {
				return err
			}

			var pairs []render.Pair
			err = tree.Ascend(func(k, v string) bool {
				if prefix != "" && !strings.HasPrefix(k, prefix) {
					// Keys are ordered, so nothing after a greater key matches.
					return k < prefix
				}
				pairs = append(pairs, render.Pair{Key: k, Value: v})
				return limit == 0 || len(pairs) < limit
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), a.renderer().Pairs(pairs))
			return nil
		},
	}

	c.Flags().StringVar(&prefix, "prefix", "", "Only keys starting with this prefix")
	c.Flags().IntVar(&limit, "limit", 0, "Stop after this many pairs (0 = no limit)")
	return c
}

func (a *app) printCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Dump every node of the tree",
		Long:  "Dump every node of the tree as indented text. For JSON, walk the tree with inspect.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.format != "text" {
				return usageError{fmt.Errorf("print writes text only; use inspect --format %s", a.format)}
			}
			tree, err := a.open()
			if err != nil {
				return err
			}
			return tree.Dump(cmd.OutOrStdout())
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the tree",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tree, err := a.open()
			if err != nil {
				return err
			}
			s, err := tree.Stats()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), a.renderer().Stats(s))
			return nil
		},
	}
}

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [OFFSET]",
		Short: "Show one node, the root by default",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.open()
			if err != nil {
				return err
			}

			var off int64
			if len(args) == 1 {
				off, err = strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return usageError{fmt.Errorf("invalid offset %q", args[0])}
				}
			} else if off, err = tree.RootOffset(); err != nil {
				return err
			}

			n, err := tree.Inspect(off)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), a.renderer().Node(n))
			return nil
		},
	}
}

func (a *app) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Walk the tree interactively",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !render.IsTerminal(cmd.OutOrStdout()) {
				return errors.New("browse needs a terminal; use print or inspect instead")
			}
			tree, err := a.open()
			if err != nil {
				return err
			}
			return browse.Run(tree, a.theme())
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration and where each value came from",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.cfg
			settings := []render.Setting{
				{Name: "path", Value: c.Path, Source: c.PathSource},
				{Name: "b", Value: strconv.Itoa(c.B), Source: c.BSource},
				{Name: "sync", Value: strconv.FormatBool(c.Sync), Source: c.SyncSource},
				{Name: "theme", Value: c.Theme, Source: c.ThemeSource},
				{Name: "no_color", Value: strconv.FormatBool(c.NoColor), Source: c.NoColorSource},
				{Name: "debug", Value: strconv.FormatBool(c.Debug), Source: c.DebugSource},
			}
			fmt.Fprint(cmd.OutOrStdout(), a.renderer().Config(c.File, settings))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  exactArgs(0),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
