package main

import (
	"fmt"
	"path"
	"strings"

	"github.com/dd0wney/cluso-storymap/pkg/logging"
	"github.com/dd0wney/cluso-storymap/pkg/tui"
	"github.com/dd0wney/cluso-storymap/pkg/validation"
	"github.com/spf13/cobra"
)

func (a *app) viewCmd() *cobra.Command {
	var seed int64

	cmd := &cobra.Command{
		Use:   "view <graph.json|url>",
		Short: "Watch a graph settle in the terminal",
		Long: "Opens the terminal viewer. Tab and Shift+Tab walk through the nodes,\n" +
			"r restarts the layout with a new seed and q quits.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			g, err := loadGraph(cmd.Context(), src)
			if err != nil {
				return err
			}
			if err := validation.ValidateGraph(g, a.cfg.Server.MaxNodes); err != nil {
				return fmt.Errorf("%s: %w", src, err)
			}

			opts := tui.Options{
				Title:         viewTitle(src),
				Layout:        a.cfg.Layout,
				FrameInterval: a.cfg.Server.FrameInterval,
				// the viewer owns the terminal, so stderr logging would tear the screen
				Logger: logging.NewNopLogger(),
			}
			if cmd.Flags().Changed("seed") {
				opts.Seed = &seed
			}
			return tui.Run(g, opts)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for a reproducible first layout")
	return cmd
}

// viewTitle is the last path element of a file or URL without its extension
func viewTitle(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	base := path.Base(strings.ReplaceAll(src, "\\", "/"))
	if base == "." || base == "/" {
		return "storymap"
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
