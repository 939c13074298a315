package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/cluso-storymap/pkg/entitygraph"
	"github.com/dd0wney/cluso-storymap/pkg/logging"
	"github.com/dd0wney/cluso-storymap/pkg/parallel"
	"github.com/dd0wney/cluso-storymap/pkg/validation"
	"github.com/dd0wney/cluso-storymap/pkg/visualization"
	"github.com/spf13/cobra"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

type layoutFlags struct {
	width, height float64
	seed          int64
	seeded        bool
	format        string
}

// layoutOutput is one finished layout of the command
type layoutOutput struct {
	source   string
	graph    *entitygraph.Graph
	doc      visualization.Document
	json     []byte
	duration time.Duration
}

func (a *app) layoutCmd() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "layout <graph.json|url>...",
		Short: "Lay out graph documents and print the settled positions",
		Long: "Runs the simulation to completion for each graph document and prints the\n" +
			"render document as JSON (one line per graph) or as a table.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.seeded = cmd.Flags().Changed("seed")
			return a.runLayout(cmd.Context(), cmd.OutOrStdout(), args, flags)
		},
	}

	cmd.Flags().Float64Var(&flags.width, "width", 960, "Viewport width")
	cmd.Flags().Float64Var(&flags.height, "height", 640, "Viewport height")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "Seed for reproducible layouts")
	cmd.Flags().StringVarP(&flags.format, "format", "f", formatJSON, "Output format: json or table")
	return cmd
}

func (a *app) runLayout(ctx context.Context, w io.Writer, sources []string, flags layoutFlags) error {
	if flags.format != formatJSON && flags.format != formatTable {
		return fmt.Errorf("unknown format %q, want json or table", flags.format)
	}
	if err := validation.ValidateViewport(flags.width, flags.height); err != nil {
		return err
	}

	graphs := make([]*entitygraph.Graph, len(sources))
	for i, src := range sources {
		g, err := loadGraph(ctx, src)
		if err != nil {
			return err
		}
		if err := validation.ValidateGraph(g, a.cfg.Server.MaxNodes); err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		graphs[i] = g
	}

	outputs, err := a.layoutAll(ctx, sources, graphs, visualization.Viewport{Width: flags.width, Height: flags.height}, flags)
	if err != nil {
		return err
	}

	for i, out := range outputs {
		if flags.format == formatJSON {
			if _, err := fmt.Fprintln(w, string(out.json)); err != nil {
				return err
			}
			continue
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		printLayoutTable(w, out)
	}
	return nil
}

// layoutAll computes every graph on the worker pool, keeping input order
func (a *app) layoutAll(ctx context.Context, sources []string, graphs []*entitygraph.Graph, vp visualization.Viewport, flags layoutFlags) ([]layoutOutput, error) {
	pool, err := parallel.NewWorkerPool(min(a.cfg.Server.Workers, len(graphs)), a.logger)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	jobs := make([]parallel.Job[entitygraph.Node, entitygraph.Link], len(graphs))
	for i, g := range graphs {
		jobs[i] = parallel.Job[entitygraph.Node, entitygraph.Link]{Nodes: g.Nodes, Edges: g.Links, Viewport: vp}
		if flags.seeded {
			seed := flags.seed
			jobs[i].Seed = &seed
		}
	}

	timer := logging.StartTimer(a.logger, "layout batch",
		logging.Int("graphs", len(graphs)),
		logging.Bool("seeded", flags.seeded))
	results := parallel.LayoutBatch(ctx, pool, jobs, a.cfg.Layout, visualization.Options{Logger: a.logger})
	timer.End()

	outputs := make([]layoutOutput, len(results))
	for i, res := range results {
		if res.Err != nil {
			return nil, fmt.Errorf("%s: %w", sources[i], res.Err)
		}
		v := visualization.Visualization[entitygraph.Node, entitygraph.Link]{
			Nodes:    graphs[i].Nodes,
			Edges:    graphs[i].Links,
			Viewport: vp,
			Snapshot: res.Snapshot,
		}
		data, err := v.ExportJSON()
		if err != nil {
			return nil, fmt.Errorf("%s: encode layout: %w", sources[i], err)
		}
		outputs[i] = layoutOutput{
			source:   sources[i],
			graph:    graphs[i],
			doc:      v.Document(),
			json:     data,
			duration: res.Duration,
		}
	}
	return outputs, nil
}

func printLayoutTable(w io.Writer, out layoutOutput) {
	status := good.Sprint("settled")
	if !out.doc.Done {
		status = warn.Sprint("stopped")
	}
	fmt.Fprintf(w, "%s  %s\n", brand.Sprint(out.source), subtle.Sprintf("%d nodes, %d links, tick %d, %s",
		len(out.doc.Nodes), len(out.doc.Links), out.doc.Tick, out.duration.Round(time.Microsecond)))
	fmt.Fprintf(w, "  %s  %s\n\n", status, subtle.Sprintf("viewport %gx%g", out.doc.Viewport.Width, out.doc.Viewport.Height))

	if len(out.doc.Nodes) == 0 {
		subtle.Fprintln(w, "  Nothing to place.")
		return
	}

	rows := make([][]cell, 0, len(out.doc.Nodes))
	for _, n := range out.doc.Nodes {
		rows = append(rows, []cell{
			{text: n.ID, paint: typeColor(n.Type)},
			plain(orDash(n.Type)),
			plain(strconv.FormatFloat(n.X, 'f', 1, 64)),
			plain(strconv.FormatFloat(n.Y, 'f', 1, 64)),
			plain(strings.Join(out.graph.Neighbors(n.ID), ", ")),
		})
	}
	printTable(w, []string{"ID", "TYPE", "X", "Y", "NEIGHBORS"}, rows)

	if dangling := out.graph.Dangling(); len(dangling) > 0 {
		fmt.Fprintln(w)
		warn.Fprintf(w, "  %d link(s) skipped, endpoint not among the nodes:\n", len(dangling))
		for _, l := range dangling {
			src, dst := l.LayoutEndpoints()
			subtle.Fprintf(w, "    %s -> %s\n", src, dst)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// loadGraph reads a graph from a local file or an http(s) URL
func loadGraph(ctx context.Context, src string) (*entitygraph.Graph, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		g, err := entitygraph.Fetch(ctx, nil, src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src, err)
		}
		return g, nil
	}
	return entitygraph.LoadFile(src)
}
