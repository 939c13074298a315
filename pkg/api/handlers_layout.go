package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dd0wney/cluso-storymap/pkg/entitygraph"
	"github.com/dd0wney/cluso-storymap/pkg/graphql"
	"github.com/dd0wney/cluso-storymap/pkg/logging"
	"github.com/dd0wney/cluso-storymap/pkg/parallel"
	"github.com/dd0wney/cluso-storymap/pkg/validation"
	"github.com/dd0wney/cluso-storymap/pkg/visualization"
)

type storyVisualization = visualization.Visualization[entitygraph.Node, entitygraph.Link]

func (s *Server) validateLayout(req *LayoutRequest) error {
	if err := validation.ValidateGraph(&req.Graph, s.cfg.MaxNodes); err != nil {
		return err
	}
	return validation.ValidateViewport(req.Width, req.Height)
}

// render pairs a snapshot with its graph for output
func render(g *entitygraph.Graph, vp visualization.Viewport, snap visualization.Snapshot) visualization.Document {
	v := storyVisualization{Nodes: g.Nodes, Edges: g.Links, Viewport: vp, Snapshot: snap}
	return v.Document()
}

func (s *Server) layoutOptions(seed *int64) visualization.Options {
	opts := visualization.Options{Observer: s.metrics, Logger: s.logger}
	if seed != nil {
		opts.Rand = visualization.NewSeededRand(*seed)
	}
	return opts
}

// compute lays out an already validated graph to completion
func (s *Server) compute(ctx context.Context, surface string, g *entitygraph.Graph, vp visualization.Viewport, seed *int64) (visualization.Document, error) {
	start := time.Now()
	snap, err := visualization.Compute(ctx, g.Nodes, g.Links, vp, s.layoutCfg, s.layoutOptions(seed))
	if err != nil {
		s.metrics.RecordLayout(surface, "error", time.Since(start))
		return visualization.Document{}, err
	}
	s.metrics.RecordLayout(surface, "ok", time.Since(start))
	return render(g, vp, snap), nil
}

// validatedLayout adapts compute for callers that bypass the request
// decoder
func (s *Server) validatedLayout(surface string) graphql.LayoutFunc {
	return func(ctx context.Context, g *entitygraph.Graph, vp visualization.Viewport, seed *int64) (visualization.Document, error) {
		if err := validation.ValidateGraph(g, s.cfg.MaxNodes); err != nil {
			return visualization.Document{}, err
		}
		if err := validation.ValidateViewport(vp.Width, vp.Height); err != nil {
			return visualization.Document{}, err
		}
		return s.compute(ctx, surface, g, vp, seed)
	}
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		var req LayoutRequest
		if s.NewRequestDecoder(w, r).DecodeJSON(&req).ValidateLayout(&req).RespondError() {
			return
		}

		doc, err := s.compute(r.Context(), "http", &req.Graph, req.viewport(), req.Seed)
		if err != nil {
			s.respondError(w, statusForError(err), s.sanitizeError(err, "layout"))
			return
		}
		s.respondJSON(w, http.StatusOK, doc)
	}).NotAllowed()
}

func (s *Server) handleBatchLayout(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		var req BatchLayoutRequest
		if s.NewRequestDecoder(w, r).DecodeJSON(&req).ValidateBatch(&req).RespondError() {
			return
		}

		start := time.Now()
		jobs := make([]parallel.Job[entitygraph.Node, entitygraph.Link], len(req.Requests))
		for i := range req.Requests {
			lr := &req.Requests[i]
			jobs[i] = parallel.Job[entitygraph.Node, entitygraph.Link]{
				Nodes:    lr.Graph.Nodes,
				Edges:    lr.Graph.Links,
				Viewport: lr.viewport(),
				Seed:     lr.Seed,
			}
		}

		results := parallel.LayoutBatch(r.Context(), s.pool, jobs, s.layoutCfg, s.layoutOptions(nil))

		resp := BatchLayoutResponse{
			Results: make([]BatchLayoutResult, len(results)),
			Count:   len(results),
		}
		for i, res := range results {
			entry := BatchLayoutResult{Index: i, Duration: res.Duration.String()}
			if res.Err != nil {
				s.metrics.RecordLayout("batch", "error", res.Duration)
				entry.Error = s.sanitizeError(res.Err, "layout")
				resp.Failed++
			} else {
				s.metrics.RecordLayout("batch", "ok", res.Duration)
				doc := render(&req.Requests[i].Graph, jobs[i].Viewport, res.Snapshot)
				entry.Layout = &doc
			}
			resp.Results[i] = entry
		}
		resp.Time = time.Since(start).String()

		s.logger.Debug("batch layout finished",
			logging.Int("count", resp.Count),
			logging.Int("failed", resp.Failed),
			logging.Latency(time.Since(start)))
		s.respondJSON(w, http.StatusOK, resp)
	}).NotAllowed()
}
