package api

import (
	"time"

	"github.com/dd0wney/cluso-storymap/pkg/entitygraph"
	"github.com/dd0wney/cluso-storymap/pkg/health"
	"github.com/dd0wney/cluso-storymap/pkg/visualization"
)

// LayoutRequest is the body of POST /layout and one entry of a batch
type LayoutRequest struct {
	Graph  entitygraph.Graph `json:"graph"`
	Width  float64           `json:"width"`
	Height float64           `json:"height"`
	// Seed makes the layout reproducible
	Seed *int64 `json:"seed,omitempty"`
}

func (r *LayoutRequest) viewport() visualization.Viewport {
	return visualization.Viewport{Width: r.Width, Height: r.Height}
}

// BatchLayoutRequest is the body of POST /layouts/batch
type BatchLayoutRequest struct {
	Requests []LayoutRequest `json:"requests"`
}

// BatchLayoutResult is one batch entry, at the index of its request
type BatchLayoutResult struct {
	Index    int                     `json:"index"`
	Layout   *visualization.Document `json:"layout,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Duration string                  `json:"duration"`
}

// BatchLayoutResponse is returned by POST /layouts/batch
type BatchLayoutResponse struct {
	Results []BatchLayoutResult `json:"results"`
	Count   int                 `json:"count"`
	Failed  int                 `json:"failed"`
	Time    string              `json:"time"`
}

// StreamMessage is sent by WebSocket clients. Each message restarts the
// session's layout; an omitted graph keeps the previous one, so a resize
// only needs the new width and height.
type StreamMessage struct {
	Graph  *entitygraph.Graph `json:"graph,omitempty"`
	Width  float64            `json:"width"`
	Height float64            `json:"height"`
}

// StreamError is pushed to a WebSocket client whose message was rejected.
// The session keeps running its previous layout.
type StreamError struct {
	Error string `json:"error"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Workers   int       `json:"workers"`
	Streams   int64     `json:"streams"`

	Checks map[string]health.Check `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
