package entitygraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// MaxDocumentSize bounds how much of a graph document is read
const MaxDocumentSize = 8 << 20

// Decode reads one graph document
func Decode(r io.Reader) (*Graph, error) {
	var g Graph
	dec := json.NewDecoder(io.LimitReader(r, MaxDocumentSize))
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Links == nil {
		g.Links = []Link{}
	}
	return &g, nil
}

// LoadFile decodes the graph stored at path
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	defer f.Close()

	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Fetch GETs a graph document from the analysis service. A nil client uses
// a client with a 30 second timeout.
func Fetch(ctx context.Context, client *http.Client, url string) (*Graph, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch graph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch graph: unexpected status %s", resp.Status)
	}
	return Decode(resp.Body)
}
