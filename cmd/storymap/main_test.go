package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-storymap/pkg/visualization"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and the error
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeWithLog(t, args...)
	return out, err
}

// executeWithLog also returns what the command logged to stderr
func executeWithLog(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	t.Setenv("STORYMAP_LAYOUT_MAX_TICKS", "15")

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func decodeDocuments(t *testing.T, out string) []visualization.Document {
	t.Helper()

	var docs []visualization.Document
	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	for scanner.Scan() {
		var doc visualization.Document
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &doc))
		docs = append(docs, doc)
	}
	require.NoError(t, scanner.Err())
	return docs
}

func nodeIDs(doc visualization.Document) []string {
	ids := make([]string, len(doc.Nodes))
	for i, n := range doc.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestLayoutJSON(t *testing.T) {
	out, err := execute(t, "layout", "testdata/dashwood.json", "--width", "800", "--height", "600", "--seed", "7")
	require.NoError(t, err)

	docs := decodeDocuments(t, out)
	require.Len(t, docs, 1)
	doc := docs[0]

	assert.True(t, doc.Done)
	assert.Equal(t, 15, doc.Tick)
	assert.Equal(t, visualization.Viewport{Width: 800, Height: 600}, doc.Viewport)
	assert.Equal(t, []string{"Elinor", "Marianne", "Barton Cottage"}, nodeIDs(doc))
	assert.Len(t, doc.Links, 2, "link to an unknown node is not drawn")

	cfg := visualization.DefaultLayoutConfig()
	for _, n := range doc.Nodes {
		assert.GreaterOrEqual(t, n.X, cfg.MarginX, n.ID)
		assert.LessOrEqual(t, n.X, 800-cfg.MarginX, n.ID)
		assert.GreaterOrEqual(t, n.Y, cfg.MarginY, n.ID)
		assert.LessOrEqual(t, n.Y, 600-cfg.MarginY, n.ID)
	}
}

func TestLayoutSeedReproducible(t *testing.T) {
	first, err := execute(t, "layout", "testdata/dashwood.json", "--seed", "42")
	require.NoError(t, err)
	second, err := execute(t, "layout", "testdata/dashwood.json", "--seed", "42")
	require.NoError(t, err)

	a, b := decodeDocuments(t, first), decodeDocuments(t, second)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Nodes, b[0].Nodes)
	assert.NotEqual(t, a[0].SimulationID, b[0].SimulationID)
}

func TestLayoutMultipleFilesKeepOrder(t *testing.T) {
	out, err := execute(t, "layout", "testdata/longbourn.json", "testdata/dashwood.json", "--seed", "1")
	require.NoError(t, err)

	docs := decodeDocuments(t, out)
	require.Len(t, docs, 2)
	assert.Equal(t, []string{"Elizabeth", "Militia"}, nodeIDs(docs[0]))
	assert.Equal(t, []string{"Elinor", "Marianne", "Barton Cottage"}, nodeIDs(docs[1]))
	for _, doc := range docs {
		assert.True(t, doc.Done)
		assert.Equal(t, 15, doc.Tick)
	}
}

func TestLayoutTable(t *testing.T) {
	out, err := execute(t, "layout", "testdata/dashwood.json", "--format", "table", "--seed", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "testdata/dashwood.json")
	assert.Contains(t, out, "3 nodes, 2 links, tick 15")
	assert.Contains(t, out, "settled")
	assert.Contains(t, out, "NEIGHBORS")
	assert.Contains(t, out, "Barton Cottage")
	assert.Contains(t, out, "Elinor, Barton Cottage, Willoughby")
	assert.Contains(t, out, "1 link(s) skipped")
	assert.Contains(t, out, "Marianne -> Willoughby")
}

func TestLayoutEmptyGraphTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"nodes": [], "links": []}`), 0o600))

	out, err := execute(t, "layout", path, "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "0 nodes, 0 links, tick 0")
	assert.Contains(t, out, "Nothing to place.")
}

func TestLayoutErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no files", []string{"layout"}, "requires at least 1 arg"},
		{"unknown format", []string{"layout", "testdata/dashwood.json", "--format", "xml"}, `unknown format "xml"`},
		{"negative width", []string{"layout", "testdata/dashwood.json", "--width", "-1"}, "invalid request"},
		{"missing file", []string{"layout", "testdata/missing.json"}, "open graph"},
		{"bad config", []string{"layout", "testdata/dashwood.json", "--config", "storymap.ini"}, "unsupported config format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, out)
		})
	}
}

func TestLayoutRespectsMaxNodes(t *testing.T) {
	t.Setenv("STORYMAP_SERVER_MAX_NODES", "2")

	_, err := execute(t, "layout", "testdata/dashwood.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many nodes")
	assert.Contains(t, err.Error(), "testdata/dashwood.json")
}

func TestConfigFileAppliesToLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storymap.toml")
	require.NoError(t, os.WriteFile(path, []byte("[layout]\nmargin_x = 100\nmargin_y = 100\n"), 0o600))

	out, err := execute(t, "--config", path, "layout", "testdata/longbourn.json", "--width", "400", "--height", "300")
	require.NoError(t, err)

	docs := decodeDocuments(t, out)
	require.Len(t, docs, 1)
	for _, n := range docs[0].Nodes {
		assert.GreaterOrEqual(t, n.X, 100.0)
		assert.LessOrEqual(t, n.X, 300.0)
		assert.GreaterOrEqual(t, n.Y, 100.0)
		assert.LessOrEqual(t, n.Y, 200.0)
	}
}

func TestLogLevelFlag(t *testing.T) {
	_, err := execute(t, "--log-level", "debug", "layout", "testdata/longbourn.json")
	require.NoError(t, err)
}

func TestLayoutLogsBatch(t *testing.T) {
	_, log, err := executeWithLog(t, "layout", "--seed", "5", "testdata/longbourn.json")
	require.NoError(t, err)
	assert.Contains(t, log, `"msg":"layout batch"`)
	assert.Contains(t, log, `"seeded":true`)

	_, log, err = executeWithLog(t, "layout", "testdata/longbourn.json")
	require.NoError(t, err)
	assert.Contains(t, log, `"seeded":false`)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "storymap "))
}

func TestViewTitle(t *testing.T) {
	tests := map[string]string{
		"graphs/chapter1.json":                   "chapter1",
		"chapter1.json":                          "chapter1",
		"https://analysis.local/graphs/ch2.json": "ch2",
		"https://analysis.local/graph?chapter=3": "graph",
		`C:\stories\emma.json`:                   "emma",
		"":                                       "storymap",
	}
	for src, want := range tests {
		assert.Equal(t, want, viewTitle(src), src)
	}
}

func TestPrintTableAligns(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()

	var buf bytes.Buffer
	printTable(&buf, []string{"ID", "TYPE"}, [][]cell{
		{plain("Elinor"), plain("character")},
		{plain("Ann"), plain("-")},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "  ID      TYPE", lines[0])
	assert.Equal(t, "  ──────  ─────────", lines[1])
	assert.Equal(t, "  Elinor  character", lines[2])
	assert.Equal(t, "  Ann     -", lines[3])
}

func TestPrintTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []string{"ID"}, nil)
	assert.Empty(t, buf.String())
}
