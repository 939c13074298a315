package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dd0wney/cluso-storymap/pkg/entitygraph"
	"github.com/fatih/color"
)

var (
	brand  = color.New(color.FgHiCyan, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

var typeColors = map[string]*color.Color{
	entitygraph.TypeCharacter:    color.New(color.FgHiMagenta),
	entitygraph.TypeLocation:     color.New(color.FgHiGreen),
	entitygraph.TypeOrganization: color.New(color.FgHiYellow),
}

func typeColor(t string) *color.Color {
	if c, ok := typeColors[t]; ok {
		return c
	}
	return subtle
}

// cell is one table value; paint colors it after padding so escape codes
// don't skew the column widths
type cell struct {
	text  string
	paint *color.Color
}

func plain(s string) cell { return cell{text: s} }

// printTable writes an aligned table with a dimmed header
func printTable(w io.Writer, headers []string, rows [][]cell) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, c := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(c.text))
			}
		}
	}

	var head, sep strings.Builder
	head.WriteString("  ")
	sep.WriteString("  ")
	for i, h := range headers {
		fmt.Fprintf(&head, "%-*s  ", widths[i], h)
		sep.WriteString(strings.Repeat("─", widths[i]) + "  ")
	}
	subtle.Fprintln(w, strings.TrimRight(head.String(), " "))
	subtle.Fprintln(w, strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		var line strings.Builder
		line.WriteString("  ")
		for i, c := range row {
			if i >= len(widths) {
				break
			}
			padded := c.text + strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c.text))
			if i == len(row)-1 {
				padded = c.text
			}
			if c.paint != nil {
				padded = c.paint.Sprint(padded)
			}
			line.WriteString(padded)
			if i < len(row)-1 {
				line.WriteString("  ")
			}
		}
		fmt.Fprintln(w, line.String())
	}
}
