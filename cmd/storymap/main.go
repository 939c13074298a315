// Command storymap lays out story entity graphs as JSON or tables, serves
// the layout API and runs the terminal viewer.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		bad.Fprintf(os.Stderr, "storymap: %v\n", err)
		os.Exit(1)
	}
}
