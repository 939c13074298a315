package graphql

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// DefaultMaxDepth is deep enough for every query the layout schema allows
const DefaultMaxDepth = 5

// depthWalker measures selection depth, expanding named fragments in place.
// Introspection fields (__schema, __type) don't count.
type depthWalker struct {
	fragments map[string]*ast.FragmentDefinition
	// expanding guards against fragment cycles, which the validator
	// reports separately
	expanding map[string]bool
}

func newDepthWalker(doc *ast.Document) *depthWalker {
	w := &depthWalker{
		fragments: make(map[string]*ast.FragmentDefinition),
		expanding: make(map[string]bool),
	}
	for _, def := range doc.Definitions {
		if frag, ok := def.(*ast.FragmentDefinition); ok && frag.Name != nil {
			w.fragments[frag.Name.Value] = frag
		}
	}
	return w
}

func (w *depthWalker) document(doc *ast.Document) int {
	deepest := 0
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			deepest = max(deepest, w.selections(op.SelectionSet, 1))
		}
	}
	return deepest
}

func (w *depthWalker) selections(set *ast.SelectionSet, depth int) int {
	if set == nil {
		return depth
	}

	deepest := depth
	for _, selection := range set.Selections {
		switch sel := selection.(type) {
		case *ast.Field:
			if strings.HasPrefix(sel.Name.Value, "__") || sel.SelectionSet == nil {
				continue
			}
			deepest = max(deepest, w.selections(sel.SelectionSet, depth+1))
		case *ast.InlineFragment:
			deepest = max(deepest, w.selections(sel.SelectionSet, depth))
		case *ast.FragmentSpread:
			name := sel.Name.Value
			frag, ok := w.fragments[name]
			if !ok || w.expanding[name] {
				continue
			}
			w.expanding[name] = true
			deepest = max(deepest, w.selections(frag.SelectionSet, depth))
			delete(w.expanding, name)
		}
	}
	return deepest
}

// ValidateQueryDepth parses query and rejects it when its selections nest
// deeper than maxDepth
func ValidateQueryDepth(query string, maxDepth int) error {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return fmt.Errorf("failed to parse query: %w", err)
	}

	if depth := newDepthWalker(doc).document(doc); depth > maxDepth {
		return fmt.Errorf("query depth %d exceeds maximum allowed depth %d", depth, maxDepth)
	}
	return nil
}
