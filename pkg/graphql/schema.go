package graphql

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-storymap/pkg/entitygraph"
	"github.com/dd0wney/cluso-storymap/pkg/visualization"
	"github.com/graphql-go/graphql"
)

// LayoutFunc lays out one graph to completion. A nil seed means a
// clock-seeded layout.
type LayoutFunc func(ctx context.Context, g *entitygraph.Graph, vp visualization.Viewport, seed *int64) (visualization.Document, error)

var nodeInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "NodeInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"id":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"type":     &graphql.InputObjectFieldConfig{Type: graphql.String},
		"mentions": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.String)},
	},
})

var linkInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "LinkInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"source":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"target":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"relation": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"sceneId":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		"sentence": &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

var graphInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "GraphInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"nodes": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(nodeInputType)))},
		"links": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(linkInputType))},
	},
})

var nodePositionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "NodePosition",
	Fields: graphql.Fields{
		"id":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"type": &graphql.Field{Type: graphql.String},
		"x":    &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"y":    &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
	},
})

var linkViewType = graphql.NewObject(graphql.ObjectConfig{
	Name: "LinkView",
	Fields: graphql.Fields{
		"source":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"target":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"relation": &graphql.Field{Type: graphql.String},
	},
})

var layoutResultType = graphql.NewObject(graphql.ObjectConfig{
	Name: "LayoutResult",
	Fields: graphql.Fields{
		"simulationId": &graphql.Field{Type: graphql.String},
		"tick":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"done":         &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"width":        &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"height":       &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"nodes":        &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(nodePositionType)))},
		"links":        &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(linkViewType)))},
	},
})

var layoutConfigType = graphql.NewObject(graphql.ObjectConfig{
	Name: "LayoutConfig",
	Fields: graphql.Fields{
		"repulsion":    &graphql.Field{Type: graphql.Float},
		"attraction":   &graphql.Field{Type: graphql.Float},
		"linkDistance": &graphql.Field{Type: graphql.Float},
		"centerForce":  &graphql.Field{Type: graphql.Float},
		"damping":      &graphql.Field{Type: graphql.Float},
		"maxTicks":     &graphql.Field{Type: graphql.Int},
		"publishEvery": &graphql.Field{Type: graphql.Int},
		"marginX":      &graphql.Field{Type: graphql.Float},
		"marginY":      &graphql.Field{Type: graphql.Float},
	},
})

// NewSchema builds the layout schema:
//
//	layout(graph: GraphInput!, width: Float!, height: Float!, seed: Int): LayoutResult
//	layoutConfig: LayoutConfig
func NewSchema(layout LayoutFunc, cfg visualization.LayoutConfig) (graphql.Schema, error) {
	if layout == nil {
		return graphql.Schema{}, fmt.Errorf("layout function is required")
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return "ok", nil
				},
			},
			"layoutConfig": &graphql.Field{
				Type: layoutConfigType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return cfg, nil
				},
			},
			"layout": &graphql.Field{
				Type: layoutResultType,
				Args: graphql.FieldConfigArgument{
					"graph":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphInputType)},
					"width":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"height": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"seed":   &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: layoutResolver(layout),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

func layoutResolver(layout LayoutFunc) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		g, err := graphFromArgs(p.Args["graph"])
		if err != nil {
			return nil, err
		}

		width, _ := p.Args["width"].(float64)
		height, _ := p.Args["height"].(float64)
		vp := visualization.Viewport{Width: width, Height: height}

		var seed *int64
		if s, ok := p.Args["seed"].(int); ok {
			v := int64(s)
			seed = &v
		}

		ctx := p.Context
		if ctx == nil {
			ctx = context.Background()
		}

		doc, err := layout(ctx, g, vp, seed)
		if err != nil {
			return nil, err
		}

		return map[string]any{
			"simulationId": doc.SimulationID,
			"tick":         doc.Tick,
			"done":         doc.Done,
			"width":        doc.Viewport.Width,
			"height":       doc.Viewport.Height,
			"nodes":        doc.Nodes,
			"links":        doc.Links,
		}, nil
	}
}

// graphFromArgs converts a GraphInput argument into an entity graph
func graphFromArgs(arg any) (*entitygraph.Graph, error) {
	m, ok := arg.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("graph argument is required")
	}

	g := &entitygraph.Graph{Nodes: []entitygraph.Node{}, Links: []entitygraph.Link{}}

	nodes, _ := m["nodes"].([]any)
	for _, raw := range nodes {
		n, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		node := entitygraph.Node{ID: stringArg(n, "id"), Type: stringArg(n, "type")}
		if mentions, ok := n["mentions"].([]any); ok {
			for _, mention := range mentions {
				if s, ok := mention.(string); ok {
					node.Mentions = append(node.Mentions, s)
				}
			}
		}
		g.Nodes = append(g.Nodes, node)
	}

	links, _ := m["links"].([]any)
	for _, raw := range links {
		l, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		g.Links = append(g.Links, entitygraph.Link{
			Source:   entitygraph.IDRef(stringArg(l, "source")),
			Target:   entitygraph.IDRef(stringArg(l, "target")),
			Relation: stringArg(l, "relation"),
			SceneID:  stringArg(l, "sceneId"),
			Sentence: stringArg(l, "sentence"),
		})
	}

	return g, nil
}

func stringArg(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
