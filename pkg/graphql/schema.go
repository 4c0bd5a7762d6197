package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/mnohosten/ptstem/pkg/toolkit"
)

// Schema creates and returns the GraphQL schema over tk. Queries that omit
// the algorithm argument use defaultAlgorithm.
func Schema(tk *toolkit.Toolkit, defaultAlgorithm string) (graphql.Schema, error) {
	algorithmType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Algorithm",
		Description: "A registered stemming algorithm",
		Fields: graphql.Fields{
			"name": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.String),
				Description: "Algorithm name",
			},
			"loaded": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Boolean),
				Description: "Whether the profile has been loaded",
			},
		},
	})

	stemResultType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "StemResult",
		Description: "A word and its stem",
		Fields: graphql.Fields{
			"word": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"stem": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	stepTraceType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "StepTrace",
		Description: "What one step did to the word",
		Fields: graphql.Fields{
			"step":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"input":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"output":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"matched": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"suffix": &graphql.Field{
				Type:        graphql.String,
				Description: "Suffix of the last rule applied",
			},
		},
	})

	explanationType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Explanation",
		Description: "A step by step account of a stemming run",
		Fields: graphql.Fields{
			"algorithm":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"profile":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"input":             &graphql.Field{Type: graphql.NewNonNull(graphql.String), Description: "Normalized input"},
			"stem":              &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"exception":         &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean), Description: "Resolved by the exception table"},
			"ignored":           &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean), Description: "On the ignore list"},
			"diacriticsRemoved": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"steps":             &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(stepTraceType))},
		},
	})

	cacheStatsType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "CacheStats",
		Description: "Stem cache statistics",
		Fields: graphql.Fields{
			"capacity":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"size":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"hits":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"misses":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"evictions": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"hitRate":   &graphql.Field{Type: graphql.NewNonNull(graphql.Float), Description: "Hit rate in percent"},
		},
	})

	resolver := NewResolver(tk, defaultAlgorithm)

	algorithmArg := &graphql.ArgumentConfig{
		Type:        graphql.String,
		Description: "Algorithm name (server default when omitted)",
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Query",
		Description: "Root query type",
		Fields: graphql.Fields{
			"stem": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.String),
				Description: "Stem a single word",
				Args: graphql.FieldConfigArgument{
					"word": &graphql.ArgumentConfig{
						Type:        graphql.NewNonNull(graphql.String),
						Description: "Word to stem",
					},
					"algorithm": algorithmArg,
				},
				Resolve: resolver.Stem,
			},
			"stemAll": &graphql.Field{
				Type:        graphql.NewList(graphql.NewNonNull(stemResultType)),
				Description: "Stem several words in order",
				Args: graphql.FieldConfigArgument{
					"words": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String))),
					},
					"algorithm": algorithmArg,
				},
				Resolve: resolver.StemAll,
			},
			"stemPhrase": &graphql.Field{
				Type:        graphql.NewList(graphql.NewNonNull(graphql.String)),
				Description: "Stem every whitespace separated token of a phrase",
				Args: graphql.FieldConfigArgument{
					"text": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.String),
					},
					"algorithm": algorithmArg,
				},
				Resolve: resolver.StemPhrase,
			},
			"algorithms": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(algorithmType))),
				Description: "List registered algorithms",
				Resolve:     resolver.Algorithms,
			},
			"explain": &graphql.Field{
				Type:        explanationType,
				Description: "Trace how a word is stemmed",
				Args: graphql.FieldConfigArgument{
					"word": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.String),
					},
					"algorithm": algorithmArg,
				},
				Resolve: resolver.Explain,
			},
			"cacheStats": &graphql.Field{
				Type:        cacheStatsType,
				Description: "Stem cache statistics, null when caching is disabled",
				Resolve:     resolver.CacheStats,
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create GraphQL schema: %w", err)
	}

	return schema, nil
}
