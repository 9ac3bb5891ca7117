// AngelaMos | 2026
// schema.go

package graph

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/graph-gophers/graphql-go"

	"github.com/auratrack/auratrack-api/internal/config"
)

//go:embed schema.graphql
var schemaSDL string

type panicLogger struct{}

func (panicLogger) LogPanic(ctx context.Context, value any) {
	slog.ErrorContext(ctx, "graphql resolver panic",
		"panic", fmt.Sprint(value),
		"stack", string(debug.Stack()),
	)
}

// NewSchema parses the embedded SDL against the resolver. A resolver that
// does not cover the schema is a programming error and panics at start-up.
func NewSchema(r *Resolver, cfg config.GraphQLConfig) *graphql.Schema {
	opts := []graphql.SchemaOpt{
		graphql.Logger(panicLogger{}),
	}

	if cfg.MaxDepth > 0 {
		opts = append(opts, graphql.MaxDepth(cfg.MaxDepth))
	}

	if !cfg.Introspection {
		opts = append(opts, graphql.DisableIntrospection())
	}

	return graphql.MustParseSchema(schemaSDL, r, opts...)
}
