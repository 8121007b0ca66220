// Package reader holds demo SchemaReader implementations: thin
// database/sql-backed introspectors that turn a live MySQL, Postgres, or
// SQLite schema into a schema.SchemaDescriptor the Orchestrator can
// consume. These are a runnable host for the core pipeline, generalizing
// the teacher's own internal/introspect (single-dialect, MySQL-only)
// across three dialects and adding CHECK-expression extraction, which the
// teacher never needed since it didn't have a ConstraintParser.
package reader

import (
	"context"

	"github.com/dbsynth/dbsynth/internal/schema"
)

// SchemaReader introspects a live database connection into the pipeline's
// table/column/FK data model.
type SchemaReader interface {
	ReadSchema(ctx context.Context) (*schema.SchemaDescriptor, error)
}
