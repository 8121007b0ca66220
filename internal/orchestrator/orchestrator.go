// Package orchestrator wires together the ConstraintParser (implicitly, via
// RowGenerator), TopologicalSorter, RowGenerator, and ForeignKeyResolver
// into the single top-level Run entry point the rest of the system calls.
package orchestrator

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/dbsynth/dbsynth/internal/config"
	"github.com/dbsynth/dbsynth/internal/dictionary"
	"github.com/dbsynth/dbsynth/internal/fkresolve"
	"github.com/dbsynth/dbsynth/internal/genvalue"
	"github.com/dbsynth/dbsynth/internal/rowgen"
	"github.com/dbsynth/dbsynth/internal/schema"
	"github.com/dbsynth/dbsynth/internal/topsort"
)

const defaultRowsPerTable = 10

// ProgressFunc is called once per table, in topological order, as it
// finishes generating. Hosts use it to drive a progress bar; the core
// never blocks on it.
type ProgressFunc func(table string, rowCount int)

// Run executes the full pipeline: apply pkUuidOverrides, topologically sort
// the schema, compute the effective deferred flag, generate every table's
// rows, resolve foreign keys, and return the assembled result.
//
// ctx is polled for cancellation between tables; on cancellation Run
// returns ctx.Err() and no partial GenerationResult.
func Run(ctx context.Context, desc *schema.SchemaDescriptor, cfg *config.Config, seed uint64, progress ProgressFunc) (*schema.GenerationResult, error) {
	if desc == nil {
		return nil, fmt.Errorf("orchestrator: nil schema input")
	}

	patched := applyPKUuidOverrides(desc, cfg)
	tableMap := patched.TableMap()

	sortResult, err := topsort.Sort(patched.Tables)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	effectiveDeferred := cfg.Options.Deferred || topsort.RequiresDeferredDueToNonNullableCycles(sortResult, tableMap)

	words := dictionary.Load(cfg.Options.UseLatinDictionary, cfg.Options.UseEnglishDictionary, cfg.Options.UseSpanishDictionary)

	usedUUIDs := genvalue.NewUUIDSet()
	gen := genvalue.New(seed, words, cfg.NumericScale(), usedUUIDs)

	rowsByTable := make(map[string][]*schema.Row, len(sortResult.Order))
	for _, name := range sortResult.Order {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		table := tableMap[name]
		if table == nil {
			continue
		}

		rg := rowgen.New(
			table,
			cfg.RowsPerTable(name, defaultRowsPerTable),
			cfg.ExcludedColumns(name),
			cfg.RepetitionRules(name),
			gen,
			cfg.SoftDeleteColumns(),
			cfg.Options.SoftDeleteUseSchemaDefault,
			cfg.Options.SoftDeleteValue,
		)
		rows, err := rg.Generate()
		if err != nil {
			return nil, fmt.Errorf("orchestrator: generating rows for table %s: %w", name, err)
		}
		rowsByTable[name] = rows
		if progress != nil {
			progress(name, len(rows))
		}
	}

	resolver := fkresolve.New(sortResult.Order, tableMap, rowsByTable, effectiveDeferred, rand.New(rand.NewPCG(seed, seed+1)))
	pending, err := resolver.Resolve()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: resolving foreign keys: %w", err)
	}

	result := schema.NewGenerationResult()
	for _, name := range sortResult.Order {
		table := tableMap[name]
		if table == nil {
			continue
		}
		result.Add(table, rowsByTable[name])
	}
	result.PendingUpdates = pending
	result.EffectiveDeferred = effectiveDeferred

	return result, nil
}

// applyPKUuidOverrides returns a descriptor whose tables have been patched
// so that every column named in a table's pkUuidOverrides config carries
// Uuid=true and a string-flavored type, leaving everything else (including
// table identity) untouched.
func applyPKUuidOverrides(desc *schema.SchemaDescriptor, cfg *config.Config) *schema.SchemaDescriptor {
	patched := &schema.SchemaDescriptor{Tables: make([]*schema.Table, len(desc.Tables))}
	for i, t := range desc.Tables {
		overrides := cfg.PKUuidOverrides(t.Name)
		if len(overrides) == 0 {
			patched.Tables[i] = t
			continue
		}
		clone := t.Clone()
		for _, col := range clone.Columns {
			if !overrides[col.Name] {
				continue
			}
			col.Uuid = true
			if col.Type != schema.TypeUuid && !col.Type.IsStringType() {
				col.Type = schema.TypeVarchar
			}
			clone.SetColumn(col.Name, col)
		}
		patched.Tables[i] = clone
	}
	return patched
}
