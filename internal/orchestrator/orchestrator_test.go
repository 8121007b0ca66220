package orchestrator

import (
	"context"
	"testing"

	"github.com/dbsynth/dbsynth/internal/config"
	"github.com/dbsynth/dbsynth/internal/schema"
)

func emptyConfig() *config.Config {
	return &config.Config{Tables: make(map[string]config.TableConfig)}
}

func TestRunLinearDependency(t *testing.T) {
	parent := &schema.Table{
		Name:       "parent",
		Columns:    []schema.Column{{Name: "id", Type: schema.TypeInteger32, PK: true}},
		PrimaryKey: []string{"id"},
	}
	child := &schema.Table{
		Name: "child",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger32, PK: true},
			{Name: "parent_id", Type: schema.TypeInteger32, Nullable: false},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []schema.ForeignKey{
			{Name: "fk_parent", ParentTable: "parent", Columns: []schema.FKColumnPair{{ChildColumn: "parent_id", ParentColumn: "id"}}},
		},
	}
	desc := &schema.SchemaDescriptor{Tables: []*schema.Table{child, parent}}
	cfg := emptyConfig()
	cfg.Tables["parent"] = config.TableConfig{RowsPerTable: 1}
	cfg.Tables["child"] = config.TableConfig{RowsPerTable: 1}

	result, err := Run(context.Background(), desc, cfg, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Order[0] != "parent" || result.Order[1] != "child" {
		t.Fatalf("expected order [parent child], got %v", result.Order)
	}
	if len(result.PendingUpdates) != 0 {
		t.Fatalf("expected no pending updates, got %v", result.PendingUpdates)
	}
	parentID, _ := result.RowsByTable["parent"].Rows[0].Get("id")
	childParentID, _ := result.RowsByTable["child"].Rows[0].Get("parent_id")
	if childParentID.Int() != parentID.Int() {
		t.Fatalf("expected child.parent_id == parent.id, got %v vs %v", childParentID, parentID)
	}
}

func TestRunMutualCycleNullableDeferredStaysFalse(t *testing.T) {
	a := &schema.Table{
		Name: "a",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger32, PK: true},
			{Name: "b_id", Type: schema.TypeInteger32, Nullable: true},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []schema.ForeignKey{
			{Name: "fk_b", ParentTable: "b", Columns: []schema.FKColumnPair{{ChildColumn: "b_id", ParentColumn: "id"}}},
		},
	}
	b := &schema.Table{
		Name: "b",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger32, PK: true},
			{Name: "a_id", Type: schema.TypeInteger32, Nullable: true},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []schema.ForeignKey{
			{Name: "fk_a", ParentTable: "a", Columns: []schema.FKColumnPair{{ChildColumn: "a_id", ParentColumn: "id"}}},
		},
	}
	desc := &schema.SchemaDescriptor{Tables: []*schema.Table{a, b}}
	cfg := emptyConfig()
	cfg.Tables["a"] = config.TableConfig{RowsPerTable: 1}
	cfg.Tables["b"] = config.TableConfig{RowsPerTable: 1}

	result, err := Run(context.Background(), desc, cfg, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.PendingUpdates) == 0 {
		t.Fatalf("expected a pending update for the forward-referencing side of the cycle")
	}
}

func TestRunMutualCycleNonNullableForcesDeferred(t *testing.T) {
	a := &schema.Table{
		Name: "a",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger32, PK: true},
			{Name: "b_id", Type: schema.TypeInteger32, Nullable: false},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []schema.ForeignKey{
			{Name: "fk_b", ParentTable: "b", Columns: []schema.FKColumnPair{{ChildColumn: "b_id", ParentColumn: "id"}}},
		},
	}
	b := &schema.Table{
		Name: "b",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger32, PK: true},
			{Name: "a_id", Type: schema.TypeInteger32, Nullable: true},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []schema.ForeignKey{
			{Name: "fk_a", ParentTable: "a", Columns: []schema.FKColumnPair{{ChildColumn: "a_id", ParentColumn: "id"}}},
		},
	}
	desc := &schema.SchemaDescriptor{Tables: []*schema.Table{a, b}}
	cfg := emptyConfig()
	cfg.Tables["a"] = config.TableConfig{RowsPerTable: 1}
	cfg.Tables["b"] = config.TableConfig{RowsPerTable: 1}

	result, err := Run(context.Background(), desc, cfg, 9, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.PendingUpdates) != 0 {
		t.Fatalf("expected no pending updates once deferred is forced, got %v", result.PendingUpdates)
	}
	aRow := result.RowsByTable["a"].Rows[0]
	v, _ := aRow.Get("b_id")
	if v.IsNull() {
		t.Fatalf("expected b_id filled once deferred is forced")
	}
}

func TestRunCheckBetweenBounds(t *testing.T) {
	tbl := &schema.Table{
		Name:       "t",
		Columns:    []schema.Column{{Name: "val", Type: schema.TypeInteger32}},
		CheckExprs: []string{"val BETWEEN 10 AND 20"},
	}
	desc := &schema.SchemaDescriptor{Tables: []*schema.Table{tbl}}
	cfg := emptyConfig()
	cfg.Tables["t"] = config.TableConfig{RowsPerTable: 50}

	result, err := Run(context.Background(), desc, cfg, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range result.RowsByTable["t"].Rows {
		v, _ := row.Get("val")
		if v.Int() < 10 || v.Int() > 20 {
			t.Fatalf("value %d out of [10,20]", v.Int())
		}
	}
}

func TestRunCheckInList(t *testing.T) {
	tbl := &schema.Table{
		Name:       "t",
		Columns:    []schema.Column{{Name: "status", Type: schema.TypeVarchar}},
		CheckExprs: []string{"status IN ('A', 'B', 'C')"},
	}
	desc := &schema.SchemaDescriptor{Tables: []*schema.Table{tbl}}
	cfg := emptyConfig()
	cfg.Tables["t"] = config.TableConfig{RowsPerTable: 30}

	result, err := Run(context.Background(), desc, cfg, 11, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	allowed := map[string]bool{"A": true, "B": true, "C": true}
	for _, row := range result.RowsByTable["t"].Rows {
		v, _ := row.Get("status")
		if !allowed[v.String()] {
			t.Fatalf("unexpected status %q", v.String())
		}
	}
}

func TestRunRepetitionRuleFixedValue(t *testing.T) {
	tbl := &schema.Table{
		Name: "t",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger32, PK: true},
			{Name: "type", Type: schema.TypeVarchar},
		},
		PrimaryKey: []string{"id"},
	}
	desc := &schema.SchemaDescriptor{Tables: []*schema.Table{tbl}}
	cfg := emptyConfig()
	cfg.Tables["t"] = config.TableConfig{
		RowsPerTable: 10,
		RepetitionRules: []config.RepetitionRule{
			{Count: 3, FixedValues: map[string]string{"type": "fixed"}},
		},
	}

	result, err := Run(context.Background(), desc, cfg, 13, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := result.RowsByTable["t"].Rows
	if len(rows) != 10 {
		t.Fatalf("expected 10 rows total, got %d", len(rows))
	}
	fixedCount := 0
	for _, row := range rows {
		v, _ := row.Get("type")
		if v.String() == "fixed" {
			fixedCount++
		}
	}
	if fixedCount < 3 {
		t.Fatalf("expected at least 3 rows with type=fixed, got %d", fixedCount)
	}
}

func TestRunPKUuidOverridePromotesColumn(t *testing.T) {
	tbl := &schema.Table{
		Name:       "t",
		Columns:    []schema.Column{{Name: "id", Type: schema.TypeInteger32, PK: true}},
		PrimaryKey: []string{"id"},
	}
	desc := &schema.SchemaDescriptor{Tables: []*schema.Table{tbl}}
	cfg := emptyConfig()
	cfg.Tables["t"] = config.TableConfig{RowsPerTable: 5, PKUuidOverrides: []string{"id"}}

	result, err := Run(context.Background(), desc, cfg, 17, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range result.RowsByTable["t"].Rows {
		v, _ := row.Get("id")
		if v.Kind != schema.KindUUID {
			t.Fatalf("expected id column promoted to UUID, got kind %v", v.Kind)
		}
	}
	// original schema input must be untouched.
	if tbl.Columns[0].Uuid {
		t.Fatalf("expected original table to be unmutated by pkUuidOverrides")
	}
}

func TestRunNilSchemaIsFatal(t *testing.T) {
	_, err := Run(context.Background(), nil, emptyConfig(), 1, nil)
	if err == nil {
		t.Fatalf("expected error for nil schema")
	}
}
