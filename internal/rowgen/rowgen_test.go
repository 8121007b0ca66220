package rowgen

import (
	"testing"

	"github.com/dbsynth/dbsynth/internal/config"
	"github.com/dbsynth/dbsynth/internal/dictionary"
	"github.com/dbsynth/dbsynth/internal/genvalue"
	"github.com/dbsynth/dbsynth/internal/schema"
)

func newGen() *genvalue.Generator {
	return genvalue.New(7, dictionary.Words{}, 2, genvalue.NewUUIDSet())
}

func TestGeneratePrimaryKeyUniqueness(t *testing.T) {
	length := 3
	table := &schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger32, PK: true},
			{Name: "code", Type: schema.TypeVarchar, Length: &length},
		},
		PrimaryKey: []string{"id"},
	}
	rg := New(table, 20, nil, nil, newGen(), nil, false, "")
	rows, err := rg.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[int64]bool)
	for _, r := range rows {
		v, _ := r.Get("id")
		if seen[v.Int()] {
			t.Fatalf("duplicate PK %d", v.Int())
		}
		seen[v.Int()] = true
	}
}

func TestGenerateExcludedColumnAlwaysNull(t *testing.T) {
	table := &schema.Table{
		Name: "accounts",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger32, PK: true},
			{Name: "notes", Type: schema.TypeText, Nullable: true},
		},
		PrimaryKey: []string{"id"},
	}
	rg := New(table, 10, map[string]bool{"notes": true}, nil, newGen(), nil, false, "")
	rows, err := rg.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range rows {
		v, _ := r.Get("notes")
		if !v.IsNull() {
			t.Fatalf("expected excluded column to be null, got %v", v)
		}
	}
}

func TestGenerateFKColumnLeftNullForResolver(t *testing.T) {
	table := &schema.Table{
		Name: "posts",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger32, PK: true},
			{Name: "user_id", Type: schema.TypeInteger32, Nullable: true},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []schema.ForeignKey{
			{ParentTable: "users", Columns: []schema.FKColumnPair{{ChildColumn: "user_id", ParentColumn: "id"}}},
		},
	}
	rg := New(table, 5, nil, nil, newGen(), nil, false, "")
	rows, err := rg.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range rows {
		v, _ := r.Get("user_id")
		if !v.IsNull() {
			t.Fatalf("expected FK column left null, got %v", v)
		}
	}
}

func TestGenerateRepetitionRuleFixedValues(t *testing.T) {
	table := &schema.Table{
		Name: "statuses",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger32, PK: true},
			{Name: "label", Type: schema.TypeVarchar},
		},
		PrimaryKey: []string{"id"},
	}
	rules := []config.RepetitionRule{
		{Count: 1, FixedValues: map[string]string{"id": "1", "label": "active"}},
	}
	rg := New(table, 3, nil, rules, newGen(), nil, false, "")
	rows, err := rg.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) == 0 {
		t.Fatalf("expected at least the repetition rule row")
	}
	first, _ := rows[0].Get("label")
	if first.String() != "active" {
		t.Fatalf("expected first row label 'active', got %q", first.String())
	}
}

func TestGenerateEmptyTableReturnsNoRows(t *testing.T) {
	table := &schema.Table{Name: "empty"}
	rg := New(table, 5, nil, nil, newGen(), nil, false, "")
	rows, err := rg.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != nil {
		t.Fatalf("expected nil rows for table with no columns, got %v", rows)
	}
}

func TestGenerateSoftDeleteColumnUsesSentinel(t *testing.T) {
	table := &schema.Table{
		Name: "items",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger32, PK: true},
			{Name: "deleted_at", Type: schema.TypeTimestamp, Nullable: true},
		},
		PrimaryKey: []string{"id"},
	}
	rg := New(table, 3, nil, nil, newGen(), map[string]bool{"deleted_at": true}, true, "")
	rows, err := rg.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range rows {
		v, _ := r.Get("deleted_at")
		if !v.IsDefault() {
			t.Fatalf("expected DEFAULT sentinel for soft-delete column, got %v", v.Kind)
		}
	}
}
