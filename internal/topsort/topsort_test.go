package topsort

import (
	"testing"

	"github.com/dbsynth/dbsynth/internal/schema"
)

func table(name string, fks ...schema.ForeignKey) *schema.Table {
	return &schema.Table{Name: name, ForeignKeys: fks}
}

func fk(parent string, nullableChild bool, childCol string) schema.ForeignKey {
	return schema.ForeignKey{
		ParentTable: parent,
		Columns:     []schema.FKColumnPair{{ChildColumn: childCol, ParentColumn: "id"}},
	}
}

func TestSortLinearChain(t *testing.T) {
	users := table("users")
	posts := table("posts", fk("users", false, "user_id"))
	comments := table("comments", fk("posts", false, "post_id"))

	res, err := Sort([]*schema.Table{comments, posts, users})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos := indexOf(res.Order)
	if !(pos["users"] < pos["posts"] && pos["posts"] < pos["comments"]) {
		t.Fatalf("expected users < posts < comments, got %v", res.Order)
	}
	if len(res.Cycles) != 0 {
		t.Fatalf("expected no cycles, got %v", res.Cycles)
	}
}

func TestSortIgnoresFKToAbsentTable(t *testing.T) {
	orphan := table("orphan", fk("missing", true, "missing_id"))
	res, err := Sort([]*schema.Table{orphan})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Order) != 1 || res.Order[0] != "orphan" {
		t.Fatalf("expected [orphan], got %v", res.Order)
	}
}

func TestSortDetectsSelfLoop(t *testing.T) {
	employees := table("employees", fk("employees", true, "manager_id"))
	res, err := Sort([]*schema.Table{employees})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Cycles) != 1 || !res.Cycles[0]["employees"] {
		t.Fatalf("expected self-loop cycle on employees, got %v", res.Cycles)
	}
}

func TestSortDetectsMutualCycle(t *testing.T) {
	a := table("a", fk("b", true, "b_id"))
	b := table("b", fk("a", true, "a_id"))
	res, err := Sort([]*schema.Table{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Cycles) != 1 {
		t.Fatalf("expected exactly one cycle, got %v", res.Cycles)
	}
	if !res.Cycles[0]["a"] || !res.Cycles[0]["b"] {
		t.Fatalf("expected cycle {a,b}, got %v", res.Cycles[0])
	}
	// members within an SCC are byte-wise sorted in Order.
	pos := indexOf(res.Order)
	if pos["a"] != 0 || pos["b"] != 1 {
		t.Fatalf("expected sorted [a b], got %v", res.Order)
	}
}

func TestSortNilInputIsFatal(t *testing.T) {
	_, err := Sort(nil)
	if err == nil {
		t.Fatalf("expected error for nil input")
	}
}

func TestRequiresDeferredWhenCycleHasNonNullableChild(t *testing.T) {
	a := table("a", fk("b", false, "b_id"))
	b := table("b", fk("a", true, "a_id"))
	a.Columns = []schema.Column{{Name: "b_id", Nullable: false}}
	b.Columns = []schema.Column{{Name: "a_id", Nullable: true}}
	tables := []*schema.Table{a, b}
	res, err := Sort(tables)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tableMap := map[string]*schema.Table{"a": a, "b": b}
	if !RequiresDeferredDueToNonNullableCycles(res, tableMap) {
		t.Fatalf("expected deferred requirement due to non-nullable FK in cycle")
	}
}

func TestRequiresDeferredFalseWhenAllCycleFKsNullable(t *testing.T) {
	a := table("a", fk("b", true, "b_id"))
	b := table("b", fk("a", true, "a_id"))
	tables := []*schema.Table{a, b}
	a.Columns = []schema.Column{{Name: "b_id", Nullable: true}}
	b.Columns = []schema.Column{{Name: "a_id", Nullable: true}}
	res, err := Sort(tables)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tableMap := map[string]*schema.Table{"a": a, "b": b}
	if RequiresDeferredDueToNonNullableCycles(res, tableMap) {
		t.Fatalf("expected no deferred requirement when all cycle FKs are nullable")
	}
}

func indexOf(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, n := range names {
		m[n] = i
	}
	return m
}
