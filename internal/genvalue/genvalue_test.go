package genvalue

import (
	"testing"

	"github.com/dbsynth/dbsynth/internal/constraint"
	"github.com/dbsynth/dbsynth/internal/dictionary"
	"github.com/dbsynth/dbsynth/internal/schema"
)

func newTestGenerator() *Generator {
	return New(42, dictionary.Words{}, 2, NewUUIDSet())
}

func TestGenerateUUIDColumn(t *testing.T) {
	g := newTestGenerator()
	col := schema.Column{Name: "id", Type: schema.TypeUuid}
	v, err := g.Generate(col, constraint.Parsed{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != schema.KindUUID {
		t.Fatalf("expected KindUUID, got %v", v.Kind)
	}
	if !looksLikeUUID(v.String()) {
		t.Fatalf("value %q is not a UUID", v.String())
	}
}

func TestGenerateUUIDColumnUniqueAcrossCalls(t *testing.T) {
	g := newTestGenerator()
	col := schema.Column{Name: "id", Type: schema.TypeUuid}
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		v, err := g.Generate(col, constraint.Parsed{}, i)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[v.String()] {
			t.Fatalf("duplicate UUID emitted: %s", v.String())
		}
		seen[v.String()] = true
	}
}

func TestGenerateDeclaredAllowedValues(t *testing.T) {
	g := newTestGenerator()
	col := schema.Column{Name: "status", Type: schema.TypeVarchar, AllowedValues: []string{"active", "inactive"}}
	for i := 0; i < 20; i++ {
		v, err := g.Generate(col, constraint.Parsed{}, i)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.String() != "active" && v.String() != "inactive" {
			t.Fatalf("unexpected value %q", v.String())
		}
	}
}

func TestGenerateParsedAllowedValues(t *testing.T) {
	g := newTestGenerator()
	col := schema.Column{Name: "status", Type: schema.TypeVarchar}
	pc := constraint.Parsed{AllowedValues: map[string]bool{"pending": true, "done": true}}
	v, err := g.Generate(col, pc, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.String() != "pending" && v.String() != "done" {
		t.Fatalf("unexpected value %q", v.String())
	}
}

func TestGenerateNumericWithinBoundsIntegerInclusive(t *testing.T) {
	g := newTestGenerator()
	min, max := 5.0, 5.0
	col := schema.Column{Name: "n", Type: schema.TypeInteger32}
	pc := constraint.Parsed{Min: &min, Max: &max}
	v, err := g.Generate(col, pc, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int() != 5 {
		t.Fatalf("expected 5, got %d", v.Int())
	}
}

func TestGenerateNumericDecimalScale(t *testing.T) {
	g := newTestGenerator()
	min, max := 0.0, 100.0
	scale := 2
	col := schema.Column{Name: "amount", Type: schema.TypeDecimal, Scale: &scale}
	pc := constraint.Parsed{Min: &min, Max: &max}
	for i := 0; i < 50; i++ {
		v, err := g.Generate(col, pc, i)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		val, sc := v.Decimal()
		if sc != 2 {
			t.Fatalf("expected scale 2, got %d", sc)
		}
		if val < 0 || val > 100 {
			t.Fatalf("value %v out of bounds", val)
		}
	}
}

func TestGenerateNullableRespectsColumnFlag(t *testing.T) {
	g := newTestGenerator()
	col := schema.Column{Name: "nickname", Type: schema.TypeVarchar, Nullable: false}
	for i := 0; i < 100; i++ {
		v, err := g.Generate(col, constraint.Parsed{}, i)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.IsNull() {
			t.Fatalf("non-nullable column produced a null value")
		}
	}
}

func TestGenerateStringTruncatesToMaxLength(t *testing.T) {
	g := newTestGenerator()
	length := 5
	col := schema.Column{Name: "code", Type: schema.TypeVarchar, Length: &length}
	v, err := g.Generate(col, constraint.Parsed{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.String()) > 5 {
		t.Fatalf("expected length <= 5, got %q", v.String())
	}
}

func TestGenerateCharPadsToFixedWidth(t *testing.T) {
	g := newTestGenerator()
	length := 10
	col := schema.Column{Name: "code", Type: schema.TypeChar, Length: &length}
	v, err := g.Generate(col, constraint.Parsed{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.String()) != 10 {
		t.Fatalf("expected fixed width 10, got %d (%q)", len(v.String()), v.String())
	}
}

func TestGenerateBoolAndDateTypes(t *testing.T) {
	g := newTestGenerator()
	boolCol := schema.Column{Name: "active", Type: schema.TypeBool}
	v, err := g.Generate(boolCol, constraint.Parsed{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != schema.KindBool {
		t.Fatalf("expected KindBool, got %v", v.Kind)
	}

	dateCol := schema.Column{Name: "created_at", Type: schema.TypeDate}
	v, err = g.Generate(dateCol, constraint.Parsed{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != schema.KindDate {
		t.Fatalf("expected KindDate, got %v", v.Kind)
	}

	tsCol := schema.Column{Name: "updated_at", Type: schema.TypeTimestampTz}
	v, err = g.Generate(tsCol, constraint.Parsed{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != schema.KindTimestamp || !v.TZAware() {
		t.Fatalf("expected tz-aware KindTimestamp, got %v tz=%v", v.Kind, v.TZAware())
	}
}

func TestGenerateSoftDeleteValue(t *testing.T) {
	g := newTestGenerator()
	col := schema.Column{Name: "deleted_at", Type: schema.TypeTimestamp, Nullable: true}

	if v := g.GenerateSoftDeleteValue(col, true, ""); !v.IsDefault() {
		t.Fatalf("expected DEFAULT sentinel, got %v", v.Kind)
	}
	if v := g.GenerateSoftDeleteValue(col, false, ""); !v.IsNull() {
		t.Fatalf("expected null, got %v", v.Kind)
	}
	if v := g.GenerateSoftDeleteValue(col, false, "NULL"); !v.IsNull() {
		t.Fatalf("expected null for NULL literal, got %v", v.Kind)
	}

	boolCol := schema.Column{Name: "is_deleted", Type: schema.TypeBool}
	v := g.GenerateSoftDeleteValue(boolCol, false, "true")
	if v.Kind != schema.KindBool || !v.Bool() {
		t.Fatalf("expected true bool, got %v", v)
	}
}

func TestGenerateUnconstrainedNumericFallback(t *testing.T) {
	g := newTestGenerator()
	col := schema.Column{Name: "n", Type: schema.TypeInteger64}
	v, err := g.Generate(col, constraint.Parsed{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int() < 1 || v.Int() > 1_000_000 {
		t.Fatalf("value out of expected fallback range: %d", v.Int())
	}
}
