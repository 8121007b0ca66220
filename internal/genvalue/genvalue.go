// Package genvalue implements the ValueGenerator: it produces a single
// value for one column under a parsed constraint, respecting the column's
// declared type, length, precision/scale, allowed set, and UUID
// uniqueness. String fallback generation is backed by
// github.com/brianvoe/gofakeit/v7 for word/lorem content; UUID minting is
// backed by github.com/google/uuid.
package genvalue

import (
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/dbsynth/dbsynth/internal/constraint"
	"github.com/dbsynth/dbsynth/internal/dictionary"
	"github.com/dbsynth/dbsynth/internal/schema"
)

const nullProbability = 0.30

// Generator is the ValueGenerator. One is shared across an entire run so
// that Used (the shared UUID set) and Rand (the shared random source) stay
// consistent across every table and column, per §5's "shared resources"
// requirement.
type Generator struct {
	Faker        *gofakeit.Faker
	Rand         *rand.Rand
	Used         *UUIDSet
	Words        dictionary.Words
	NumericScale int
}

// New builds a Generator for one run. seed drives both the faker and the
// generator's own random source. Two kinds of value do not follow the
// seed: freshly minted UUIDs come from github.com/google/uuid's own random
// source, and dates and timestamps are offsets from the current time, so
// those values differ between runs made with the same seed.
func New(seed uint64, words dictionary.Words, numericScale int, used *UUIDSet) *Generator {
	return &Generator{
		Faker:        gofakeit.New(int64(seed)),
		Rand:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Used:         used,
		Words:        words,
		NumericScale: numericScale,
	}
}

// Generate implements the §4.2 decision order. rowIndex is used only as
// the last-resort fallback value.
func (g *Generator) Generate(col schema.Column, pc constraint.Parsed, rowIndex int) (schema.Value, error) {
	if col.Nullable && g.Rand.Float64() < nullProbability {
		return schema.Null(), nil
	}

	// 1. UUID columns.
	if col.Uuid || col.Type == schema.TypeUuid {
		return g.generateUUIDValue(col, pc)
	}

	// 2. Declared allowedValues on the column.
	if len(col.AllowedValues) > 0 {
		v := col.AllowedValues[g.Rand.IntN(len(col.AllowedValues))]
		return g.ParseToType(v, col), nil
	}

	// 3. Parsed allowedValues on the constraint.
	if len(pc.AllowedValues) > 0 {
		vals := sortedSet(pc.AllowedValues)
		v := vals[g.Rand.IntN(len(vals))]
		return g.ParseToType(v, col), nil
	}

	// 4. Numeric bounds, from either the constraint or the column itself.
	if col.Type.IsNumericType() && (pc.Min != nil || pc.Max != nil || col.MinValue != nil || col.MaxValue != nil) {
		return g.generateNumericWithinBounds(col, pc), nil
	}

	// 5. Type dispatch.
	return g.generateByType(col, pc, rowIndex), nil
}

func (g *Generator) generateUUIDValue(col schema.Column, pc constraint.Parsed) (schema.Value, error) {
	var candidates []string
	for _, v := range col.AllowedValues {
		if looksLikeUUID(v) && !g.Used.Contains(v) {
			candidates = append(candidates, v)
		}
	}
	for _, v := range sortedSet(pc.AllowedValues) {
		if looksLikeUUID(v) && !g.Used.Contains(v) {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) > 0 {
		chosen := candidates[g.Rand.IntN(len(candidates))]
		g.Used.Add(chosen)
		return schema.UUID(chosen), nil
	}

	id, err := mintUnique(g.Used)
	if err != nil {
		return schema.Value{}, err
	}
	return schema.UUID(id), nil
}

func (g *Generator) generateByType(col schema.Column, pc constraint.Parsed, rowIndex int) schema.Value {
	switch {
	case col.Type.IsStringType():
		maxLen := effectiveMaxLength(col, pc)
		return schema.String(g.stringValue(maxLen, col.Type == schema.TypeChar))
	case col.Type == schema.TypeBool:
		return schema.Bool(g.Rand.IntN(2) == 1)
	case col.Type == schema.TypeDate:
		days := g.Rand.IntN(3651)
		return schema.Date(time.Now().AddDate(0, 0, -days))
	case col.Type == schema.TypeTimestamp, col.Type == schema.TypeTimestampTz:
		secs := g.Rand.Int64N(31_536_001)
		t := time.Now().Add(-time.Duration(secs) * time.Second)
		return schema.Timestamp(t, col.Type == schema.TypeTimestampTz)
	case col.Type.IsNumericType():
		return g.unconstrainedNumeric(col)
	default:
		return schema.Int(int64(rowIndex))
	}
}

func effectiveMaxLength(col schema.Column, pc constraint.Parsed) int {
	if pc.MaxLength != nil {
		return *pc.MaxLength
	}
	if col.Length != nil {
		return *col.Length
	}
	return 255
}

// ParseToType parses a string (from a column's declared allowedValues or a
// constraint's parsed allowedValues) into the Value variant matching col's
// type. Unparseable numeric/bool strings degrade to a plain string value
// rather than failing the whole row.
func (g *Generator) ParseToType(raw string, col schema.Column) schema.Value {
	switch {
	case col.Uuid || col.Type == schema.TypeUuid:
		return schema.UUID(raw)
	case col.Type.IsIntegerType():
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return schema.Int(n)
		}
		return schema.String(raw)
	case col.Type == schema.TypeDecimal:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return schema.Decimal(f, g.effectiveScale(col))
		}
		return schema.String(raw)
	case col.Type == schema.TypeFloat || col.Type == schema.TypeDouble:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return schema.Double(f)
		}
		return schema.String(raw)
	case col.Type == schema.TypeBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return schema.Bool(b)
		}
		return schema.String(raw)
	default:
		return schema.String(raw)
	}
}

// GenerateSoftDeleteValue implements the generateSoftDeleteValue helper of
// §4.2: either the DEFAULT sentinel, or value parsed to the column's type
// ("" or "NULL" meaning null).
func (g *Generator) GenerateSoftDeleteValue(col schema.Column, useSchemaDefault bool, value string) schema.Value {
	if useSchemaDefault {
		return schema.Default()
	}
	if value == "" || strings.EqualFold(value, "NULL") {
		return schema.Null()
	}
	return g.ParseToType(value, col)
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
