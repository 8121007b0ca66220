package genvalue

import (
	"math"

	"github.com/dbsynth/dbsynth/internal/constraint"
	"github.com/dbsynth/dbsynth/internal/schema"
)

// roundHalfUp rounds v to scale decimal places using round-half-away-from-
// zero, matching conventional SQL DECIMAL rounding rather than Go's
// round-half-to-even default.
func roundHalfUp(v float64, scale int) float64 {
	factor := math.Pow(10, float64(scale))
	if v >= 0 {
		return math.Floor(v*factor+0.5) / factor
	}
	return -math.Floor(-v*factor+0.5) / factor
}

func (g *Generator) effectiveScale(col schema.Column) int {
	if col.Scale != nil && *col.Scale > 0 {
		return *col.Scale
	}
	return g.NumericScale
}

// generateNumericWithinBounds implements §4.2 step 4: sample within the
// parsed constraint's bounds, using the column's own declared bound for
// whichever end the constraint leaves unset, swapping a reversed pair.
func (g *Generator) generateNumericWithinBounds(col schema.Column, pc constraint.Parsed) schema.Value {
	min := firstNonNil(pc.Min, col.MinValue)
	max := firstNonNil(pc.Max, col.MaxValue)

	lo, hi := 0.0, 0.0
	switch {
	case min != nil && max != nil:
		lo, hi = *min, *max
	case min != nil:
		lo, hi = *min, *min+defaultSpanAbove(*min)
	case max != nil:
		lo, hi = *max-defaultSpanBelow(*max), *max
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	if col.Type.IsIntegerType() {
		loInt, hiInt := int64(math.Ceil(lo)), int64(math.Floor(hi))
		if hiInt < loInt {
			hiInt = loInt
		}
		span := hiInt - loInt + 1
		v := loInt + g.Rand.Int64N(span)
		return schema.Int(v)
	}

	scale := g.effectiveScale(col)
	v := lo + g.Rand.Float64()*(hi-lo)
	v = roundHalfUp(v, scale)
	if col.Type == schema.TypeDecimal {
		return schema.Decimal(v, scale)
	}
	return schema.Double(v)
}

func defaultSpanAbove(v float64) float64 { return 1000 }
func defaultSpanBelow(v float64) float64 { return 1000 }

func firstNonNil(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

// unconstrainedNumeric implements the §4.2 step-5 numeric fallback for
// columns with no CHECK-derived or declared bound at all.
func (g *Generator) unconstrainedNumeric(col schema.Column) schema.Value {
	switch col.Type {
	case schema.TypeInteger8, schema.TypeInteger16, schema.TypeInteger32:
		return schema.Int(1 + g.Rand.Int64N(10_000))
	case schema.TypeInteger64:
		return schema.Int(1 + g.Rand.Int64N(1_000_000))
	case schema.TypeDecimal:
		min, max := 1.0, 1000.0
		if col.MinValue != nil {
			min = *col.MinValue
		}
		if col.MaxValue != nil {
			max = *col.MaxValue
		} else if col.Precision != nil {
			scale := g.effectiveScale(col)
			max = math.Pow(10, float64(*col.Precision-scale)) - math.Pow(10, float64(-scale))
		}
		scale := g.effectiveScale(col)
		v := min + g.Rand.Float64()*(max-min)
		return schema.Decimal(roundHalfUp(v, scale), scale)
	case schema.TypeFloat, schema.TypeDouble:
		min, max := 1.0, 1000.0
		if col.MinValue != nil {
			min = *col.MinValue
		}
		if col.MaxValue != nil {
			max = *col.MaxValue
		}
		scale := g.effectiveScale(col)
		v := min + g.Rand.Float64()*(max-min)
		return schema.Double(roundHalfUp(v, scale))
	default:
		return schema.Int(1 + g.Rand.Int64N(10_000))
	}
}
