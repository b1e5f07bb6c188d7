package sqlvars

import (
	"fmt"
	"strconv"
	"strings"
)

// Quoter renders a plain string as a SQL literal, optionally honoring
// an explicit declared type. *DB implements it.
type Quoter interface {
	QuoteTyped(s string, t ParamType) string
}

// WhereSpec is a caller-chosen WHERE clause shape. Exactly three forms
// exist — Raw free text, AnyOf (OR-combined condition strings) and
// Conditions (ordered column comparisons) — picked explicitly at the
// call site instead of sniffing the argument shape at runtime.
type WhereSpec interface {
	clause(q Quoter) string
}

// Raw is a prewritten WHERE fragment, with or without the leading
// keyword.
type Raw string

func (r Raw) clause(Quoter) string {
	s := strings.TrimSpace(string(r))
	if s == "" {
		return ""
	}
	if len(s) >= 6 && strings.EqualFold(s[:6], "WHERE ") {
		return " " + s
	}
	return " WHERE " + s
}

// AnyOf renders its elements OR-combined.
type AnyOf []string

func (a AnyOf) clause(Quoter) string {
	if len(a) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(a, " OR ")
}

// Cond is one column comparison inside a Conditions spec. Column is
// interpolated verbatim into the SQL text: callers pass trusted column
// names only. That trust boundary is part of the contract, not a gap.
type Cond struct {
	Column     string
	Value      any
	Type       ParamType // honored when Value quotes as a string
	Combinator string    // "AND" or "OR"; empty means OR
}

// Conditions is an ordered set of column comparisons. The first entry
// emits no combinator; later entries use their own, defaulting to OR.
type Conditions []Cond

func (cs Conditions) clause(q Quoter) string {
	if len(cs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(" WHERE ")
	for i, c := range cs {
		if i > 0 {
			comb := c.Combinator
			if comb == "" {
				comb = "OR"
			}
			b.WriteByte(' ')
			b.WriteString(comb)
			b.WriteByte(' ')
		}
		b.WriteByte('(')
		b.WriteString(c.Column)
		b.WriteByte('=')
		b.WriteString(renderCondValue(q, c.Value, c.Type))
		b.WriteByte(')')
	}
	return b.String()
}

// renderCondValue renders a condition value: booleans as 1/0, Go
// numerics as their literal text, the literal placeholder string "?"
// bare, everything else through the engine's quoting.
func renderCondValue(q Quoter, v any, t ParamType) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int8, int16, int32, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		if x == "?" {
			return "?"
		}
		return q.QuoteTyped(x, t)
	default:
		return q.QuoteTyped(fmt.Sprint(x), t)
	}
}

// FormatWhere renders spec as a SQL fragment with a single leading
// space, or "" for a nil or empty spec.
func FormatWhere(spec WhereSpec, q Quoter) string {
	if spec == nil {
		return ""
	}
	return spec.clause(q)
}

// whereClause is the connection-bound form used by Count.
func (db *DB) whereClause(spec WhereSpec) string {
	return FormatWhere(spec, db)
}
