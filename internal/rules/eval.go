package rules

import (
	"encoding/json"
	"fmt"
	"strings"
)

// matches evaluates the rule's conditions against the context.
func (r *Rule) matches(ctx Context) bool {
	switch r.Conditions.Operator {
	case OpOr:
		for _, c := range r.Conditions.Criteria {
			if evalCriterion(c, ctx) {
				return true
			}
		}
		return false
	default: // AND
		for _, c := range r.Conditions.Criteria {
			if !evalCriterion(c, ctx) {
				return false
			}
		}
		return true
	}
}

// evalCriterion applies one comparison. A missing context field
// evaluates to false for every operator except NOT_EQUALS and NOT_IN,
// which hold vacuously.
func evalCriterion(c Criterion, ctx Context) bool {
	v, present := ctx[c.Field]
	if !present || v == nil {
		return c.Operator == CritNotEquals || c.Operator == CritNotIn
	}

	switch c.Operator {
	case CritEquals:
		return looseEqual(v, c.Value)
	case CritNotEquals:
		return !looseEqual(v, c.Value)
	case CritIn:
		for _, cand := range c.Values {
			if looseEqual(v, cand) {
				return true
			}
		}
		return false
	case CritNotIn:
		for _, cand := range c.Values {
			if looseEqual(v, cand) {
				return false
			}
		}
		return true
	case CritGT, CritGE, CritLT, CritLE:
		a, ok1 := toFloat(v)
		b, ok2 := toFloat(c.Value)
		if !ok1 || !ok2 {
			return false
		}
		switch c.Operator {
		case CritGT:
			return a > b
		case CritGE:
			return a >= b
		case CritLT:
			return a < b
		default:
			return a <= b
		}
	case CritBetween:
		if len(c.Values) != 2 {
			return false
		}
		x, ok := toFloat(v)
		lo, ok1 := toFloat(c.Values[0])
		hi, ok2 := toFloat(c.Values[1])
		return ok && ok1 && ok2 && lo <= x && x <= hi
	case CritContains:
		return strings.Contains(asString(v), asString(c.Value))
	case CritStartsWith:
		return strings.HasPrefix(asString(v), asString(c.Value))
	case CritEndsWith:
		return strings.HasSuffix(asString(v), asString(c.Value))
	case CritOutsideHours:
		if len(c.Values) != 2 {
			return false
		}
		return outsideWindow(asString(v), asString(c.Values[0]), asString(c.Values[1]))
	}
	return false
}

// outsideWindow reports whether clock ("HH:MM") falls outside the
// half-open window [start, end). Windows may wrap midnight.
func outsideWindow(clock, start, end string) bool {
	cur, err1 := clockMinutes(clock)
	lo, err2 := clockMinutes(start)
	hi, err3 := clockMinutes(end)
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}
	var inside bool
	if lo <= hi {
		inside = cur >= lo && cur < hi
	} else {
		inside = cur >= lo || cur < hi
	}
	return !inside
}

func clockMinutes(s string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return 0, err
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return hh*60 + mm, nil
}

// looseEqual compares across the types JSON decoding produces: numbers
// compare numerically, everything else by string form.
func looseEqual(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return asString(a) == asString(b)
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
