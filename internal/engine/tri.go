package engine

// Tri is BSQL's three-valued predicate logic outcome (spec.md §4.4, §9):
// true, false, or unknown. Representing this as its own type rather than
// bool-plus-null keeps short-circuit AND/OR from accidentally treating a
// NULL comparison as false.
type Tri int

const (
	TriUnknown Tri = iota
	TriTrue
	TriFalse
)

// And implements three-valued conjunction: unknown only dominates when
// the other operand isn't already false.
func (t Tri) And(u Tri) Tri {
	if t == TriFalse || u == TriFalse {
		return TriFalse
	}
	if t == TriUnknown || u == TriUnknown {
		return TriUnknown
	}
	return TriTrue
}

// Or implements three-valued disjunction: unknown only dominates when the
// other operand isn't already true.
func (t Tri) Or(u Tri) Tri {
	if t == TriTrue || u == TriTrue {
		return TriTrue
	}
	if t == TriUnknown || u == TriUnknown {
		return TriUnknown
	}
	return TriFalse
}

// Pass reports whether a filter keeps a row with this outcome: only true
// rows pass (spec.md §4.4, §8's three-valued-logic property).
func (t Tri) Pass() bool { return t == TriTrue }
