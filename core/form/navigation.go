package form

import "strings"

// Matches reports whether v satisfies r.
//  - equals/not_equals compare v and the operand item by item (a scalar is a single item).
//  - contains/not_contains test membership of any operand item when v is a list,
//    else substring containment on the text of v.
// Unknown operators never match.
func (r ConditionalRule) Matches(v Value) bool {
	switch r.Operator {
	case OpEquals:
		return equalItems(v.Items(), r.Value.Items())
	case OpNotEquals:
		return !equalItems(v.Items(), r.Value.Items())
	case OpContains:
		return contains(v, r.Value)
	case OpNotContains:
		return !contains(v, r.Value)
	default:
		return false
	}
}

func equalItems(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func contains(v Value, operand RuleValue) bool {
	if !v.IsList() {
		return strings.Contains(v.String(), operand.String())
	}
	items := v.Items()
	for _, want := range operand.Items() {
		for _, item := range items {
			if item == want {
				return true
			}
		}
	}
	return false
}

// Evaluate returns the jump target of the first rule of f matched by v.
// ok is false when f has no rules or none matches.
func Evaluate(f Field, v Value) (target string, ok bool) {
	for _, r := range f.Rules {
		if r.Matches(v) {
			return r.JumpToFieldID, true
		}
	}
	return "", false
}

// ResolveSection returns the index of the section rendering the field `target`.
func ResolveSection(sections []Section, target string) (int, bool) {
	for i, s := range sections {
		if s.Contains(target) {
			return i, true
		}
	}
	return 0, false
}

// NextPage returns the page to show once field f of page `current` changed to v.
// The page stays the same when no rule matches or the target cannot be resolved.
func NextPage(sections []Section, current int, f Field, v Value) int {
	target, ok := Evaluate(f, v)
	if !ok {
		return current
	}
	if idx, ok := ResolveSection(sections, target); ok {
		return idx
	}
	return current
}

// Skipped returns the ids of the fields jumped over by the rules triggered by values.
// When an answered field jumps forward to a target, every field strictly between them is skipped;
// skipped fields do not trigger their own rules. Backward or unresolved jumps skip nothing.
func Skipped(f Form, values map[string]Value) map[string]bool {
	flat := Flatten(f.Fields)
	positions := make(map[string]int, len(flat))
	for i, fld := range flat {
		if _, ok := positions[fld.ID]; !ok {
			positions[fld.ID] = i
		}
	}

	skipped := make(map[string]bool)
	for i, fld := range flat {
		if skipped[fld.ID] {
			continue
		}
		v, answered := values[fld.ID]
		if !answered {
			continue
		}
		target, ok := Evaluate(fld, v)
		if !ok {
			continue
		}
		j, ok := positions[target]
		if !ok || j <= i {
			continue
		}
		for _, between := range flat[i+1 : j] {
			skipped[between.ID] = true
		}
	}
	return skipped
}

// MissingRequired returns, in tree order, the ids of the required fields left unanswered,
// ignoring those jumped over by conditional rules (see Skipped).
func MissingRequired(f Form, values map[string]Value) []string {
	skipped := Skipped(f, values)
	var missing []string
	for _, fld := range Answerable(f.Fields) {
		if !fld.Required || skipped[fld.ID] {
			continue
		}
		if v, ok := values[fld.ID]; !ok || v.IsEmpty() {
			missing = append(missing, fld.ID)
		}
	}
	return missing
}
