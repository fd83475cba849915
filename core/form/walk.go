package form

// Walk visits the field tree depth-first in declaration order: every field, then its children.
// parent is nil for top-level fields. Walk stops as soon as fn returns false, and reports whether it went through.
func Walk(fields []Field, fn func(f Field, parent *Field) bool) bool {
	return walk(fields, nil, fn)
}

func walk(fields []Field, parent *Field, fn func(f Field, parent *Field) bool) bool {
	for i := range fields {
		if !fn(fields[i], parent) {
			return false
		}
		if len(fields[i].Fields) > 0 && !walk(fields[i].Fields, &fields[i], fn) {
			return false
		}
	}
	return true
}

// Flatten returns every field of the tree in Walk order.
func Flatten(fields []Field) []Field {
	flat := make([]Field, 0, len(fields))
	Walk(fields, func(f Field, _ *Field) bool {
		flat = append(flat, f)
		return true
	})
	return flat
}

// Find looks a field up by id anywhere in the tree.
func Find(fields []Field, id string) (Field, bool) {
	var found Field
	var ok bool
	Walk(fields, func(f Field, _ *Field) bool {
		if f.ID == id {
			found, ok = f, true
			return false
		}
		return true
	})
	return found, ok
}

// Answerable returns the flattened fields that hold values (every field but sections).
func Answerable(fields []Field) []Field {
	var answerable []Field
	for _, f := range Flatten(fields) {
		if !f.IsSection() {
			answerable = append(answerable, f)
		}
	}
	return answerable
}
