package form

import (
	"fmt"

	"github.com/trezcool/formnet/core"
)

// ValidateFields checks the consistency of a field tree at authoring time:
//  - ids are unique across the whole tree
//  - only sections have children, and sections are not nested
//  - choice fields declare options, file constraints only go on file fields
//  - sections carry no rules, rule operators are known and targets exist
func ValidateFields(fields []Field) error {
	var fldErrs []core.FieldError
	addErr := func(id, format string, args ...interface{}) {
		fldErrs = append(fldErrs, core.FieldError{Field: id, Error: fmt.Sprintf(format, args...)})
	}

	ids := make(map[string]int)
	Walk(fields, func(f Field, parent *Field) bool {
		ids[f.ID]++
		if ids[f.ID] == 2 {
			addErr(f.ID, "duplicate field id")
		}

		if !isFieldType(f.Type) {
			addErr(f.ID, "unknown field type %q", f.Type)
		}
		if len(f.Fields) > 0 && !f.IsSection() {
			addErr(f.ID, "only sections can have fields")
		}
		if f.IsSection() && parent != nil {
			addErr(f.ID, "sections cannot be nested")
		}
		if (f.Type == TypeSelect || f.Type == TypeRadio) && len(f.Options) == 0 {
			addErr(f.ID, "%s fields need options", f.Type)
		}
		if f.FileConstraints != nil && f.Type != TypeFile {
			addErr(f.ID, "only file fields can have file constraints")
		}
		if f.IsSection() && len(f.Rules) > 0 {
			addErr(f.ID, "sections cannot have rules")
		}
		for _, r := range f.Rules {
			if !isOperator(r.Operator) {
				addErr(f.ID, "unknown rule operator %q", r.Operator)
			}
		}
		return true
	})

	// rule targets can only be checked once every id is known
	Walk(fields, func(f Field, _ *Field) bool {
		for _, r := range f.Rules {
			if _, ok := ids[r.JumpToFieldID]; !ok {
				addErr(f.ID, "rule target %q does not exist", r.JumpToFieldID)
			}
		}
		return true
	})

	if len(fldErrs) > 0 {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}

func isFieldType(t FieldType) bool {
	for _, ft := range FieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

func isOperator(op Operator) bool {
	for _, o := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

func isStatus(s Status) bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}
