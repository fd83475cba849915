package form

import "github.com/trezcool/formnet/core/user"

// VisibleForms keeps, in order, the forms `caller` may see.
// Admins see every form; anyone else only sees the published forms assigned to their role,
// within their academic year when they have one.
func VisibleForms(forms []Form, caller user.Caller) []Form {
	visible := make([]Form, 0, len(forms))
	for _, f := range forms {
		if CanSee(f, caller) {
			visible = append(visible, f)
		}
	}
	return visible
}

// CanSee reports whether `caller` may see (and respond to) f.
func CanSee(f Form, caller user.Caller) bool {
	if caller.IsAdmin() {
		return true
	}
	if caller.AcademicYearID != "" && f.AcademicYearID != caller.AcademicYearID {
		return false
	}
	return f.Status == StatusPublished && f.IsAssigned(caller.Role)
}
