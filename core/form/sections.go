package form

// Section is one page of a form.
type Section struct {
	Fields []Field `json:"fields"`
}

// Title is the label of the section field seeding s, if any.
func (s Section) Title() string {
	if len(s.Fields) > 0 && s.Fields[0].IsSection() {
		return s.Fields[0].Label
	}
	return ""
}

// Contains reports whether the field `id` renders on this page, nested children included.
func (s Section) Contains(id string) bool {
	_, ok := Find(s.Fields, id)
	return ok
}

// Partition splits top-level fields into pages.
// A section field opens a new page (its children render inside it); non-section fields before
// the first section open an implicit page; any other field extends the page currently open.
func Partition(fields []Field) []Section {
	sections := make([]Section, 0)
	for _, f := range fields {
		if f.IsSection() || len(sections) == 0 {
			sections = append(sections, Section{Fields: []Field{f}})
			continue
		}
		last := &sections[len(sections)-1]
		last.Fields = append(last.Fields, f)
	}
	return sections
}
