package form

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/formnet/core"
)

// Kind tags the shape of a Value.
type Kind string

// Value kinds
const (
	KindText        Kind = "text"
	KindChoice      Kind = "choice"
	KindMultiChoice Kind = "multi_choice"
	KindFlag        Kind = "flag"
	KindFiles       Kind = "files"
)

const dateLayout = "2006-01-02"

// FileRef is the metadata of an uploaded file. The file itself lives elsewhere (URL).
type FileRef struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Value is the answer stored for one field. Its Kind must match the field's type (see CheckValue).
// The zero Value has no kind and stands for "no answer".
type Value struct {
	kind  Kind
	text  string
	items []string
	flag  bool
	files []FileRef
}

func Text(s string) Value { return Value{kind: KindText, text: s} }

func Choice(s string) Value { return Value{kind: KindChoice, text: s} }

func MultiChoice(items ...string) Value {
	if items == nil {
		items = []string{}
	}
	return Value{kind: KindMultiChoice, items: items}
}

func Flag(b bool) Value { return Value{kind: KindFlag, flag: b} }

func Files(files ...FileRef) Value {
	if files == nil {
		files = []FileRef{}
	}
	return Value{kind: KindFiles, files: files}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Bool() bool { return v.flag }

func (v Value) FileRefs() []FileRef { return v.files }

// IsList reports whether v holds several items (multi choice or files).
func (v Value) IsList() bool {
	return v.kind == KindMultiChoice || v.kind == KindFiles
}

// Items returns v as a list of strings: the chosen options, the file names, or v.String() as a single item.
func (v Value) Items() []string {
	switch v.kind {
	case KindMultiChoice:
		return v.items
	case KindFiles:
		names := make([]string, 0, len(v.files))
		for _, f := range v.files {
			names = append(names, f.Name)
		}
		return names
	default:
		return []string{v.String()}
	}
}

// String renders v as text: lists are joined with ",", flags are "true" or "false".
func (v Value) String() string {
	switch v.kind {
	case KindText, KindChoice:
		return v.text
	case KindFlag:
		return strconv.FormatBool(v.flag)
	case KindMultiChoice, KindFiles:
		return strings.Join(v.Items(), ",")
	default:
		return ""
	}
}

// IsEmpty reports whether v does not answer its field (for required checks).
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindText, KindChoice:
		return strings.TrimSpace(v.text) == ""
	case KindMultiChoice:
		return len(v.items) == 0
	case KindFiles:
		return len(v.files) == 0
	case KindFlag:
		return !v.flag
	default:
		return true
	}
}

type wireValue struct {
	Kind  Kind            `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	var payload interface{}
	switch v.kind {
	case KindText, KindChoice:
		payload = v.text
	case KindMultiChoice:
		payload = v.items
	case KindFlag:
		payload = v.flag
	case KindFiles:
		payload = v.files
	default:
		return []byte("null"), nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{Kind: v.kind, Value: raw})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var wire wireValue
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	// a missing payload stands for the empty value of its kind
	if len(wire.Value) == 0 {
		wire.Value = json.RawMessage("null")
	}

	var err error
	switch wire.Kind {
	case KindText, KindChoice:
		var s string
		err = json.Unmarshal(wire.Value, &s)
		*v = Value{kind: wire.Kind, text: s}
	case KindMultiChoice:
		var items []string
		err = json.Unmarshal(wire.Value, &items)
		*v = MultiChoice(items...)
	case KindFlag:
		var b bool
		err = json.Unmarshal(wire.Value, &b)
		*v = Flag(b)
	case KindFiles:
		var files []FileRef
		err = json.Unmarshal(wire.Value, &files)
		*v = Files(files...)
	default:
		return fmt.Errorf("unknown value kind %q", wire.Kind)
	}
	return errors.Wrapf(err, "decoding %s value", wire.Kind)
}

// ExpectedKinds returns the value kinds a field of type f.Type accepts. Sections accept none.
func ExpectedKinds(f Field) []Kind {
	switch f.Type {
	case TypeText, TypeTextarea, TypeDate, TypeNumber:
		return []Kind{KindText}
	case TypeSelect, TypeRadio:
		return []Kind{KindChoice}
	case TypeCheckbox:
		if len(f.Options) == 0 {
			return []Kind{KindFlag}
		}
		return []Kind{KindMultiChoice}
	case TypeFile:
		return []Kind{KindFiles}
	default:
		return nil
	}
}

// CheckValue validates v against the declared type & constraints of f.
func CheckValue(f Field, v Value) error {
	kinds := ExpectedKinds(f)
	if len(kinds) == 0 {
		return fmt.Errorf("%s fields hold no value", f.Type)
	}
	if !hasKind(kinds, v.kind) {
		return fmt.Errorf("expected a %s value, got %q", kinds[0], v.kind)
	}

	switch v.kind {
	case KindText:
		s := strings.TrimSpace(v.text)
		if s == "" {
			return nil
		}
		switch f.Type {
		case TypeNumber:
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				return fmt.Errorf("%q is not a number", v.text)
			}
		case TypeDate:
			if _, err := time.Parse(dateLayout, s); err != nil {
				return fmt.Errorf("%q is not a date (YYYY-MM-DD)", v.text)
			}
		}
	case KindChoice:
		if v.text != "" && !f.HasOption(v.text) {
			return fmt.Errorf("%q is not a valid option", v.text)
		}
	case KindMultiChoice:
		for _, item := range v.items {
			if !f.HasOption(item) {
				return fmt.Errorf("%q is not a valid option", item)
			}
		}
	case KindFiles:
		return checkFiles(f.FileConstraints, v.files)
	}
	return nil
}

func checkFiles(fc *FileConstraints, files []FileRef) error {
	if fc == nil {
		return nil
	}
	if !fc.Multiple && len(files) > 1 {
		return errors.New("only one file is allowed")
	}
	for _, file := range files {
		if fc.MaxSize > 0 && file.Size > fc.MaxSize {
			return fmt.Errorf("%q exceeds the maximum size of %d bytes", file.Name, fc.MaxSize)
		}
		if len(fc.Accept) > 0 && !accepts(fc.Accept, file.Type) {
			return fmt.Errorf("%q has a forbidden type %q", file.Name, file.Type)
		}
	}
	return nil
}

// accepts matches a MIME type against patterns such as "image/*" or "application/pdf".
func accepts(patterns []string, mimeType string) bool {
	mimeType = strings.ToLower(mimeType)
	for _, pattern := range patterns {
		if ok, err := path.Match(strings.ToLower(pattern), mimeType); err == nil && ok {
			return true
		}
	}
	return false
}

func hasKind(kinds []Kind, k Kind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// CheckValues validates every value of a response against the fields of f.
// Values keyed by an unknown field id are rejected.
func CheckValues(f Form, values map[string]Value) error {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var fldErrs []core.FieldError
	for _, id := range ids {
		fld, ok := f.Field(id)
		if !ok {
			fldErrs = append(fldErrs, core.FieldError{Field: id, Error: "unknown field"})
			continue
		}
		if err := CheckValue(fld, values[id]); err != nil {
			fldErrs = append(fldErrs, core.FieldError{Field: id, Error: err.Error()})
		}
	}
	if len(fldErrs) > 0 {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}
