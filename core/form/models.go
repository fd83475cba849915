package form

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/formnet/core"
)

type (
	FieldType string
	Operator  string
	Status    string
)

// Field types
const (
	TypeText     FieldType = "text"
	TypeTextarea FieldType = "textarea"
	TypeSelect   FieldType = "select"
	TypeRadio    FieldType = "radio"
	TypeCheckbox FieldType = "checkbox"
	TypeDate     FieldType = "date"
	TypeNumber   FieldType = "number"
	TypeFile     FieldType = "file"
	TypeSection  FieldType = "section"
)

// Rule operators
const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
)

// Form statuses
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

var (
	FieldTypes = []FieldType{
		TypeText, TypeTextarea, TypeSelect, TypeRadio, TypeCheckbox, TypeDate, TypeNumber, TypeFile, TypeSection,
	}
	Operators = []Operator{OpEquals, OpNotEquals, OpContains, OpNotContains}
	Statuses  = []Status{StatusDraft, StatusPublished, StatusArchived}
)

// CanTransitionTo reports whether a form in status s may move to status `to`.
// Drafts get published; anything but an archived form can be archived.
func (s Status) CanTransitionTo(to Status) bool {
	switch to {
	case StatusPublished:
		return s == StatusDraft
	case StatusArchived:
		return s != StatusArchived
	default:
		return false
	}
}

type FileConstraints struct {
	Accept   []string `json:"accept,omitempty"`   // MIME patterns, eg. image/*
	MaxSize  int64    `json:"max_size,omitempty"` // bytes
	Multiple bool     `json:"multiple,omitempty"`
}

// Field is one schema node: a question or a section grouping other fields.
type Field struct {
	ID              string            `json:"id" validate:"required,notblank"`
	Type            FieldType         `json:"type" validate:"required,fieldtype"`
	Label           string            `json:"label"`
	Required        bool              `json:"required"`
	Options         []string          `json:"options,omitempty"`
	Placeholder     string            `json:"placeholder,omitempty"`
	Description     string            `json:"description,omitempty"`
	FileConstraints *FileConstraints  `json:"file_constraints,omitempty"`
	Fields          []Field           `json:"fields,omitempty" validate:"dive"`
	Rules           []ConditionalRule `json:"rules,omitempty" validate:"dive"`
}

func (f Field) IsSection() bool { return f.Type == TypeSection }

func (f Field) HasOption(opt string) bool {
	for _, o := range f.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// ConditionalRule redirects navigation to JumpToFieldID when the field value matches.
type ConditionalRule struct {
	Operator      Operator  `json:"operator" validate:"required,ruleop"`
	Value         RuleValue `json:"value"`
	JumpToFieldID string    `json:"jump_to_field_id" validate:"required"`
}

// RuleValue is the operand of a ConditionalRule: a single string or a list of strings.
type RuleValue struct {
	scalar string
	list   []string
	isList bool
}

func Scalar(s string) RuleValue { return RuleValue{scalar: s} }

func List(items ...string) RuleValue {
	if items == nil {
		items = []string{}
	}
	return RuleValue{list: items, isList: true}
}

func (rv RuleValue) IsList() bool { return rv.isList }

// Items returns the list operand, or the scalar as a single item.
func (rv RuleValue) Items() []string {
	if rv.isList {
		return rv.list
	}
	return []string{rv.scalar}
}

func (rv RuleValue) String() string {
	if rv.isList {
		return strings.Join(rv.list, ",")
	}
	return rv.scalar
}

func (rv RuleValue) MarshalJSON() ([]byte, error) {
	if rv.isList {
		return json.Marshal(rv.list)
	}
	return json.Marshal(rv.scalar)
}

// UnmarshalJSON accepts a string, a number, a boolean, or an array of those.
func (rv *RuleValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if list, ok := raw.([]interface{}); ok {
		items := make([]string, 0, len(list))
		for _, item := range list {
			s, err := scalarString(item)
			if err != nil {
				return err
			}
			items = append(items, s)
		}
		*rv = List(items...)
		return nil
	}
	s, err := scalarString(raw)
	if err != nil {
		return err
	}
	*rv = Scalar(s)
	return nil
}

func scalarString(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("invalid rule value %v", v)
	}
}

type Form struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Fields         []Field    `json:"fields"`
	AssignedRoles  []string   `json:"assigned_roles"`
	AcademicYearID string     `json:"academic_year_id"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"` // UTC
	UpdatedAt      time.Time  `json:"updated_at"` // UTC
}

// Field finds a field by id anywhere in the field tree.
func (f Form) Field(id string) (Field, bool) {
	return Find(f.Fields, id)
}

// IsAssigned reports whether callers with `role` are meant to respond to f.
func (f Form) IsAssigned(role string) bool {
	for _, r := range f.AssignedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// NewForm contains the authored part of a Form, used to create or replace one.
type NewForm struct {
	Title          string     `json:"title" validate:"required,notblank"`
	Description    string     `json:"description"`
	Fields         []Field    `json:"fields" validate:"dive"`
	AssignedRoles  []string   `json:"assigned_roles" validate:"dive,role"`
	AcademicYearID string     `json:"academic_year_id" validate:"required"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
}

// Validate checks the struct tags, then the field tree (see ValidateFields).
func (nf *NewForm) Validate(validate *validator.Validate) error {
	nf.Title = core.CleanString(nf.Title)
	nf.AcademicYearID = core.CleanString(nf.AcademicYearID)
	if err := validate.Struct(nf); err != nil {
		return err
	}
	if nf.StartDate != nil && nf.EndDate != nil && nf.EndDate.Before(*nf.StartDate) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "must not be before start_date"})
	}
	return ValidateFields(nf.Fields)
}

// New returns a draft Form with a fresh id.
func New(nf NewForm, now time.Time) Form {
	return Form{
		ID:             uuid.New().String(),
		Title:          nf.Title,
		Description:    nf.Description,
		Fields:         nf.Fields,
		AssignedRoles:  nf.AssignedRoles,
		AcademicYearID: nf.AcademicYearID,
		StartDate:      nf.StartDate,
		EndDate:        nf.EndDate,
		Status:         StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
