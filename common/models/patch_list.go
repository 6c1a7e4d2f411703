package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Element is a reference to one database object in a patch.
// Elements are immutable; accessors hand out copies.
type Element struct {
	typ    ObjectType
	schema string
	name   string
	// Ordered argument names, only meaningful for functions
	parameters []string
}

// NewElement creates an element. The schema is dropped for scripts and
// parameters are kept only for functions.
func NewElement(typ ObjectType, schema, name string, parameters []string) Element {
	e := Element{typ: typ, schema: schema, name: name}

	if typ == TypeScript {
		e.schema = ""
	}

	if typ == TypeFunction && len(parameters) > 0 {
		e.parameters = append([]string(nil), parameters...)
	}

	return e
}

// Type returns the object type
func (e Element) Type() ObjectType {
	return e.typ
}

// Schema returns the schema name (empty for scripts)
func (e Element) Schema() string {
	return e.schema
}

// Name returns the object name, or the file path for scripts
func (e Element) Name() string {
	return e.name
}

// Parameters returns a copy of the function argument names
func (e Element) Parameters() []string {
	if len(e.parameters) == 0 {
		return []string{}
	}
	return append([]string(nil), e.parameters...)
}

// Equal reports whether two elements carry the same type, schema, name and parameters
func (e Element) Equal(other Element) bool {
	if e.typ != other.typ || e.schema != other.schema || e.name != other.name {
		return false
	}
	if len(e.parameters) != len(other.parameters) {
		return false
	}
	for i := range e.parameters {
		if e.parameters[i] != other.parameters[i] {
			return false
		}
	}
	return true
}

// SameObject reports whether two elements point at the same object,
// ignoring function parameters
func (e Element) SameObject(other Element) bool {
	return e.typ == other.typ && e.schema == other.schema && e.name == other.name
}

func (e Element) String() string {
	switch e.typ {
	case TypeScript:
		return fmt.Sprintf("script %s", e.name)
	case TypeFunction:
		return fmt.Sprintf("%s.%s(%s)", e.schema, e.name, strings.Join(e.parameters, ","))
	default:
		return fmt.Sprintf("%s %s.%s", e.typ, e.schema, e.name)
	}
}

type elementJSON struct {
	Type       ObjectType `json:"type"`
	Schema     string     `json:"schema"`
	Name       string     `json:"name"`
	Parameters []string   `json:"parameters"`
}

// MarshalJSON implements json.Marshaler
func (e Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(elementJSON{
		Type:       e.typ,
		Schema:     e.schema,
		Name:       e.name,
		Parameters: e.Parameters(),
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (e *Element) UnmarshalJSON(data []byte) error {
	var raw elementJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Type.IsValid() {
		return fmt.Errorf("unknown object type %q", raw.Type)
	}
	*e = NewElement(raw.Type, raw.Schema, raw.Name, raw.Parameters)
	return nil
}

// PatchList is an ordered list of elements. Copies made with Clone never
// share elements with the original.
type PatchList struct {
	elements []Element
}

// NewPatchList creates a list holding the given elements in order
func NewPatchList(elements ...Element) *PatchList {
	l := &PatchList{}
	for _, e := range elements {
		l.Append(e)
	}
	return l
}

// Add appends a new element built from its parts
func (l *PatchList) Add(typ ObjectType, schema, name string, parameters []string) {
	l.Append(NewElement(typ, schema, name, parameters))
}

// Append appends an element
func (l *PatchList) Append(e Element) {
	l.elements = append(l.elements, NewElement(e.typ, e.schema, e.name, e.parameters))
}

// At returns the element at index i
func (l *PatchList) At(i int) Element {
	return l.elements[i]
}

// Count returns the number of elements
func (l *PatchList) Count() int {
	if l == nil {
		return 0
	}
	return len(l.elements)
}

// Elements returns the elements in insertion order. The returned slice is a
// copy; modifying it does not affect the list.
func (l *PatchList) Elements() []Element {
	if l == nil {
		return nil
	}
	return append([]Element(nil), l.elements...)
}

// Contains reports whether an element pointing at the same object is in the list
func (l *PatchList) Contains(e Element) bool {
	for _, current := range l.elements {
		if current.SameObject(e) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the list
func (l *PatchList) Clone() *PatchList {
	clone := &PatchList{elements: make([]Element, 0, len(l.elements))}
	for _, e := range l.elements {
		clone.Append(e)
	}
	return clone
}

// Clear removes all elements
func (l *PatchList) Clear() {
	l.elements = nil
}

// MarshalJSON implements json.Marshaler
func (l *PatchList) MarshalJSON() ([]byte, error) {
	if l == nil || l.elements == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.elements)
}

// UnmarshalJSON implements json.Unmarshaler
func (l *PatchList) UnmarshalJSON(data []byte) error {
	var elements []Element
	if err := json.Unmarshal(data, &elements); err != nil {
		return err
	}
	l.elements = elements
	return nil
}
