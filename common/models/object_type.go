package models

// ObjectType is the kind of database object a patch list element refers to.
// The string value is the token used in object-list and dependency-list files.
type ObjectType string

const (
	TypeScript   ObjectType = "script"
	TypeTable    ObjectType = "table"
	TypeSequence ObjectType = "sequence"
	TypeFunction ObjectType = "function"
	TypeView     ObjectType = "view"
	TypeTrigger  ObjectType = "trigger"
	TypeIndex    ObjectType = "index"
)

// ObjectTypes lists every object type in declaration order
var ObjectTypes = []ObjectType{
	TypeScript,
	TypeTable,
	TypeSequence,
	TypeFunction,
	TypeView,
	TypeTrigger,
	TypeIndex,
}

// ParseObjectType returns the object type named by token
func ParseObjectType(token string) (ObjectType, bool) {
	t := ObjectType(token)
	return t, t.IsValid()
}

// IsValid reports whether t is one of the known object types
func (t ObjectType) IsValid() bool {
	switch t {
	case TypeScript, TypeTable, TypeSequence, TypeFunction, TypeView, TypeTrigger, TypeIndex:
		return true
	}
	return false
}

// IsSchemaObject reports whether objects of this type live inside a database schema
func (t ObjectType) IsSchemaObject() bool {
	return t.IsValid() && t != TypeScript
}

func (t ObjectType) String() string {
	return string(t)
}
