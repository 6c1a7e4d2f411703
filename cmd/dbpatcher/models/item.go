package models

import (
	"strings"

	"github.com/lyzr/dbpatcher/common/catalog"
	common "github.com/lyzr/dbpatcher/common/models"
)

// DraftItem is one entry of a patch being assembled. For functions Name is the
// signature name(arg1,arg2); for scripts it is the file path.
type DraftItem struct {
	Type   common.ObjectType `json:"type"`
	Schema string            `json:"schema,omitempty"`
	Name   string            `json:"name"`
}

// SameAs reports whether both items name the same object
func (d DraftItem) SameAs(other DraftItem) bool {
	if d.Type != other.Type || d.Name != other.Name {
		return false
	}
	return d.Type == common.TypeScript || d.Schema == other.Schema
}

// String renders the item for messages
func (d DraftItem) String() string {
	if d.Type == common.TypeScript {
		return "script " + d.Name
	}
	return string(d.Type) + " " + d.Schema + "." + d.Name
}

// Element converts the item to a patch list element. A function whose name
// is not a valid signature cannot be converted.
func (d DraftItem) Element() (common.Element, bool) {
	if !d.Type.IsValid() || strings.TrimSpace(d.Name) == "" {
		return common.Element{}, false
	}

	if d.Type == common.TypeFunction {
		name, params, ok := catalog.ParseSignature(d.Name)
		if !ok {
			return common.Element{}, false
		}
		return common.NewElement(d.Type, d.Schema, name, params), true
	}

	return common.NewElement(d.Type, d.Schema, d.Name, nil), true
}

// ContainsItem reports whether items already holds item
func ContainsItem(items []DraftItem, item DraftItem) bool {
	for _, existing := range items {
		if existing.SameAs(item) {
			return true
		}
	}
	return false
}
