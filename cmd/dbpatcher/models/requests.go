package models

import (
	"github.com/google/uuid"
	common "github.com/lyzr/dbpatcher/common/models"
)

// Reasons an item is not added to a draft
const (
	ReasonEmptyName = "empty_name"
	ReasonDuplicate = "duplicate"
	ReasonNotFound  = "not_found"
	ReasonNotSQL    = "not_sql"
)

// AddItemsRequest asks to extend Draft with one object, or with a
// comma-separated list of script paths when Type is script
type AddItemsRequest struct {
	Draft  []DraftItem       `json:"draft"`
	Type   common.ObjectType `json:"type"`
	Schema string            `json:"schema"`
	Name   string            `json:"name"`
}

// Rejection explains why an item was left out
type Rejection struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// AddItemsResult is the draft after the accepted items were appended
type AddItemsResult struct {
	Draft    []DraftItem `json:"draft"`
	Added    []DraftItem `json:"added"`
	Rejected []Rejection `json:"rejected"`
}

// Accept appends item to the draft
func (r *AddItemsResult) Accept(item DraftItem) {
	r.Draft = append(r.Draft, item)
	r.Added = append(r.Added, item)
}

// Reject records why item was left out
func (r *AddItemsResult) Reject(item DraftItem, reason string) {
	r.Rejected = append(r.Rejected, Rejection{Item: item.String(), Reason: reason})
}

// BuildRequest asks for a patch to be built under Root
type BuildRequest struct {
	Root  string      `json:"root"`
	Items []DraftItem `json:"items"`
}

// BuildResult describes a built patch
type BuildResult struct {
	OperationID uuid.UUID `json:"operation_id"`
	PatchDir    string    `json:"patch_dir"`
	Warnings    []string  `json:"warnings"`
}

// OpenResult holds the lists of an existing patch
type OpenResult struct {
	PatchDir     string              `json:"patch_dir"`
	Objects      *common.PatchList   `json:"objects"`
	Dependencies *common.PatchList   `json:"dependencies"`
	Report       *common.CheckReport `json:"report"`
}

// CheckRequest asks for the dependencies of a patch to be verified. When
// Dependencies is nil the list stored in the patch is checked.
type CheckRequest struct {
	Dir          string            `json:"dir"`
	Dependencies *common.PatchList `json:"dependencies,omitempty"`
}

// CheckResult is the outcome of a dependency check
type CheckResult struct {
	OperationID uuid.UUID           `json:"operation_id"`
	PatchDir    string              `json:"patch_dir"`
	Report      *common.CheckReport `json:"report"`
}

// InstallRequest asks for a patch to be applied. Force confirms installing
// with unverified or missing dependencies.
type InstallRequest struct {
	Dir   string `json:"dir"`
	Force bool   `json:"force"`
}

// InstallResult describes a finished installation
type InstallResult struct {
	OperationID uuid.UUID `json:"operation_id"`
	PatchDir    string    `json:"patch_dir"`
	Forced      bool      `json:"forced"`
}

// SessionStatus describes the current database session
type SessionStatus struct {
	Connected bool   `json:"connected"`
	Host      string `json:"host,omitempty"`
	Port      int    `json:"port,omitempty"`
	Database  string `json:"database,omitempty"`
	User      string `json:"user,omitempty"`
}

// TemplatesRequest sets the builder templates file
type TemplatesRequest struct {
	Path string `json:"path"`
}
