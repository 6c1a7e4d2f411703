package models

import (
	"errors"
	"fmt"
)

// ErrCheckLength is returned when a check result does not have one entry per dependency
var ErrCheckLength = errors.New("check result length does not match dependency count")

// DependencyStatus is the verification state of one dependency
type DependencyStatus string

const (
	DependencyPending      DependencyStatus = "pending"
	DependencySatisfied    DependencyStatus = "satisfied"
	DependencyNotSatisfied DependencyStatus = "not_satisfied"
)

// DependencyCheck pairs a dependency with its verification state
type DependencyCheck struct {
	Element Element          `json:"element"`
	Status  DependencyStatus `json:"status"`
}

// CheckReport is the outcome of a dependency check for a whole patch
type CheckReport struct {
	Dependencies []DependencyCheck `json:"dependencies"`
	AllSatisfied bool              `json:"all_satisfied"`
}

// NewPendingReport returns a report with every dependency waiting for a check
func NewPendingReport(deps *PatchList) *CheckReport {
	report := &CheckReport{Dependencies: make([]DependencyCheck, 0, deps.Count())}
	for _, e := range deps.Elements() {
		report.Dependencies = append(report.Dependencies, DependencyCheck{Element: e, Status: DependencyPending})
	}
	return report
}

// NewCheckReport marks deps[i] satisfied when bits[i] is set. The bit slice must
// have exactly one entry per dependency; otherwise no report is produced.
func NewCheckReport(deps *PatchList, bits []bool) (*CheckReport, error) {
	if len(bits) != deps.Count() {
		return nil, fmt.Errorf("%w: got %d results for %d dependencies", ErrCheckLength, len(bits), deps.Count())
	}

	report := &CheckReport{
		Dependencies: make([]DependencyCheck, len(bits)),
		AllSatisfied: true,
	}

	for i, e := range deps.Elements() {
		status := DependencySatisfied
		if !bits[i] {
			status = DependencyNotSatisfied
			report.AllSatisfied = false
		}
		report.Dependencies[i] = DependencyCheck{Element: e, Status: status}
	}

	return report, nil
}

// Unsatisfied returns the dependencies that were not found
func (r *CheckReport) Unsatisfied() []Element {
	var out []Element
	for _, d := range r.Dependencies {
		if d.Status == DependencyNotSatisfied {
			out = append(out, d.Element)
		}
	}
	return out
}
