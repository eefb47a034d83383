package core

import (
	"context"
	"fmt"
	"sort"

	"btocore/pkg/domain"
)

// NewInventoryRule returns the rule blocking negative unit counts and unknown
// flat types on touched projects.
func NewInventoryRule() domain.Rule {
	return inventoryRule{}
}

type inventoryRule struct{}

func (inventoryRule) Name() string { return "flat_inventory" }

func (inventoryRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, name := range changedKeys(changes, domain.EntityProject) {
		project, ok := view.FindProject(name)
		if !ok {
			continue
		}
		for _, ft := range sortedFlatTypes(project) {
			details := project.FlatTypes[ft]
			switch {
			case !ft.Valid():
				res.Violations = append(res.Violations, inventoryViolation(project.Name, fmt.Sprintf("project %s offers unknown flat type %q", project.Name, ft)))
			case details.AvailableUnits < 0:
				res.Violations = append(res.Violations, inventoryViolation(project.Name, fmt.Sprintf("project %s has %d %s units", project.Name, details.AvailableUnits, ft)))
			}
		}
	}
	return res, nil
}

func inventoryViolation(project, msg string) domain.Violation {
	return domain.Violation{
		Rule:     "flat_inventory",
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   domain.EntityProject,
		EntityID: project,
	}
}

func sortedFlatTypes(project domain.Project) []domain.FlatType {
	out := make([]domain.FlatType, 0, len(project.FlatTypes))
	for ft := range project.FlatTypes {
		out = append(out, ft)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
