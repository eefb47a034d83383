package core

import (
	"context"
	"fmt"
	"sort"

	"btocore/pkg/domain"
)

// NewOfficerSlotRule returns the rule keeping officer slots within
// [0, MaxOfficerSlots-assigned] and each officer in at most one list.
func NewOfficerSlotRule() domain.Rule {
	return officerSlotRule{}
}

type officerSlotRule struct{}

func (officerSlotRule) Name() string { return "officer_slots" }

func (officerSlotRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, name := range changedKeys(changes, domain.EntityProject) {
		project, ok := view.FindProject(name)
		if !ok {
			continue
		}
		if project.OfficerSlots < 0 {
			res.Violations = append(res.Violations, slotViolation(project.Name, fmt.Sprintf("project %s has negative officer slots", project.Name)))
		}
		if total := project.OfficerSlots + len(project.AssignedOfficers); total > domain.MaxOfficerSlots {
			res.Violations = append(res.Violations, slotViolation(project.Name, fmt.Sprintf("project %s exceeds %d officers: %d slots + %d assigned", project.Name, domain.MaxOfficerSlots, project.OfficerSlots, len(project.AssignedOfficers))))
		}
		for _, officer := range duplicatedOfficers(project) {
			res.Violations = append(res.Violations, slotViolation(project.Name, fmt.Sprintf("officer %s appears in more than one list of %s", officer, project.Name)))
		}
	}
	return res, nil
}

func duplicatedOfficers(project domain.Project) []string {
	counts := make(map[string]int)
	for _, list := range [][]string{project.AssignedOfficers, project.RequestedOfficers, project.RejectedOfficers} {
		for _, officer := range list {
			counts[officer]++
		}
	}
	var dup []string
	for officer, n := range counts {
		if n > 1 {
			dup = append(dup, officer)
		}
	}
	sort.Strings(dup)
	return dup
}

func slotViolation(project, msg string) domain.Violation {
	return domain.Violation{
		Rule:     "officer_slots",
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   domain.EntityProject,
		EntityID: project,
	}
}
