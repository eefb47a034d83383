package core

import (
	"context"
	"fmt"

	"btocore/pkg/domain"
)

// NewSingleActiveApplicationRule returns the rule allowing at most one
// non-terminal application per applicant.
func NewSingleActiveApplicationRule() domain.Rule {
	return singleActiveApplicationRule{}
}

type singleActiveApplicationRule struct{}

func (singleActiveApplicationRule) Name() string { return "single_active_application" }

func (singleActiveApplicationRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := make(map[string]struct{})
	for _, id := range changedKeys(changes, domain.EntityApplication) {
		if app, ok := view.FindApplication(id); ok && app.Active() {
			touched[app.ApplicantNRIC] = struct{}{}
		}
	}
	res := domain.Result{}
	if len(touched) == 0 {
		return res, nil
	}
	active := make(map[string][]string)
	for _, app := range view.ListApplications() {
		if _, ok := touched[app.ApplicantNRIC]; ok && app.Active() {
			active[app.ApplicantNRIC] = append(active[app.ApplicantNRIC], app.ID)
		}
	}
	for _, app := range view.ListApplications() {
		ids := active[app.ApplicantNRIC]
		if len(ids) <= 1 || ids[0] != app.ID {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "single_active_application",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("applicant %s holds %d active applications %v", app.ApplicantNRIC, len(ids), ids),
			Entity:   domain.EntityApplication,
			EntityID: ids[len(ids)-1],
		})
	}
	return res, nil
}
