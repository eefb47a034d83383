package core

import (
	"context"
	"fmt"

	"btocore/pkg/domain"
)

// LifecycleTransitionRule blocks illegal application status changes and edits
// to answered enquiries.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

const lifecycleRuleName = "lifecycle_transition"

func (lifecycleTransitionRule) Name() string { return lifecycleRuleName }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		switch change.Entity {
		case domain.EntityApplication:
			if v, ok := checkApplicationTransition(change); ok {
				res.Violations = append(res.Violations, v)
			}
		case domain.EntityEnquiry:
			if v, ok := checkEnquiryImmutable(change); ok {
				res.Violations = append(res.Violations, v)
			}
		}
	}
	return res, nil
}

func lifecycleViolation(entity domain.EntityType, id, msg string) domain.Violation {
	return domain.Violation{
		Rule:     lifecycleRuleName,
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   entity,
		EntityID: id,
	}
}

func checkApplicationTransition(change domain.Change) (domain.Violation, bool) {
	after, ok := domain.DecodePayload[domain.Application](change.After)
	if !ok {
		return domain.Violation{}, false
	}
	if !after.Status.Valid() {
		return lifecycleViolation(domain.EntityApplication, after.ID, fmt.Sprintf("application %s is set to invalid status %s", after.ID, after.Status)), true
	}
	before, ok := domain.DecodePayload[domain.Application](change.Before)
	if !ok {
		if after.Status != domain.StatusPending {
			return lifecycleViolation(domain.EntityApplication, after.ID, fmt.Sprintf("application %s must start PENDING, got %s", after.ID, after.Status)), true
		}
		return domain.Violation{}, false
	}
	if before.Status.Terminal() && after.WithdrawalRequested {
		return lifecycleViolation(domain.EntityApplication, after.ID, fmt.Sprintf("application %s is terminal and cannot request withdrawal", after.ID)), true
	}
	if !domain.AllowedTransition(before.Status, after.Status) {
		return lifecycleViolation(domain.EntityApplication, after.ID, fmt.Sprintf("cannot move application %s from %s to %s", after.ID, before.Status, after.Status)), true
	}
	return domain.Violation{}, false
}

func checkEnquiryImmutable(change domain.Change) (domain.Violation, bool) {
	if change.Action != domain.ActionUpdate && change.Action != domain.ActionDelete {
		return domain.Violation{}, false
	}
	before, ok := domain.DecodePayload[domain.Enquiry](change.Before)
	if !ok || !before.Replied() {
		return domain.Violation{}, false
	}
	if change.Action == domain.ActionDelete {
		return lifecycleViolation(domain.EntityEnquiry, before.ID, fmt.Sprintf("enquiry %s was replied and cannot be deleted", before.ID)), true
	}
	after, ok := domain.DecodePayload[domain.Enquiry](change.After)
	if !ok {
		return domain.Violation{}, false
	}
	if after.Details != before.Details || after.Reply != before.Reply || after.RepliedBy != before.RepliedBy {
		return lifecycleViolation(domain.EntityEnquiry, before.ID, fmt.Sprintf("enquiry %s was replied and is immutable", before.ID)), true
	}
	return domain.Violation{}, false
}
