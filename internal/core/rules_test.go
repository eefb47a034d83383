package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"btocore/internal/infra/persistence/memory"
	"btocore/pkg/domain"
)

func violationRules(t *testing.T, err error) []string {
	t.Helper()
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	rules := make([]string, 0, len(violation.Result.Violations))
	for _, v := range violation.Result.Violations {
		rules = append(rules, v.Rule)
	}
	return rules
}

func hasRule(rules []string, name string) bool {
	for _, r := range rules {
		if r == name {
			return true
		}
	}
	return false
}

func TestDefaultRulesEngineRegistersInvariantRules(t *testing.T) {
	got := NewDefaultRulesEngine().Rules()
	want := []string{"flat_inventory", "officer_slots", "single_active_application", lifecycleRuleName}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRulesBlockDirectStoreWrites(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		rule string
		seed func(tx domain.Transaction) error
		tx   func(tx domain.Transaction) error
	}{
		{
			name: "negative inventory",
			rule: "flat_inventory",
			tx: func(tx domain.Transaction) error {
				_, err := tx.CreateProject(domain.Project{Name: "P", FlatTypes: map[domain.FlatType]domain.FlatTypeDetails{domain.FlatTwoRoom: {AvailableUnits: -1}}})
				return err
			},
		},
		{
			name: "unknown flat type",
			rule: "flat_inventory",
			tx: func(tx domain.Transaction) error {
				_, err := tx.CreateProject(domain.Project{Name: "P", FlatTypes: map[domain.FlatType]domain.FlatTypeDetails{"Penthouse": {AvailableUnits: 1}}})
				return err
			},
		},
		{
			name: "too many officers",
			rule: "officer_slots",
			tx: func(tx domain.Transaction) error {
				_, err := tx.CreateProject(domain.Project{Name: "P", OfficerSlots: 9, AssignedOfficers: []string{"A", "B"}})
				return err
			},
		},
		{
			name: "officer in two lists",
			rule: "officer_slots",
			tx: func(tx domain.Transaction) error {
				_, err := tx.CreateProject(domain.Project{Name: "P", OfficerSlots: 1, AssignedOfficers: []string{"A"}, RejectedOfficers: []string{"A"}})
				return err
			},
		},
		{
			name: "application not created pending",
			rule: lifecycleRuleName,
			tx: func(tx domain.Transaction) error {
				_, err := tx.CreateApplication(domain.Application{ProjectName: "P", ApplicantNRIC: "S1", FlatType: domain.FlatTwoRoom, Status: domain.StatusBooked})
				return err
			},
		},
		{
			name: "second active application",
			rule: "single_active_application",
			seed: func(tx domain.Transaction) error {
				_, err := tx.CreateApplication(domain.NewApplication("P", "S1", domain.FlatTwoRoom, time.Now()))
				return err
			},
			tx: func(tx domain.Transaction) error {
				_, err := tx.CreateApplication(domain.NewApplication("Q", "S1", domain.FlatTwoRoom, time.Now()))
				return err
			},
		},
		{
			name: "revived terminal application",
			rule: lifecycleRuleName,
			seed: func(tx domain.Transaction) error {
				app, err := tx.CreateApplication(domain.NewApplication("P", "S1", domain.FlatTwoRoom, time.Now()))
				if err != nil {
					return err
				}
				_, err = tx.UpdateApplication(app.ID, func(a *domain.Application) error { return a.Reject() })
				return err
			},
			tx: func(tx domain.Transaction) error {
				_, err := tx.UpdateApplication("1", func(a *domain.Application) error {
					a.Status = domain.StatusPending
					return nil
				})
				return err
			},
		},
		{
			name: "edited replied enquiry",
			rule: lifecycleRuleName,
			seed: func(tx domain.Transaction) error {
				e, _ := domain.NewEnquiry("S1", "P", "question", time.Now())
				e.Reply, e.RepliedBy = "answer", "Daniel"
				_, err := tx.CreateEnquiry(e)
				return err
			},
			tx: func(tx domain.Transaction) error {
				_, err := tx.UpdateEnquiry("1", func(e *domain.Enquiry) error {
					e.Details = "rewritten"
					return nil
				})
				return err
			},
		},
		{
			name: "deleted replied enquiry",
			rule: lifecycleRuleName,
			seed: func(tx domain.Transaction) error {
				e, _ := domain.NewEnquiry("S1", "P", "question", time.Now())
				e.Reply = "answer"
				_, err := tx.CreateEnquiry(e)
				return err
			},
			tx: func(tx domain.Transaction) error { return tx.DeleteEnquiry("1") },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.NewStore(NewDefaultRulesEngine())
			if tc.seed != nil {
				if _, err := store.RunInTransaction(ctx, tc.seed); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}
			before := store.ExportState()
			_, err := store.RunInTransaction(ctx, tc.tx)
			if rules := violationRules(t, err); !hasRule(rules, tc.rule) {
				t.Fatalf("expected %s violation, got %v", tc.rule, rules)
			}
			after := store.ExportState()
			if len(after.Projects) != len(before.Projects) || len(after.Applications) != len(before.Applications) || len(after.Enquiries) != len(before.Enquiries) {
				t.Fatalf("blocked transaction changed state")
			}
		})
	}
}

func TestRulesAllowLegalWrites(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(NewDefaultRulesEngine())
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateProject(domain.Project{Name: "P", OfficerSlots: 8, AssignedOfficers: []string{"A", "B"}, FlatTypes: map[domain.FlatType]domain.FlatTypeDetails{domain.FlatTwoRoom: {AvailableUnits: 0}}}); err != nil {
			return err
		}
		app, err := tx.CreateApplication(domain.NewApplication("P", "S1", domain.FlatTwoRoom, time.Now()))
		if err != nil {
			return err
		}
		if _, err := tx.UpdateApplication(app.ID, func(a *domain.Application) error { return a.Reject() }); err != nil {
			return err
		}
		_, err = tx.CreateApplication(domain.NewApplication("P", "S1", domain.FlatTwoRoom, time.Now()))
		return err
	})
	if err != nil {
		t.Fatalf("legal writes blocked: %v", err)
	}
}
