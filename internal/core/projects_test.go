package core

import (
	"testing"

	"btocore/pkg/domain"
)

func TestManagerLimitedToOneActiveProject(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	_, _, err := f.svc.CreateProject(f.ctx, nricManager, ProjectDraft{
		Name:        projectWillow,
		FlatTypes:   flatTypes(1, 1),
		OpeningDate: mustDate(t, "2025/09/01"),
		ClosingDate: mustDate(t, "2025/09/30"),
	})
	wantKind(t, err, domain.ErrManagerHasActiveProject)

	if _, _, err := f.svc.ToggleVisibility(f.ctx, nricManager, projectAcacia); err != nil {
		t.Fatalf("hide: %v", err)
	}
	f.project(t, nricManager, projectWillow, "2025/09/01", "2025/09/30", 1, 1, 2)
	managed, err := f.svc.ManagedProjects(f.ctx, nricManager)
	if err != nil {
		t.Fatalf("managed: %v", err)
	}
	if len(managed) != 2 || managed[0].Name != projectAcacia || managed[1].Name != projectWillow {
		t.Fatalf("unexpected managed projects %+v", managed)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	f := newFixture(t)
	open, close := mustDate(t, "2025/06/01"), mustDate(t, "2025/06/30")
	cases := []struct {
		name  string
		actor string
		draft ProjectDraft
		kind  domain.ErrorKind
	}{
		{"blank name", nricManager, ProjectDraft{Name: "  ", OpeningDate: open, ClosingDate: close}, domain.ErrInvalidInput},
		{"inverted window", nricManager, ProjectDraft{Name: "X", OpeningDate: close, ClosingDate: open}, domain.ErrInvalidInput},
		{"missing dates", nricManager, ProjectDraft{Name: "X"}, domain.ErrInvalidInput},
		{"unknown flat", nricManager, ProjectDraft{Name: "X", OpeningDate: open, ClosingDate: close, FlatTypes: map[domain.FlatType]domain.FlatTypeDetails{"4-Room": {}}}, domain.ErrUnknownFlatType},
		{"no flat types", nricManager, ProjectDraft{Name: "X", OpeningDate: open, ClosingDate: close, FlatTypes: flatTypes(-1, -1)}, ""},
		{"not a manager", nricOfficer, ProjectDraft{Name: "X", OpeningDate: open, ClosingDate: close}, domain.ErrUnauthorizedActor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.svc.CreateProject(f.ctx, tc.actor, tc.draft)
			if tc.kind == "" {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if _, err := f.svc.DeleteProject(f.ctx, tc.actor, tc.draft.Name); err == nil {
					t.Fatalf("open project deleted under forbid policy")
				}
				return
			}
			wantKind(t, err, tc.kind)
		})
	}
	bad := flatTypes(1, 1)
	bad[domain.FlatTwoRoom] = domain.FlatTypeDetails{AvailableUnits: -3}
	_, _, err := f.svc.CreateProject(f.ctx, nricManager2, ProjectDraft{Name: "Y", OpeningDate: open, ClosingDate: close, FlatTypes: bad})
	wantKind(t, err, domain.ErrInvalidInput)
}

func TestDuplicateProjectName(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	_, _, err := f.svc.CreateProject(f.ctx, nricManager2, ProjectDraft{
		Name:        projectAcacia,
		OpeningDate: mustDate(t, "2025/08/01"),
		ClosingDate: mustDate(t, "2025/08/31"),
	})
	wantKind(t, err, domain.ErrAlreadyExists)
}

func TestOfficerSlotsClamped(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, nricManager, projectAcacia, "2025/06/01", "2025/06/30", 2, 2, 15)
	if p.OfficerSlots != domain.MaxOfficerSlots {
		t.Fatalf("expected slots clamped to %d, got %d", domain.MaxOfficerSlots, p.OfficerSlots)
	}
	f.assignOfficer(t, nricManager, projectAcacia, nricOfficer)
	slots := 12
	edited, _, err := f.svc.EditProject(f.ctx, nricManager, projectAcacia, ProjectEdit{OfficerSlots: &slots})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.OfficerSlots != domain.MaxOfficerSlots-1 || len(edited.AssignedOfficers) != 1 {
		t.Fatalf("slots plus assigned must stay within the cap: %+v", edited)
	}
	negative := -4
	edited, _, err = f.svc.EditProject(f.ctx, nricManager, projectAcacia, ProjectEdit{OfficerSlots: &negative})
	if err != nil {
		t.Fatalf("edit negative: %v", err)
	}
	if edited.OfficerSlots != 0 {
		t.Fatalf("expected 0 slots, got %d", edited.OfficerSlots)
	}
}

func TestEditProjectFields(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	hood := "Tampines"
	closing := mustDate(t, "2025/07/15")
	edited, _, err := f.svc.EditProject(f.ctx, nricManager, projectAcacia, ProjectEdit{
		Neighborhood: &hood,
		ClosingDate:  &closing,
		FlatTypes:    flatTypes(5, -1),
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Neighborhood != hood || !edited.ClosingDate.Equal(closing) || edited.Offers(domain.FlatThreeRoom) || edited.FlatTypes[domain.FlatTwoRoom].AvailableUnits != 5 {
		t.Fatalf("unexpected edit result %+v", edited)
	}
	early := mustDate(t, "2025/05/01")
	_, _, err = f.svc.EditProject(f.ctx, nricManager, projectAcacia, ProjectEdit{ClosingDate: &early})
	wantKind(t, err, domain.ErrInvalidInput)
	_, _, err = f.svc.EditProject(f.ctx, nricManager2, projectAcacia, ProjectEdit{Neighborhood: &hood})
	wantKind(t, err, domain.ErrUnauthorizedActor)
	_, _, err = f.svc.EditProject(f.ctx, nricManager, projectAcacia, ProjectEdit{FlatTypes: map[domain.FlatType]domain.FlatTypeDetails{"Loft": {}}})
	wantKind(t, err, domain.ErrUnknownFlatType)
}

func TestEditProjectKeepsHeldFlatTypes(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	f.assignOfficer(t, nricManager, projectAcacia, nricOfficer)
	app := f.apply(t, nricMarried30, projectAcacia, "3-Room")
	if _, _, err := f.svc.ApproveApplication(f.ctx, nricManager, app.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, _, err := f.svc.BookApplication(f.ctx, nricOfficer, app.ID); err != nil {
		t.Fatalf("book: %v", err)
	}

	_, _, err := f.svc.EditProject(f.ctx, nricManager, projectAcacia, ProjectEdit{FlatTypes: flatTypes(5, -1)})
	wantKind(t, err, domain.ErrInvalidInput)
	if p, _ := f.svc.Store().GetProject(projectAcacia); !p.Offers(domain.FlatThreeRoom) {
		t.Fatalf("held flat type must stay offered")
	}
	if _, _, err := f.svc.EditProject(f.ctx, nricManager, projectAcacia, ProjectEdit{FlatTypes: flatTypes(-1, 4)}); err != nil {
		t.Fatalf("dropping an unheld flat type: %v", err)
	}
}

func TestWithdrawalCompletesWhenFlatTypeGone(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	f.assignOfficer(t, nricManager, projectAcacia, nricOfficer)
	app := f.apply(t, nricMarried30, projectAcacia, "3-Room")
	if _, _, err := f.svc.ApproveApplication(f.ctx, nricManager, app.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, _, err := f.svc.BookApplication(f.ctx, nricOfficer, app.ID); err != nil {
		t.Fatalf("book: %v", err)
	}
	// Records written before flat types were guarded can still lack the bucket.
	if _, err := f.svc.Store().RunInTransaction(f.ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateProject(projectAcacia, func(p *domain.Project) error {
			p.FlatTypes = flatTypes(2, -1)
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("drop flat type: %v", err)
	}

	if _, _, err := f.svc.RequestWithdrawal(f.ctx, nricMarried30, app.ID); err != nil {
		t.Fatalf("request withdrawal: %v", err)
	}
	withdrawn, _, err := f.svc.ApproveWithdrawal(f.ctx, nricManager, app.ID)
	if err != nil {
		t.Fatalf("approve withdrawal: %v", err)
	}
	if withdrawn.Status != domain.StatusUnsuccessful || withdrawn.WithdrawalRequested {
		t.Fatalf("withdrawal should end unsuccessful, got %+v", withdrawn)
	}
	if got := f.units(t, projectAcacia, domain.FlatTwoRoom); got != 2 {
		t.Fatalf("2-Room inventory should be untouched, got %d", got)
	}
}

func TestDeleteProjectPolicy(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	f.project(t, nricManager2, projectWillow, "2025/01/01", "2025/01/31", 1, 1, 1)

	_, err := f.svc.DeleteProject(f.ctx, nricManager, projectAcacia)
	wantKind(t, err, domain.ErrProjectWindowOpen)
	if _, err := f.svc.DeleteProject(f.ctx, nricManager2, projectWillow); err != nil {
		t.Fatalf("closed project should delete: %v", err)
	}
	_, err = f.svc.DeleteProject(f.ctx, nricManager2, projectAcacia)
	wantKind(t, err, domain.ErrUnauthorizedActor)

	allow := newFixture(t, WithDeletePolicy(DeletePolicyAllow))
	allow.acacia(t)
	if _, err := allow.svc.DeleteProject(allow.ctx, nricManager, projectAcacia); err != nil {
		t.Fatalf("allow policy should delete open project: %v", err)
	}
	projects, err := allow.svc.ListProjects(allow.ctx)
	if err != nil || len(projects) != 0 {
		t.Fatalf("expected no projects, got %+v (%v)", projects, err)
	}
}

func TestToggleVisibilityLeavesApplications(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	app := f.apply(t, nricMarried30, projectAcacia, "2-Room")
	hidden, _, err := f.svc.ToggleVisibility(f.ctx, nricManager, projectAcacia)
	if err != nil || hidden.Visible {
		t.Fatalf("expected hidden project, got %+v (%v)", hidden, err)
	}
	if _, _, err := f.svc.ApproveApplication(f.ctx, nricManager, app.ID); err != nil {
		t.Fatalf("hidden project applications stay actionable: %v", err)
	}
	if created := hidden.CreatedAt; !created.Equal(f.now) {
		t.Fatalf("expected created at %v, got %v", f.now, created)
	}
	if !hidden.UpdatedAt.Equal(f.now) {
		t.Fatalf("expected updated at fixture time, got %v", hidden.UpdatedAt)
	}
}
