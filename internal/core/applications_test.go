package core

import (
	"errors"
	"testing"

	"btocore/pkg/domain"
)

func TestApplicationLifecycleMovesInventoryOnlyAtBookingAndWithdrawal(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	f.assignOfficer(t, nricManager, projectAcacia, nricOfficer)

	app := f.apply(t, nricMarried30, projectAcacia, "3-Room")
	if app.Status != domain.StatusPending || app.ID != "1" {
		t.Fatalf("unexpected application %+v", app)
	}
	approved, _, err := f.svc.ApproveApplication(f.ctx, nricManager, app.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.StatusSuccess || f.units(t, projectAcacia, domain.FlatThreeRoom) != 2 {
		t.Fatalf("approval must not consume inventory: %+v", approved)
	}
	booked, _, err := f.svc.BookApplication(f.ctx, nricOfficer, app.ID)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if booked.Status != domain.StatusBooked || f.units(t, projectAcacia, domain.FlatThreeRoom) != 1 {
		t.Fatalf("booking should take one unit: %+v", booked)
	}
	if _, _, err := f.svc.RequestWithdrawal(f.ctx, nricMarried30, app.ID); err != nil {
		t.Fatalf("request withdrawal: %v", err)
	}
	withdrawn, _, err := f.svc.ApproveWithdrawal(f.ctx, nricManager, app.ID)
	if err != nil {
		t.Fatalf("approve withdrawal: %v", err)
	}
	if withdrawn.Status != domain.StatusUnsuccessful || f.units(t, projectAcacia, domain.FlatThreeRoom) != 2 {
		t.Fatalf("withdrawal should restock: %+v units=%d", withdrawn, f.units(t, projectAcacia, domain.FlatThreeRoom))
	}
	if _, ok, _ := f.svc.ActiveApplication(f.ctx, nricMarried30); ok {
		t.Fatalf("withdrawn application still active")
	}
	again := f.apply(t, nricMarried30, projectAcacia, "2-Room")
	if again.ID != "2" {
		t.Fatalf("expected next sequential id 2, got %s", again.ID)
	}
}

func TestApplyRejectsSingleUnderAge(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	_, _, err := f.svc.Apply(f.ctx, nricSingle30, projectAcacia, "2-Room")
	wantKind(t, err, domain.ErrNotEligible)
	_, _, err = f.svc.Apply(f.ctx, nricSingle40, projectAcacia, "3-Room")
	wantKind(t, err, domain.ErrNotEligible)
	app := f.apply(t, nricSingle40, projectAcacia, "2-Room")
	if app.FlatType != domain.FlatTwoRoom {
		t.Fatalf("unexpected flat type %s", app.FlatType)
	}
}

func TestApplyGuards(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	f.project(t, nricManager2, projectWillow, "2025/06/01", "2025/06/30", -1, 0, 2)

	_, _, err := f.svc.Apply(f.ctx, nricMarried30, projectWillow, "3-Room")
	wantKind(t, err, domain.ErrNoUnitsAvailable)
	_, _, err = f.svc.Apply(f.ctx, nricMarried30, projectWillow, "2-Room")
	wantKind(t, err, domain.ErrUnknownFlatType)
	_, _, err = f.svc.Apply(f.ctx, nricMarried30, projectAcacia, "5-Room")
	wantKind(t, err, domain.ErrUnknownFlatType)
	_, _, err = f.svc.Apply(f.ctx, nricManager, projectAcacia, "2-Room")
	wantKind(t, err, domain.ErrUnauthorizedActor)
	_, _, err = f.svc.Apply(f.ctx, "S0000000X", projectAcacia, "2-Room")
	wantKind(t, err, domain.ErrNotFound)
	_, _, err = f.svc.Apply(f.ctx, nricMarried30, "Nowhere", "2-Room")
	wantKind(t, err, domain.ErrNotFound)

	if _, _, err := f.svc.ToggleVisibility(f.ctx, nricManager, projectAcacia); err != nil {
		t.Fatalf("hide: %v", err)
	}
	_, _, err = f.svc.Apply(f.ctx, nricMarried30, projectAcacia, "2-Room")
	wantKind(t, err, domain.ErrProjectNotVisible)
	if _, _, err := f.svc.ToggleVisibility(f.ctx, nricManager, projectAcacia); err != nil {
		t.Fatalf("show: %v", err)
	}

	first := f.apply(t, nricMarried30, projectAcacia, "2-Room")
	_, _, err = f.svc.Apply(f.ctx, nricMarried30, projectAcacia, "3-Room")
	wantKind(t, err, domain.ErrDuplicateActiveApplication)
	if _, _, err := f.svc.RejectApplication(f.ctx, nricManager, first.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	f.apply(t, nricMarried30, projectAcacia, "3-Room")
}

func TestOfficerCannotApplyToHandledProject(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	f.project(t, nricManager2, projectWillow, "2025/07/01", "2025/07/31", 2, 2, 2)
	f.assignOfficer(t, nricManager, projectAcacia, nricOfficer)
	_, _, err := f.svc.Apply(f.ctx, nricOfficer, projectAcacia, "2-Room")
	wantKind(t, err, domain.ErrRoleConflict)
	app := f.apply(t, nricOfficer, projectWillow, "3-Room")
	if app.ApplicantNRIC != nricOfficer {
		t.Fatalf("unexpected applicant %s", app.ApplicantNRIC)
	}
	_, _, err = f.svc.RegisterOfficer(f.ctx, nricOfficer, projectWillow)
	wantKind(t, err, domain.ErrRoleConflict)
}

func TestRequestedOfficerMayApplyButNotBeAssigned(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	if _, _, err := f.svc.RegisterOfficer(f.ctx, nricOfficer, projectAcacia); err != nil {
		t.Fatalf("register: %v", err)
	}
	app := f.apply(t, nricOfficer, projectAcacia, "2-Room")
	if app.Status != domain.StatusPending {
		t.Fatalf("unexpected status %s", app.Status)
	}
	_, _, err := f.svc.ApproveRegistration(f.ctx, nricManager, projectAcacia, nricOfficer)
	wantKind(t, err, domain.ErrRoleConflict)
	p, _ := f.svc.Store().GetProject(projectAcacia)
	if p.RegistrationOf("Daniel") != domain.RegistrationRequested {
		t.Fatalf("registration should stay requested, got %s", p.RegistrationOf("Daniel"))
	}
}

func TestBookingNeverOversells(t *testing.T) {
	f := newFixture(t)
	f.project(t, nricManager, projectAcacia, "2025/06/01", "2025/06/30", 1, 1, 3)
	f.assignOfficer(t, nricManager, projectAcacia, nricOfficer)
	first := f.apply(t, nricMarried30, projectAcacia, "2-Room")
	second := f.apply(t, nricMarried25, projectAcacia, "2-Room")
	for _, id := range []string{first.ID, second.ID} {
		if _, _, err := f.svc.ApproveApplication(f.ctx, nricManager, id); err != nil {
			t.Fatalf("approve %s: %v", id, err)
		}
	}
	if _, _, err := f.svc.BookApplication(f.ctx, nricOfficer, first.ID); err != nil {
		t.Fatalf("book first: %v", err)
	}
	_, _, err := f.svc.BookApplication(f.ctx, nricOfficer, second.ID)
	wantKind(t, err, domain.ErrNoUnitsAvailable)
	if got := f.units(t, projectAcacia, domain.FlatTwoRoom); got != 0 {
		t.Fatalf("expected 0 units left, got %d", got)
	}
	if app, _ := f.svc.Store().GetApplication(second.ID); app.Status != domain.StatusSuccess {
		t.Fatalf("failed booking changed status to %s", app.Status)
	}
}

func TestManagerAndOfficerAuthority(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	app := f.apply(t, nricMarried30, projectAcacia, "2-Room")

	_, _, err := f.svc.ApproveApplication(f.ctx, nricManager2, app.ID)
	wantKind(t, err, domain.ErrUnauthorizedActor)
	_, _, err = f.svc.ApproveApplication(f.ctx, nricOfficer, app.ID)
	wantKind(t, err, domain.ErrUnauthorizedActor)
	_, _, err = f.svc.ApproveApplication(f.ctx, nricManager, "99")
	wantKind(t, err, domain.ErrNotFound)

	_, _, err = f.svc.BookApplication(f.ctx, nricOfficer, app.ID)
	wantKind(t, err, domain.ErrUnauthorizedActor)
	f.assignOfficer(t, nricManager, projectAcacia, nricOfficer)
	_, _, err = f.svc.BookApplication(f.ctx, nricOfficer, app.ID)
	wantKind(t, err, domain.ErrInvalidStateTransition)
}

func TestWithdrawalRequests(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	app := f.apply(t, nricMarried30, projectAcacia, "2-Room")
	if _, _, err := f.svc.ApproveApplication(f.ctx, nricManager, app.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, _, err := f.svc.RequestWithdrawal(f.ctx, nricMarried25, app.ID)
	wantKind(t, err, domain.ErrUnauthorizedActor)
	_, _, err = f.svc.RejectWithdrawal(f.ctx, nricManager, app.ID)
	wantKind(t, err, domain.ErrInvalidStateTransition)

	if _, _, err := f.svc.RequestWithdrawal(f.ctx, nricMarried30, app.ID); err != nil {
		t.Fatalf("request: %v", err)
	}
	_, _, err = f.svc.RequestWithdrawal(f.ctx, nricMarried30, app.ID)
	if !errors.Is(err, domain.ErrAlreadyRequested) {
		t.Fatalf("expected already requested, got %v", err)
	}
	kept, _, err := f.svc.RejectWithdrawal(f.ctx, nricManager, app.ID)
	if err != nil {
		t.Fatalf("reject withdrawal: %v", err)
	}
	if kept.Status != domain.StatusSuccess || kept.WithdrawalRequested {
		t.Fatalf("rejecting a withdrawal should keep the status: %+v", kept)
	}

	if _, _, err := f.svc.RequestWithdrawal(f.ctx, nricMarried30, app.ID); err != nil {
		t.Fatalf("request again: %v", err)
	}
	done, _, err := f.svc.ApproveWithdrawal(f.ctx, nricManager, app.ID)
	if err != nil {
		t.Fatalf("approve withdrawal: %v", err)
	}
	if done.Status != domain.StatusUnsuccessful || f.units(t, projectAcacia, domain.FlatTwoRoom) != 2 {
		t.Fatalf("unbooked withdrawal must not touch inventory: %+v", done)
	}
	_, _, err = f.svc.RequestWithdrawal(f.ctx, nricMarried30, app.ID)
	wantKind(t, err, domain.ErrInvalidStateTransition)
}
