package core

import (
	"errors"
	"testing"

	"btocore/pkg/domain"
)

func TestOfficerRegistrationFlow(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)

	p, _, err := f.svc.RegisterOfficer(f.ctx, nricOfficer, projectAcacia)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.RegistrationOf("Daniel") != domain.RegistrationRequested || p.OfficerSlots != 3 {
		t.Fatalf("request should not consume a slot: %+v", p)
	}
	_, _, err = f.svc.RegisterOfficer(f.ctx, nricOfficer, projectAcacia)
	if !errors.Is(err, domain.ErrAlreadyRequested) || domain.KindOf(err) != domain.ErrDuplicateRequest {
		t.Fatalf("expected duplicate request, got %v", err)
	}

	_, _, err = f.svc.ApproveRegistration(f.ctx, nricManager2, projectAcacia, nricOfficer)
	wantKind(t, err, domain.ErrUnauthorizedActor)

	p, _, err = f.svc.ApproveRegistration(f.ctx, nricManager, projectAcacia, nricOfficer)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !p.HasAssigned("Daniel") || p.OfficerSlots != 2 {
		t.Fatalf("approval should assign and take a slot: %+v", p)
	}

	statuses, err := f.svc.RegistrationStatuses(f.ctx, nricOfficer)
	if err != nil {
		t.Fatalf("statuses: %v", err)
	}
	if len(statuses) != 1 || statuses[0].State != domain.RegistrationAssigned {
		t.Fatalf("unexpected statuses %+v", statuses)
	}

	p, _, err = f.svc.RejectRegistration(f.ctx, nricManager, projectAcacia, nricOfficer)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if p.OfficerSlots != 3 || p.RegistrationOf("Daniel") != domain.RegistrationRejected {
		t.Fatalf("rejecting an assigned officer should free the slot: %+v", p)
	}
	_, _, err = f.svc.RegisterOfficer(f.ctx, nricOfficer, projectAcacia)
	wantKind(t, err, domain.ErrInvalidStateTransition)

	regs, err := f.svc.ProjectRegistrations(f.ctx, nricManager, projectAcacia)
	if err != nil {
		t.Fatalf("project registrations: %v", err)
	}
	if len(regs.Rejected) != 1 || regs.Rejected[0] != "Daniel" || len(regs.Assigned) != 0 || regs.OfficerSlots != 3 {
		t.Fatalf("unexpected registrations %+v", regs)
	}
	_, err = f.svc.ProjectRegistrations(f.ctx, nricManager2, projectAcacia)
	wantKind(t, err, domain.ErrUnauthorizedActor)
}

func TestRegistrationSlotsExhausted(t *testing.T) {
	f := newFixture(t)
	f.project(t, nricManager, projectAcacia, "2025/06/01", "2025/06/30", 2, 2, 1)
	f.assignOfficer(t, nricManager, projectAcacia, nricOfficer)
	if _, _, err := f.svc.RegisterOfficer(f.ctx, nricOfficer2, projectAcacia); err != nil {
		t.Fatalf("register second officer: %v", err)
	}
	_, _, err := f.svc.ApproveRegistration(f.ctx, nricManager, projectAcacia, nricOfficer2)
	wantKind(t, err, domain.ErrNoSlotsAvailable)
	regs, err := f.svc.ProjectRegistrations(f.ctx, nricManager, projectAcacia)
	if err != nil {
		t.Fatalf("registrations: %v", err)
	}
	if len(regs.Requested) != 1 || regs.OfficerSlots != 0 {
		t.Fatalf("failed approval altered lists: %+v", regs)
	}
}

func TestRegistrationSchedulingConflict(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	f.project(t, nricManager2, projectWillow, "2025/06/30", "2025/07/15", 2, 2, 2)
	f.project(t, nricManager2, "Cedar Heights", "2025/07/16", "2025/07/31", 2, 2, 2)

	if _, _, err := f.svc.RegisterOfficer(f.ctx, nricOfficer, projectAcacia); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := f.svc.RegisterOfficer(f.ctx, nricOfficer, projectWillow)
	wantKind(t, err, domain.ErrSchedulingConflict)
	if _, _, err := f.svc.RegisterOfficer(f.ctx, nricOfficer, "Cedar Heights"); err != nil {
		t.Fatalf("disjoint window should register: %v", err)
	}
	if _, _, err := f.svc.RegisterOfficer(f.ctx, nricOfficer2, projectWillow); err != nil {
		t.Fatalf("other officer should register: %v", err)
	}
}

func TestRegistrationRoles(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	_, _, err := f.svc.RegisterOfficer(f.ctx, nricMarried30, projectAcacia)
	wantKind(t, err, domain.ErrUnauthorizedActor)
	_, _, err = f.svc.ApproveRegistration(f.ctx, nricManager, projectAcacia, nricOfficer)
	wantKind(t, err, domain.ErrInvalidStateTransition)
	_, err = f.svc.RegistrationStatuses(f.ctx, nricManager)
	wantKind(t, err, domain.ErrUnauthorizedActor)
}
