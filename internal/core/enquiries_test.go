package core

import (
	"testing"

	"btocore/pkg/domain"
)

func TestEnquiryLifecycle(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	f.project(t, nricManager2, projectWillow, "2025/08/01", "2025/08/31", 1, 1, 1)
	f.assignOfficer(t, nricManager, projectAcacia, nricOfficer)

	e, _, err := f.svc.SubmitEnquiry(f.ctx, nricMarried30, projectAcacia, "When is key collection?")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if e.ID != "1" || e.Replied() {
		t.Fatalf("unexpected enquiry %+v", e)
	}
	other, _, err := f.svc.SubmitEnquiry(f.ctx, nricSingle40, projectWillow, "Is there a childcare centre?")
	if err != nil {
		t.Fatalf("submit other: %v", err)
	}

	_, _, err = f.svc.SubmitEnquiry(f.ctx, nricMarried30, projectAcacia, "   ")
	wantKind(t, err, domain.ErrInvalidInput)
	_, _, err = f.svc.SubmitEnquiry(f.ctx, nricMarried30, "Nowhere", "hello")
	wantKind(t, err, domain.ErrNotFound)
	_, _, err = f.svc.SubmitEnquiry(f.ctx, nricManager, projectAcacia, "hello")
	wantKind(t, err, domain.ErrUnauthorizedActor)

	_, _, err = f.svc.EditEnquiry(f.ctx, nricSingle40, e.ID, "hijack")
	wantKind(t, err, domain.ErrUnauthorizedActor)
	edited, _, err := f.svc.EditEnquiry(f.ctx, nricMarried30, e.ID, "When is key collection for 3-Room?")
	if err != nil || edited.Details != "When is key collection for 3-Room?" {
		t.Fatalf("edit: %+v %v", edited, err)
	}

	_, _, err = f.svc.ReplyEnquiry(f.ctx, nricOfficer, other.ID, "Yes")
	wantKind(t, err, domain.ErrUnauthorizedActor)
	_, _, err = f.svc.ReplyEnquiry(f.ctx, nricMarried25, e.ID, "Soon")
	wantKind(t, err, domain.ErrUnauthorizedActor)
	replied, _, err := f.svc.ReplyEnquiry(f.ctx, nricOfficer, e.ID, "Q1 2027")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if replied.RepliedBy != "Daniel" || replied.RepliedAt == nil || !replied.RepliedAt.Equal(f.now) {
		t.Fatalf("unexpected reply %+v", replied)
	}
	_, _, err = f.svc.ReplyEnquiry(f.ctx, nricManager, e.ID, "again")
	wantKind(t, err, domain.ErrAlreadyReplied)
	_, _, err = f.svc.EditEnquiry(f.ctx, nricMarried30, e.ID, "changed")
	wantKind(t, err, domain.ErrAlreadyReplied)
	_, err = f.svc.DeleteEnquiry(f.ctx, nricMarried30, e.ID)
	wantKind(t, err, domain.ErrAlreadyReplied)

	if _, _, err := f.svc.ReplyEnquiry(f.ctx, nricManager2, other.ID, "Yes, at block 12."); err != nil {
		t.Fatalf("manager reply: %v", err)
	}

	officerView, err := f.svc.EnquiriesForOfficer(f.ctx, nricOfficer)
	if err != nil || len(officerView) != 1 || officerView[0].ID != e.ID {
		t.Fatalf("officer should only see assigned project enquiries: %+v %v", officerView, err)
	}
	managerView, err := f.svc.EnquiriesForManager(f.ctx, nricManager2)
	if err != nil || len(managerView) != 1 || managerView[0].ID != other.ID {
		t.Fatalf("manager should only see managed project enquiries: %+v %v", managerView, err)
	}
	_, err = f.svc.EnquiriesForManager(f.ctx, nricOfficer)
	wantKind(t, err, domain.ErrUnauthorizedActor)
	all, err := f.svc.ListEnquiries(f.ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected two enquiries, got %+v %v", all, err)
	}
}

func TestDeleteUnansweredEnquiry(t *testing.T) {
	f := newFixture(t)
	f.acacia(t)
	e, _, err := f.svc.SubmitEnquiry(f.ctx, nricMarried30, projectAcacia, "Pets allowed?")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	_, err = f.svc.DeleteEnquiry(f.ctx, nricMarried25, e.ID)
	wantKind(t, err, domain.ErrUnauthorizedActor)
	if _, err := f.svc.DeleteEnquiry(f.ctx, nricMarried30, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	mine, err := f.svc.EnquiriesByApplicant(f.ctx, nricMarried30)
	if err != nil || len(mine) != 0 {
		t.Fatalf("expected no enquiries, got %+v %v", mine, err)
	}
	_, err = f.svc.DeleteEnquiry(f.ctx, nricMarried30, e.ID)
	wantKind(t, err, domain.ErrNotFound)
	_, _, err = f.svc.ReplyEnquiry(f.ctx, nricManager, e.ID, "gone")
	wantKind(t, err, domain.ErrNotFound)
}
