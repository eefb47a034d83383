package domain

import (
	"errors"
	"testing"
	"time"
)

func TestApplicationHappyPathAndWithdrawal(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	p := testProject(0, 2)
	app := NewApplication(p.Name, "S1234567A", FlatThreeRoom, now)
	app.ID = "1"
	if app.Status != StatusPending || !app.Active() {
		t.Fatalf("new application should be active and pending: %+v", app)
	}
	if err := app.Approve(p); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if p.FlatTypes[FlatThreeRoom].AvailableUnits != 2 {
		t.Fatalf("approval must not consume inventory")
	}
	if err := app.Book(&p); err != nil {
		t.Fatalf("book: %v", err)
	}
	if app.Status != StatusBooked || p.FlatTypes[FlatThreeRoom].AvailableUnits != 1 {
		t.Fatalf("booking should consume one unit: %+v %+v", app, p.FlatTypes)
	}
	if err := app.RequestWithdrawal(); err != nil {
		t.Fatalf("request withdrawal: %v", err)
	}
	err := app.RequestWithdrawal()
	if !errors.Is(err, ErrAlreadyRequestedWithdrawal) || !errors.Is(err, ErrAlreadyRequested) {
		t.Fatalf("expected already requested, got %v", err)
	}
	if err := app.ApproveWithdrawal(&p); err != nil {
		t.Fatalf("approve withdrawal: %v", err)
	}
	if app.Status != StatusUnsuccessful || app.WithdrawalRequested || app.Active() {
		t.Fatalf("withdrawal should terminate the application: %+v", app)
	}
	if p.FlatTypes[FlatThreeRoom].AvailableUnits != 2 {
		t.Fatalf("withdrawal should restock the unit, got %d", p.FlatTypes[FlatThreeRoom].AvailableUnits)
	}
	if err := app.RequestWithdrawal(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("terminal application accepted withdrawal: %v", err)
	}
}

func TestApplicationInvalidTransitions(t *testing.T) {
	p := testProject(1, 0)
	app := NewApplication(p.Name, "S1", FlatTwoRoom, time.Now())
	if err := app.Book(&p); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("booking a pending application: %v", err)
	}
	if err := app.RejectWithdrawal(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("rejecting absent withdrawal: %v", err)
	}
	if err := app.ApproveWithdrawal(nil); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("approving absent withdrawal: %v", err)
	}
	if err := app.Reject(); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := app.Approve(p); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("approving unsuccessful application: %v", err)
	}
	if err := app.Reject(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("rejecting twice: %v", err)
	}
}

func TestApproveAndBookRequireStock(t *testing.T) {
	p := testProject(0, 0)
	app := NewApplication(p.Name, "S1", FlatTwoRoom, time.Now())
	if err := app.Approve(p); !errors.Is(err, ErrNoUnitsAvailable) {
		t.Fatalf("expected ErrNoUnitsAvailable, got %v", err)
	}
	app.Status = StatusSuccess
	if err := app.Book(&p); !errors.Is(err, ErrNoUnitsAvailable) {
		t.Fatalf("expected ErrNoUnitsAvailable, got %v", err)
	}
	app.FlatType = "4-Room"
	if err := app.Book(&p); !errors.Is(err, ErrUnknownFlatType) {
		t.Fatalf("expected ErrUnknownFlatType, got %v", err)
	}
}

func TestPendingWithdrawalKeepsInventory(t *testing.T) {
	p := testProject(1, 0)
	app := NewApplication(p.Name, "S1", FlatTwoRoom, time.Now())
	if err := app.RequestWithdrawal(); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := app.RejectWithdrawal(); err != nil {
		t.Fatalf("reject withdrawal: %v", err)
	}
	if app.Status != StatusPending || app.WithdrawalRequested {
		t.Fatalf("reject withdrawal changed status: %+v", app)
	}
	_ = app.RequestWithdrawal()
	if err := app.ApproveWithdrawal(&p); err != nil {
		t.Fatalf("approve withdrawal: %v", err)
	}
	if p.FlatTypes[FlatTwoRoom].AvailableUnits != 1 {
		t.Fatalf("pending withdrawal touched inventory")
	}
}

func TestApproveWithdrawalWithoutOfferedFlatType(t *testing.T) {
	p := Project{Name: "Acacia Breeze", FlatTypes: map[FlatType]FlatTypeDetails{FlatTwoRoom: {AvailableUnits: 1}}}
	app := Application{ID: "7", ProjectName: p.Name, FlatType: FlatThreeRoom, Status: StatusBooked, WithdrawalRequested: true}
	if err := app.ApproveWithdrawal(&p); err != nil {
		t.Fatalf("approve withdrawal: %v", err)
	}
	if app.Status != StatusUnsuccessful || app.WithdrawalRequested {
		t.Fatalf("withdrawal should terminate the application, got %+v", app)
	}
	if p.Offers(FlatThreeRoom) || p.FlatTypes[FlatTwoRoom].AvailableUnits != 1 {
		t.Fatalf("inventory must be left alone, got %+v", p.FlatTypes)
	}
}

func TestAllowedTransition(t *testing.T) {
	allowed := [][2]ApplicationStatus{
		{StatusPending, StatusSuccess},
		{StatusPending, StatusUnsuccessful},
		{StatusSuccess, StatusBooked},
		{StatusSuccess, StatusUnsuccessful},
		{StatusBooked, StatusUnsuccessful},
		{StatusBooked, StatusBooked},
	}
	for _, pair := range allowed {
		if !AllowedTransition(pair[0], pair[1]) {
			t.Fatalf("%s -> %s should be allowed", pair[0], pair[1])
		}
	}
	denied := [][2]ApplicationStatus{
		{StatusPending, StatusBooked},
		{StatusUnsuccessful, StatusPending},
		{StatusBooked, StatusSuccess},
	}
	for _, pair := range denied {
		if AllowedTransition(pair[0], pair[1]) {
			t.Fatalf("%s -> %s should be denied", pair[0], pair[1])
		}
	}
}
