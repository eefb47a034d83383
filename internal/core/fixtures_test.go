package core

import (
	"context"
	"testing"
	"time"

	"btocore/pkg/domain"

	"github.com/shopspring/decimal"
)

const (
	nricManager    = "S5000000M"
	nricManager2   = "S5000001M"
	nricOfficer    = "T2109876H"
	nricOfficer2   = "T1234567J"
	nricMarried30  = "S1234567A"
	nricMarried25  = "S7654321Z"
	nricSingle30   = "S2345678B"
	nricSingle40   = "S3456789C"
	projectAcacia  = "Acacia Breeze"
	projectWillow  = "Willow Court"
	fixtureNowDate = "2025/06/15"
)

var fixtureUsers = []domain.User{
	{NRIC: nricManager, Name: "Michael", Age: 36, MaritalStatus: domain.MaritalSingle, Role: domain.RoleManager},
	{NRIC: nricManager2, Name: "Jessica", Age: 26, MaritalStatus: domain.MaritalMarried, Role: domain.RoleManager},
	{NRIC: nricOfficer, Name: "Daniel", Age: 29, MaritalStatus: domain.MaritalMarried, Role: domain.RoleOfficer},
	{NRIC: nricOfficer2, Name: "Emily", Age: 28, MaritalStatus: domain.MaritalSingle, Role: domain.RoleOfficer},
	{NRIC: nricMarried30, Name: "John", Age: 30, MaritalStatus: domain.MaritalMarried, Role: domain.RoleApplicant},
	{NRIC: nricMarried25, Name: "Rachel", Age: 25, MaritalStatus: domain.MaritalMarried, Role: domain.RoleApplicant},
	{NRIC: nricSingle30, Name: "Sarah", Age: 30, MaritalStatus: domain.MaritalSingle, Role: domain.RoleApplicant},
	{NRIC: nricSingle40, Name: "Grace", Age: 40, MaritalStatus: domain.MaritalSingle, Role: domain.RoleApplicant},
}

type fixture struct {
	ctx   context.Context
	svc   *Service
	audit *MemoryAuditLog
	now   time.Time
}

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(raw)
	if err != nil {
		t.Fatalf("parse date %s: %v", raw, err)
	}
	return d
}

// newFixture seeds every fixture user into an in-memory service whose clock
// is pinned to mid June 2025.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	now := mustDate(t, fixtureNowDate).Add(10 * time.Hour)
	audit := &MemoryAuditLog{}
	opts = append([]Option{WithClock(ClockFunc(func() time.Time { return now })), WithAuditRecorder(audit)}, opts...)
	f := &fixture{ctx: context.Background(), svc: NewInMemoryService(nil, opts...), audit: audit, now: now}
	for _, u := range fixtureUsers {
		if _, _, err := f.svc.RegisterUser(f.ctx, u); err != nil {
			t.Fatalf("register %s: %v", u.NRIC, err)
		}
	}
	return f
}

func flatTypes(units2, units3 int) map[domain.FlatType]domain.FlatTypeDetails {
	out := make(map[domain.FlatType]domain.FlatTypeDetails)
	if units2 >= 0 {
		out[domain.FlatTwoRoom] = domain.FlatTypeDetails{AvailableUnits: units2, SellingPrice: decimal.NewFromInt(350000)}
	}
	if units3 >= 0 {
		out[domain.FlatThreeRoom] = domain.FlatTypeDetails{AvailableUnits: units3, SellingPrice: decimal.NewFromInt(450000)}
	}
	return out
}

// project creates a project; a negative unit count leaves that flat type out.
func (f *fixture) project(t *testing.T, manager, name, open, close string, units2, units3, slots int) domain.Project {
	t.Helper()
	p, _, err := f.svc.CreateProject(f.ctx, manager, ProjectDraft{
		Name:         name,
		Neighborhood: "Yishun",
		FlatTypes:    flatTypes(units2, units3),
		OpeningDate:  mustDate(t, open),
		ClosingDate:  mustDate(t, close),
		OfficerSlots: slots,
	})
	if err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return p
}

// acacia is the default open project managed by Michael.
func (f *fixture) acacia(t *testing.T) domain.Project {
	t.Helper()
	return f.project(t, nricManager, projectAcacia, "2025/06/01", "2025/06/30", 2, 2, 3)
}

func (f *fixture) assignOfficer(t *testing.T, manager, project, officer string) {
	t.Helper()
	if _, _, err := f.svc.RegisterOfficer(f.ctx, officer, project); err != nil {
		t.Fatalf("register officer %s: %v", officer, err)
	}
	if _, _, err := f.svc.ApproveRegistration(f.ctx, manager, project, officer); err != nil {
		t.Fatalf("approve officer %s: %v", officer, err)
	}
}

func (f *fixture) apply(t *testing.T, nric, project, flat string) domain.Application {
	t.Helper()
	app, _, err := f.svc.Apply(f.ctx, nric, project, flat)
	if err != nil {
		t.Fatalf("apply %s: %v", nric, err)
	}
	return app
}

func (f *fixture) units(t *testing.T, project string, ft domain.FlatType) int {
	t.Helper()
	p, ok := f.svc.Store().GetProject(project)
	if !ok {
		t.Fatalf("project %s missing", project)
	}
	return p.FlatTypes[ft].AvailableUnits
}

func wantKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", kind)
	}
	if domain.KindOf(err) != kind {
		t.Fatalf("expected %s, got %v (kind %q)", kind, err, domain.KindOf(err))
	}
}
