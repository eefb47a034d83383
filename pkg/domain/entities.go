// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by btocore.
package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityProject identifies a housing project record keyed by name.
	EntityProject EntityType = "project"
	// EntityApplication identifies an application record keyed by numeric id.
	EntityApplication EntityType = "application"
	// EntityEnquiry identifies an enquiry record keyed by numeric id.
	EntityEnquiry EntityType = "enquiry"
	// EntityUser identifies a user record keyed by NRIC.
	EntityUser EntityType = "user"
)

// Role discriminates the capabilities of a user.
type Role string

// Supported user roles.
const (
	RoleApplicant Role = "applicant"
	RoleOfficer   Role = "officer"
	RoleManager   Role = "manager"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleApplicant, RoleOfficer, RoleManager:
		return true
	}
	return false
}

// MaritalStatus captures the marital status used by eligibility rules.
type MaritalStatus string

// Recognised marital statuses.
const (
	MaritalSingle  MaritalStatus = "Single"
	MaritalMarried MaritalStatus = "Married"
)

// ApplicationStatus enumerates the application lifecycle states.
type ApplicationStatus string

// Canonical application statuses. UNSUCCESSFUL is the only terminal state.
const (
	StatusPending      ApplicationStatus = "PENDING"
	StatusSuccess      ApplicationStatus = "SUCCESS"
	StatusUnsuccessful ApplicationStatus = "UNSUCCESSFUL"
	StatusBooked       ApplicationStatus = "BOOKED"
)

// Terminal reports whether no further transitions are possible.
func (s ApplicationStatus) Terminal() bool { return s == StatusUnsuccessful }

// Valid reports whether the status is known.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusUnsuccessful, StatusBooked:
		return true
	}
	return false
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// MaxOfficerSlots caps how many officers may be attached to a single project.
const MaxOfficerSlots = 10

// FlatTypeDetails holds the inventory bucket for a single flat type.
type FlatTypeDetails struct {
	AvailableUnits int             `json:"available_units"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
}

// Project is a BTO housing project together with its flat inventory and
// officer registrations.
type Project struct {
	Name              string                       `json:"name"`
	Neighborhood      string                       `json:"neighborhood"`
	FlatTypes         map[FlatType]FlatTypeDetails `json:"flat_types"`
	OpeningDate       time.Time                    `json:"opening_date"`
	ClosingDate       time.Time                    `json:"closing_date"`
	Manager           string                       `json:"manager"`
	OfficerSlots      int                          `json:"officer_slots"`
	AssignedOfficers  []string                     `json:"assigned_officers"`
	RequestedOfficers []string                     `json:"requested_officers"`
	RejectedOfficers  []string                     `json:"rejected_officers"`
	Visible           bool                         `json:"visible"`
	CreatedAt         time.Time                    `json:"created_at"`
	UpdatedAt         time.Time                    `json:"updated_at"`
}

// Clone returns a deep copy so callers never share maps or slices with the store.
func (p Project) Clone() Project {
	cp := p
	cp.FlatTypes = p.FlatTypeSnapshot()
	cp.AssignedOfficers = append([]string(nil), p.AssignedOfficers...)
	cp.RequestedOfficers = append([]string(nil), p.RequestedOfficers...)
	cp.RejectedOfficers = append([]string(nil), p.RejectedOfficers...)
	return cp
}

// FlatTypeSnapshot returns a copy of the flat type inventory.
func (p Project) FlatTypeSnapshot() map[FlatType]FlatTypeDetails {
	out := make(map[FlatType]FlatTypeDetails, len(p.FlatTypes))
	for k, v := range p.FlatTypes {
		out[k] = v
	}
	return out
}

// Window returns the project's application window.
func (p Project) Window() Window {
	return Window{Opening: p.OpeningDate, Closing: p.ClosingDate}
}

// IsApplicationOpen reports whether now falls inside the application window.
func (p Project) IsApplicationOpen(now time.Time) bool {
	return p.Window().Contains(now)
}

// IsActive reports whether the project is visible and open for applications.
func (p Project) IsActive(now time.Time) bool {
	return p.Visible && p.IsApplicationOpen(now)
}

// Application captures an applicant's request for a flat in a project.
type Application struct {
	ID                  string            `json:"id"`
	ProjectName         string            `json:"project_name"`
	ApplicantNRIC       string            `json:"applicant_nric"`
	FlatType            FlatType          `json:"flat_type"`
	Status              ApplicationStatus `json:"status"`
	WithdrawalRequested bool              `json:"withdrawal_requested"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// Active reports whether the application still counts against the
// one-active-application limit.
func (a Application) Active() bool { return !a.Status.Terminal() }

// Enquiry is a free-text question raised by an applicant about a project.
type Enquiry struct {
	ID            string     `json:"id"`
	ApplicantNRIC string     `json:"applicant_nric"`
	ProjectName   string     `json:"project_name"`
	Details       string     `json:"details"`
	CreatedAt     time.Time  `json:"created_at"`
	Reply         string     `json:"reply,omitempty"`
	RepliedBy     string     `json:"replied_by,omitempty"`
	RepliedAt     *time.Time `json:"replied_at,omitempty"`
}

// Replied reports whether the enquiry has been answered.
func (e Enquiry) Replied() bool { return e.Reply != "" }

// Clone returns a copy with its own RepliedAt pointer.
func (e Enquiry) Clone() Enquiry {
	cp := e
	if e.RepliedAt != nil {
		t := *e.RepliedAt
		cp.RepliedAt = &t
	}
	return cp
}

// User is an applicant, officer, or manager. Officers and managers carry no
// extra persisted state; their project relations are derived from projects.
type User struct {
	NRIC          string        `json:"nric"`
	Name          string        `json:"name"`
	Age           int           `json:"age"`
	MaritalStatus MaritalStatus `json:"marital_status"`
	Role          Role          `json:"role"`
	Password      string        `json:"password,omitempty"`
}

// CanApply reports whether the user may submit housing applications.
// Officers apply as applicants for projects they do not handle.
func (u User) CanApply() bool { return u.Role == RoleApplicant || u.Role == RoleOfficer }

// IsOfficer reports whether the user holds the officer role.
func (u User) IsOfficer() bool { return u.Role == RoleOfficer }

// IsManager reports whether the user holds the manager role.
func (u User) IsManager() bool { return u.Role == RoleManager }

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Key    string
	Before ChangePayload
	After  ChangePayload
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// SortProjects orders projects by name for deterministic listings.
func SortProjects(projects []Project) {
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
}

// SortApplications orders applications by numeric id, falling back to string order.
func SortApplications(apps []Application) {
	sort.Slice(apps, func(i, j int) bool { return lessID(apps[i].ID, apps[j].ID) })
}

// SortEnquiries orders enquiries by numeric id.
func SortEnquiries(enquiries []Enquiry) {
	sort.Slice(enquiries, func(i, j int) bool { return lessID(enquiries[i].ID, enquiries[j].ID) })
}
