package domain

import "context"

// Transaction exposes the record operations a persistence implementation must
// support within an atomic scope. Mutations become visible to other callers
// only when the enclosing RunInTransaction returns without error.
type Transaction interface {
	Snapshot() TransactionView
	CreateProject(Project) (Project, error)
	UpdateProject(name string, mutator func(*Project) error) (Project, error)
	DeleteProject(name string) error
	CreateApplication(Application) (Application, error)
	UpdateApplication(id string, mutator func(*Application) error) (Application, error)
	CreateEnquiry(Enquiry) (Enquiry, error)
	UpdateEnquiry(id string, mutator func(*Enquiry) error) (Enquiry, error)
	DeleteEnquiry(id string) error
	CreateUser(User) (User, error)
	UpdateUser(nric string, mutator func(*User) error) (User, error)
	FindProject(name string) (Project, bool)
	FindApplication(id string) (Application, bool)
	FindEnquiry(id string) (Enquiry, bool)
	FindUser(nric string) (User, bool)
}

// TransactionView provides read-only access to snapshot data for rules and queries.
type TransactionView interface {
	RuleView
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetProject(name string) (Project, bool)
	ListProjects() []Project
	GetApplication(id string) (Application, bool)
	ListApplications() []Application
	ListEnquiries() []Enquiry
	GetUser(nric string) (User, bool)
	ListUsers() []User
}
