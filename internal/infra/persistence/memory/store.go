// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments. The durable stores embed it
// and write each transaction's candidate state through a commit hook before
// that state becomes visible.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"btocore/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Project aliases domain.Project for in-memory persistence operations.
	Project = domain.Project
	// Application aliases domain.Application.
	Application = domain.Application
	// Enquiry aliases domain.Enquiry.
	Enquiry = domain.Enquiry
	// User aliases domain.User.
	User = domain.User
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

func mustPayload[T any](label string, value T) domain.ChangePayload {
	payload, err := domain.RecordPayload(value)
	if err != nil {
		panic(fmt.Errorf("memory store %s: %w", label, err))
	}
	return payload
}

type memoryState struct {
	projects     map[string]Project
	applications map[string]Application
	enquiries    map[string]Enquiry
	users        map[string]User
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Projects     map[string]Project     `json:"projects"`
	Applications map[string]Application `json:"applications"`
	Enquiries    map[string]Enquiry     `json:"enquiries"`
	Users        map[string]User        `json:"users"`
}

func newMemoryState() memoryState {
	return memoryState{
		projects:     make(map[string]Project),
		applications: make(map[string]Application),
		enquiries:    make(map[string]Enquiry),
		users:        make(map[string]User),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	cloned := state.clone()
	return Snapshot{
		Projects:     cloned.projects,
		Applications: cloned.applications,
		Enquiries:    cloned.enquiries,
		Users:        cloned.users,
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	return memoryState{
		projects:     s.Projects,
		applications: s.Applications,
		enquiries:    s.Enquiries,
		users:        s.Users,
	}.clone()
}

// migrateSnapshot normalises records written by older builds or edited by hand:
// map keys follow the natural keys, unknown statuses fall back to PENDING,
// slot counts are bounded, and an officer appears in at most one list.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	out := Snapshot{
		Projects:     make(map[string]Project, len(snapshot.Projects)),
		Applications: make(map[string]Application, len(snapshot.Applications)),
		Enquiries:    make(map[string]Enquiry, len(snapshot.Enquiries)),
		Users:        make(map[string]User, len(snapshot.Users)),
	}
	for key, project := range snapshot.Projects {
		if project.Name == "" {
			project.Name = key
		}
		if project.FlatTypes == nil {
			project.FlatTypes = map[domain.FlatType]domain.FlatTypeDetails{}
		}
		project.AssignedOfficers = dedupeStrings(project.AssignedOfficers)
		project.RequestedOfficers = subtract(dedupeStrings(project.RequestedOfficers), project.AssignedOfficers)
		project.RejectedOfficers = subtract(subtract(dedupeStrings(project.RejectedOfficers), project.AssignedOfficers), project.RequestedOfficers)
		project.OfficerSlots = domain.ClampOfficerSlots(project.OfficerSlots, len(project.AssignedOfficers))
		out.Projects[project.Name] = project
	}
	for key, app := range snapshot.Applications {
		if app.ID == "" {
			app.ID = key
		}
		if !app.Status.Valid() {
			app.Status = domain.StatusPending
		}
		if app.Status.Terminal() {
			app.WithdrawalRequested = false
		}
		out.Applications[app.ID] = app
	}
	for key, enquiry := range snapshot.Enquiries {
		if enquiry.ID == "" {
			enquiry.ID = key
		}
		out.Enquiries[enquiry.ID] = enquiry
	}
	for key, user := range snapshot.Users {
		if user.NRIC == "" {
			user.NRIC = key
		}
		out.Users[user.NRIC] = user
	}
	return out
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.projects {
		cloned.projects[k] = v.Clone()
	}
	for k, v := range s.applications {
		cloned.applications[k] = v
	}
	for k, v := range s.enquiries {
		cloned.enquiries[k] = v.Clone()
	}
	for k, v := range s.users {
		cloned.users[k] = v
	}
	return cloned
}

func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func subtract(values, remove []string) []string {
	if len(remove) == 0 {
		return values
	}
	drop := make(map[string]struct{}, len(remove))
	for _, v := range remove {
		drop[v] = struct{}{}
	}
	var out []string
	for _, v := range values {
		if _, ok := drop[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the time provider used to stamp records.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// transaction represents a mutation set applied to a private copy of the state.
type transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListProjects returns all projects ordered by name.
func (v transactionView) ListProjects() []Project { return listProjects(v.state) }

// ListApplications returns all applications ordered by id.
func (v transactionView) ListApplications() []Application { return listApplications(v.state) }

// ListEnquiries returns all enquiries ordered by id.
func (v transactionView) ListEnquiries() []Enquiry { return listEnquiries(v.state) }

// ListUsers returns all users ordered by NRIC.
func (v transactionView) ListUsers() []User { return listUsers(v.state) }

// FindProject looks up a project by name.
func (v transactionView) FindProject(name string) (Project, bool) {
	p, ok := v.state.projects[name]
	if !ok {
		return Project{}, false
	}
	return p.Clone(), true
}

// FindApplication looks up an application by id.
func (v transactionView) FindApplication(id string) (Application, bool) {
	a, ok := v.state.applications[id]
	return a, ok
}

// FindEnquiry looks up an enquiry by id.
func (v transactionView) FindEnquiry(id string) (Enquiry, bool) {
	e, ok := v.state.enquiries[id]
	if !ok {
		return Enquiry{}, false
	}
	return e.Clone(), true
}

// FindUser looks up a user by NRIC.
func (v transactionView) FindUser(nric string) (User, bool) {
	u, ok := v.state.users[nric]
	return u, ok
}

func listProjects(state *memoryState) []Project {
	out := make([]Project, 0, len(state.projects))
	for _, p := range state.projects {
		out = append(out, p.Clone())
	}
	domain.SortProjects(out)
	return out
}

func listApplications(state *memoryState) []Application {
	out := make([]Application, 0, len(state.applications))
	for _, a := range state.applications {
		out = append(out, a)
	}
	domain.SortApplications(out)
	return out
}

func listEnquiries(state *memoryState) []Enquiry {
	out := make([]Enquiry, 0, len(state.enquiries))
	for _, e := range state.enquiries {
		out = append(out, e.Clone())
	}
	domain.SortEnquiries(out)
	return out
}

func listUsers(state *memoryState) []User {
	out := make([]User, 0, len(state.users))
	for _, u := range state.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NRIC < out[j].NRIC })
	return out
}

// CommitFunc writes the candidate state of a transaction before it becomes
// visible. A non-nil error discards the transaction.
type CommitFunc func(ctx context.Context, candidate Snapshot) error

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the live state only when fn succeeds and no rule blocks.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	return s.RunInTransactionWithCommit(ctx, fn, nil)
}

// RunInTransactionWithCommit is RunInTransaction with commit called on the
// candidate state while the write lock is held. The live state is swapped
// only after commit succeeds.
func (s *Store) RunInTransactionWithCommit(ctx context.Context, fn func(tx Transaction) error, commit CommitFunc) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if commit != nil {
		if err := commit(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return result, err
		}
	}
	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindProject returns a project from the transactional state.
func (tx *transaction) FindProject(name string) (Project, bool) {
	return newTransactionView(&tx.state).FindProject(name)
}

// FindApplication returns an application from the transactional state.
func (tx *transaction) FindApplication(id string) (Application, bool) {
	return newTransactionView(&tx.state).FindApplication(id)
}

// FindEnquiry returns an enquiry from the transactional state.
func (tx *transaction) FindEnquiry(id string) (Enquiry, bool) {
	return newTransactionView(&tx.state).FindEnquiry(id)
}

// FindUser returns a user from the transactional state.
func (tx *transaction) FindUser(nric string) (User, bool) {
	return newTransactionView(&tx.state).FindUser(nric)
}

// CreateProject stores a new project keyed by name.
func (tx *transaction) CreateProject(p Project) (Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Project{}, &domain.Error{Kind: domain.ErrInvalidInput, Entity: domain.EntityProject, Message: "project name required"}
	}
	if _, exists := tx.state.projects[p.Name]; exists {
		return Project{}, domain.Errorf(domain.ErrAlreadyExists, domain.EntityProject, p.Name, "already exists")
	}
	if p.FlatTypes == nil {
		p.FlatTypes = map[domain.FlatType]domain.FlatTypeDetails{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = tx.now
	}
	p.UpdatedAt = tx.now
	p = p.Clone()
	tx.state.projects[p.Name] = p
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionCreate, Key: p.Name, After: mustPayload("create project", p)})
	return p.Clone(), nil
}

// UpdateProject mutates an existing project. The name is the identity and cannot change.
func (tx *transaction) UpdateProject(name string, mutator func(*Project) error) (Project, error) {
	current, ok := tx.state.projects[name]
	if !ok {
		return Project{}, domain.NotFound(domain.EntityProject, name)
	}
	before := current.Clone()
	working := current.Clone()
	if err := mutator(&working); err != nil {
		return Project{}, err
	}
	working.Name = name
	working.CreatedAt = before.CreatedAt
	working.UpdatedAt = tx.now
	tx.state.projects[name] = working.Clone()
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionUpdate, Key: name, Before: mustPayload("update project", before), After: mustPayload("update project", working)})
	return working.Clone(), nil
}

// DeleteProject removes a project from state.
func (tx *transaction) DeleteProject(name string) error {
	current, ok := tx.state.projects[name]
	if !ok {
		return domain.NotFound(domain.EntityProject, name)
	}
	delete(tx.state.projects, name)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionDelete, Key: name, Before: mustPayload("delete project", current)})
	return nil
}

// CreateApplication stores a new application, assigning the next sequential id
// when none is supplied.
func (tx *transaction) CreateApplication(a Application) (Application, error) {
	if a.ID == "" {
		a.ID = domain.NextSequentialID(applicationIDs(&tx.state))
	}
	if _, exists := tx.state.applications[a.ID]; exists {
		return Application{}, domain.Errorf(domain.ErrAlreadyExists, domain.EntityApplication, a.ID, "already exists")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = tx.now
	}
	a.UpdatedAt = tx.now
	tx.state.applications[a.ID] = a
	tx.recordChange(Change{Entity: domain.EntityApplication, Action: domain.ActionCreate, Key: a.ID, After: mustPayload("create application", a)})
	return a, nil
}

// UpdateApplication mutates an existing application.
func (tx *transaction) UpdateApplication(id string, mutator func(*Application) error) (Application, error) {
	current, ok := tx.state.applications[id]
	if !ok {
		return Application{}, domain.NotFound(domain.EntityApplication, id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Application{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.applications[id] = current
	tx.recordChange(Change{Entity: domain.EntityApplication, Action: domain.ActionUpdate, Key: id, Before: mustPayload("update application", before), After: mustPayload("update application", current)})
	return current, nil
}

// CreateEnquiry stores a new enquiry, assigning the next sequential id when none is supplied.
func (tx *transaction) CreateEnquiry(e Enquiry) (Enquiry, error) {
	if e.ID == "" {
		e.ID = domain.NextSequentialID(enquiryIDs(&tx.state))
	}
	if _, exists := tx.state.enquiries[e.ID]; exists {
		return Enquiry{}, domain.Errorf(domain.ErrAlreadyExists, domain.EntityEnquiry, e.ID, "already exists")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = tx.now
	}
	e = e.Clone()
	tx.state.enquiries[e.ID] = e
	tx.recordChange(Change{Entity: domain.EntityEnquiry, Action: domain.ActionCreate, Key: e.ID, After: mustPayload("create enquiry", e)})
	return e.Clone(), nil
}

// UpdateEnquiry mutates an existing enquiry.
func (tx *transaction) UpdateEnquiry(id string, mutator func(*Enquiry) error) (Enquiry, error) {
	current, ok := tx.state.enquiries[id]
	if !ok {
		return Enquiry{}, domain.NotFound(domain.EntityEnquiry, id)
	}
	before := current.Clone()
	working := current.Clone()
	if err := mutator(&working); err != nil {
		return Enquiry{}, err
	}
	working.ID = id
	tx.state.enquiries[id] = working.Clone()
	tx.recordChange(Change{Entity: domain.EntityEnquiry, Action: domain.ActionUpdate, Key: id, Before: mustPayload("update enquiry", before), After: mustPayload("update enquiry", working)})
	return working.Clone(), nil
}

// DeleteEnquiry removes an enquiry from state.
func (tx *transaction) DeleteEnquiry(id string) error {
	current, ok := tx.state.enquiries[id]
	if !ok {
		return domain.NotFound(domain.EntityEnquiry, id)
	}
	delete(tx.state.enquiries, id)
	tx.recordChange(Change{Entity: domain.EntityEnquiry, Action: domain.ActionDelete, Key: id, Before: mustPayload("delete enquiry", current)})
	return nil
}

// CreateUser stores a new user keyed by NRIC.
func (tx *transaction) CreateUser(u User) (User, error) {
	u.NRIC = strings.TrimSpace(u.NRIC)
	if u.NRIC == "" {
		return User{}, &domain.Error{Kind: domain.ErrInvalidInput, Entity: domain.EntityUser, Message: "nric required"}
	}
	if _, exists := tx.state.users[u.NRIC]; exists {
		return User{}, domain.Errorf(domain.ErrAlreadyExists, domain.EntityUser, u.NRIC, "already exists")
	}
	tx.state.users[u.NRIC] = u
	tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionCreate, Key: u.NRIC, After: mustPayload("create user", u)})
	return u, nil
}

// UpdateUser mutates an existing user. The NRIC cannot change.
func (tx *transaction) UpdateUser(nric string, mutator func(*User) error) (User, error) {
	current, ok := tx.state.users[nric]
	if !ok {
		return User{}, domain.NotFound(domain.EntityUser, nric)
	}
	before := current
	if err := mutator(&current); err != nil {
		return User{}, err
	}
	current.NRIC = nric
	tx.state.users[nric] = current
	tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionUpdate, Key: nric, Before: mustPayload("update user", before), After: mustPayload("update user", current)})
	return current, nil
}

func applicationIDs(state *memoryState) []string {
	ids := make([]string, 0, len(state.applications))
	for id := range state.applications {
		ids = append(ids, id)
	}
	return ids
}

func enquiryIDs(state *memoryState) []string {
	ids := make([]string, 0, len(state.enquiries))
	for id := range state.enquiries {
		ids = append(ids, id)
	}
	return ids
}

// GetProject returns a project by name.
func (s *Store) GetProject(name string) (Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindProject(name)
}

// ListProjects returns all projects.
func (s *Store) ListProjects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listProjects(&s.state)
}

// GetApplication returns an application by id.
func (s *Store) GetApplication(id string) (Application, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindApplication(id)
}

// ListApplications returns all applications.
func (s *Store) ListApplications() []Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listApplications(&s.state)
}

// ListEnquiries returns all enquiries.
func (s *Store) ListEnquiries() []Enquiry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEnquiries(&s.state)
}

// GetUser returns a user by NRIC.
func (s *Store) GetUser(nric string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindUser(nric)
}

// ListUsers returns all users.
func (s *Store) ListUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listUsers(&s.state)
}
