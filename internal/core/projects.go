package core

import (
	"context"
	"strings"
	"time"

	"btocore/pkg/domain"
)

// DeletePolicy decides whether a project may be deleted while its
// application window is open.
type DeletePolicy string

// Supported delete policies.
const (
	DeletePolicyForbidOpen DeletePolicy = "forbid"
	DeletePolicyAllow      DeletePolicy = "allow"
)

// Valid reports whether the policy is known.
func (p DeletePolicy) Valid() bool {
	return p == DeletePolicyForbidOpen || p == DeletePolicyAllow
}

// ProjectDraft carries the manager-supplied fields of a new project.
type ProjectDraft struct {
	Name         string
	Neighborhood string
	FlatTypes    map[domain.FlatType]domain.FlatTypeDetails
	OpeningDate  time.Time
	ClosingDate  time.Time
	OfficerSlots int
}

// ProjectEdit lists the mutable project fields. Nil fields are left unchanged.
type ProjectEdit struct {
	Neighborhood *string
	FlatTypes    map[domain.FlatType]domain.FlatTypeDetails
	OpeningDate  *time.Time
	ClosingDate  *time.Time
	OfficerSlots *int
}

func validateFlatTypes(name string, flatTypes map[domain.FlatType]domain.FlatTypeDetails) error {
	for ft, details := range flatTypes {
		if !ft.Valid() {
			return domain.Errorf(domain.ErrUnknownFlatType, domain.EntityProject, name, "unknown flat type %q", ft)
		}
		if details.AvailableUnits < 0 {
			return domain.Errorf(domain.ErrInvalidInput, domain.EntityProject, name, "%s units cannot be negative", ft)
		}
		if details.SellingPrice.IsNegative() {
			return domain.Errorf(domain.ErrInvalidInput, domain.EntityProject, name, "%s price cannot be negative", ft)
		}
	}
	return nil
}

func validateWindow(name string, window domain.Window) error {
	if !window.Valid() {
		return domain.Errorf(domain.ErrInvalidInput, domain.EntityProject, name, "opening date must not be after closing date")
	}
	return nil
}

// checkHeldFlatTypes refuses to drop a flat type that a live application of
// the project still holds.
func checkHeldFlatTypes(view domain.TransactionView, name string, flatTypes map[domain.FlatType]domain.FlatTypeDetails) error {
	for _, app := range view.ListApplications() {
		if app.ProjectName != name || !app.Active() {
			continue
		}
		if _, ok := flatTypes[app.FlatType]; !ok {
			return domain.Errorf(domain.ErrInvalidInput, domain.EntityProject, name, "flat type %s is held by application %s", app.FlatType, app.ID)
		}
	}
	return nil
}

// CreateProject creates a visible project managed by the caller. A manager
// may not create one while another of their projects is visible and open.
func (s *Service) CreateProject(ctx context.Context, managerNRIC string, draft ProjectDraft) (domain.Project, domain.Result, error) {
	var created domain.Project
	name := strings.TrimSpace(draft.Name)
	res, err := s.mutate(ctx, "create_project", managerNRIC, func(tx domain.Transaction) (string, error) {
		manager, err := requireManager(tx, managerNRIC)
		if err != nil {
			return name, err
		}
		if name == "" {
			return name, &domain.Error{Kind: domain.ErrInvalidInput, Entity: domain.EntityProject, Message: "project name required"}
		}
		if err := validateWindow(name, domain.Window{Opening: draft.OpeningDate, Closing: draft.ClosingDate}); err != nil {
			return name, err
		}
		if err := validateFlatTypes(name, draft.FlatTypes); err != nil {
			return name, err
		}
		now := s.now()
		for _, p := range tx.Snapshot().ListProjects() {
			if p.Manager == manager.Name && p.IsActive(now) {
				return name, domain.Errorf(domain.ErrManagerHasActiveProject, domain.EntityProject, p.Name, "%s already manages an open project", manager.Name)
			}
		}
		created, err = tx.CreateProject(domain.Project{
			Name:         name,
			Neighborhood: draft.Neighborhood,
			FlatTypes:    draft.FlatTypes,
			OpeningDate:  draft.OpeningDate,
			ClosingDate:  draft.ClosingDate,
			Manager:      manager.Name,
			OfficerSlots: domain.ClampOfficerSlots(draft.OfficerSlots, 0),
			Visible:      true,
			CreatedAt:    now,
		})
		return name, err
	})
	return created, res, err
}

// EditProject replaces the mutable fields of a managed project. Officer
// lists and the name are never altered; slots are clamped so slots plus
// assigned officers never exceed the cap.
func (s *Service) EditProject(ctx context.Context, managerNRIC, projectName string, edit ProjectEdit) (domain.Project, domain.Result, error) {
	var updated domain.Project
	res, err := s.mutate(ctx, "edit_project", managerNRIC, func(tx domain.Transaction) (string, error) {
		manager, err := requireManager(tx, managerNRIC)
		if err != nil {
			return projectName, err
		}
		if _, err := managedProject(tx, manager, projectName); err != nil {
			return projectName, err
		}
		if edit.FlatTypes != nil {
			if err := validateFlatTypes(projectName, edit.FlatTypes); err != nil {
				return projectName, err
			}
			if err := checkHeldFlatTypes(tx.Snapshot(), projectName, edit.FlatTypes); err != nil {
				return projectName, err
			}
		}
		updated, err = tx.UpdateProject(projectName, func(p *domain.Project) error {
			if edit.Neighborhood != nil {
				p.Neighborhood = *edit.Neighborhood
			}
			if edit.FlatTypes != nil {
				p.FlatTypes = make(map[domain.FlatType]domain.FlatTypeDetails, len(edit.FlatTypes))
				for ft, details := range edit.FlatTypes {
					p.FlatTypes[ft] = details
				}
			}
			if edit.OpeningDate != nil {
				p.OpeningDate = *edit.OpeningDate
			}
			if edit.ClosingDate != nil {
				p.ClosingDate = *edit.ClosingDate
			}
			if err := validateWindow(projectName, p.Window()); err != nil {
				return err
			}
			if edit.OfficerSlots != nil {
				p.OfficerSlots = domain.ClampOfficerSlots(*edit.OfficerSlots, len(p.AssignedOfficers))
			}
			return nil
		})
		return projectName, err
	})
	return updated, res, err
}

// DeleteProject removes a managed project. Under DeletePolicyForbidOpen the
// project must not be inside its application window.
func (s *Service) DeleteProject(ctx context.Context, managerNRIC, projectName string) (domain.Result, error) {
	return s.mutate(ctx, "delete_project", managerNRIC, func(tx domain.Transaction) (string, error) {
		manager, err := requireManager(tx, managerNRIC)
		if err != nil {
			return projectName, err
		}
		project, err := managedProject(tx, manager, projectName)
		if err != nil {
			return projectName, err
		}
		if s.deletePolicy == DeletePolicyForbidOpen && project.IsApplicationOpen(s.now()) {
			return projectName, domain.Errorf(domain.ErrProjectWindowOpen, domain.EntityProject, projectName, "cannot delete while the application window is open")
		}
		return projectName, tx.DeleteProject(projectName)
	})
}

// ToggleVisibility flips a managed project's visibility. Applications in
// flight are unaffected.
func (s *Service) ToggleVisibility(ctx context.Context, managerNRIC, projectName string) (domain.Project, domain.Result, error) {
	var updated domain.Project
	res, err := s.mutate(ctx, "toggle_visibility", managerNRIC, func(tx domain.Transaction) (string, error) {
		manager, err := requireManager(tx, managerNRIC)
		if err != nil {
			return projectName, err
		}
		if _, err := managedProject(tx, manager, projectName); err != nil {
			return projectName, err
		}
		updated, err = tx.UpdateProject(projectName, func(p *domain.Project) error {
			p.Visible = !p.Visible
			return nil
		})
		return projectName, err
	})
	return updated, res, err
}

// ManagedProjects lists the projects the manager manages.
func (s *Service) ManagedProjects(ctx context.Context, managerNRIC string) ([]domain.Project, error) {
	var out []domain.Project
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		manager, err := requireManager(view, managerNRIC)
		if err != nil {
			return err
		}
		for _, p := range view.ListProjects() {
			if p.Manager == manager.Name {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

// ListProjects returns every project regardless of visibility.
func (s *Service) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var out []domain.Project
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = view.ListProjects()
		return nil
	})
	return out, err
}
