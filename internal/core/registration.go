package core

import (
	"context"

	"btocore/pkg/domain"
)

// RegisterOfficer places the officer on the project's requested list.
func (s *Service) RegisterOfficer(ctx context.Context, officerNRIC, projectName string) (domain.Project, domain.Result, error) {
	var updated domain.Project
	res, err := s.mutate(ctx, "register_officer", officerNRIC, func(tx domain.Transaction) (string, error) {
		officer, err := requireOfficer(tx, officerNRIC)
		if err != nil {
			return projectName, err
		}
		project, err := findProject(tx, projectName)
		if err != nil {
			return projectName, err
		}
		view := tx.Snapshot()
		if err := domain.CheckRegistration(officer, project, view.ListProjects(), view.ListApplications()); err != nil {
			return projectName, err
		}
		updated, err = tx.UpdateProject(projectName, func(p *domain.Project) error {
			return p.RequestRegistration(officer.Name)
		})
		return projectName, err
	})
	return updated, res, err
}

// ApproveRegistration assigns a requested or rejected officer, consuming a slot.
func (s *Service) ApproveRegistration(ctx context.Context, managerNRIC, projectName, officerNRIC string) (domain.Project, domain.Result, error) {
	return s.registrationDecision(ctx, "approve_registration", managerNRIC, projectName, officerNRIC, func(tx domain.Transaction, p *domain.Project, officer domain.User) error {
		for _, app := range tx.Snapshot().ListApplications() {
			if app.ApplicantNRIC == officer.NRIC && app.ProjectName == p.Name {
				return domain.Errorf(domain.ErrRoleConflict, domain.EntityProject, p.Name, "officer %s has applied to this project", officer.Name)
			}
		}
		return p.ApproveRegistration(officer.Name)
	})
}

// RejectRegistration moves a requested or assigned officer to the rejected list.
func (s *Service) RejectRegistration(ctx context.Context, managerNRIC, projectName, officerNRIC string) (domain.Project, domain.Result, error) {
	return s.registrationDecision(ctx, "reject_registration", managerNRIC, projectName, officerNRIC, func(_ domain.Transaction, p *domain.Project, officer domain.User) error {
		return p.RejectRegistration(officer.Name)
	})
}

func (s *Service) registrationDecision(ctx context.Context, op, managerNRIC, projectName, officerNRIC string, decide func(domain.Transaction, *domain.Project, domain.User) error) (domain.Project, domain.Result, error) {
	var updated domain.Project
	res, err := s.mutate(ctx, op, managerNRIC, func(tx domain.Transaction) (string, error) {
		manager, err := requireManager(tx, managerNRIC)
		if err != nil {
			return projectName, err
		}
		if _, err := managedProject(tx, manager, projectName); err != nil {
			return projectName, err
		}
		officer, err := requireOfficer(tx, officerNRIC)
		if err != nil {
			return projectName, err
		}
		updated, err = tx.UpdateProject(projectName, func(p *domain.Project) error {
			return decide(tx, p, officer)
		})
		return projectName, err
	})
	return updated, res, err
}

// RegistrationStatus pairs a project with an officer's standing on it.
type RegistrationStatus struct {
	Project domain.Project
	State   domain.RegistrationState
}

// RegistrationStatuses lists every project the officer has registered for.
func (s *Service) RegistrationStatuses(ctx context.Context, officerNRIC string) ([]RegistrationStatus, error) {
	var out []RegistrationStatus
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		officer, err := requireOfficer(view, officerNRIC)
		if err != nil {
			return err
		}
		for _, p := range view.ListProjects() {
			if state := p.RegistrationOf(officer.Name); state != domain.RegistrationNone {
				out = append(out, RegistrationStatus{Project: p, State: state})
			}
		}
		return nil
	})
	return out, err
}

// ProjectRegistrations is the manager's view of a project's officer lists.
type ProjectRegistrations struct {
	Project      string
	OfficerSlots int
	Assigned     []string
	Requested    []string
	Rejected     []string
}

// ProjectRegistrations returns the officer lists for a project the manager manages.
func (s *Service) ProjectRegistrations(ctx context.Context, managerNRIC, projectName string) (ProjectRegistrations, error) {
	var out ProjectRegistrations
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		manager, err := requireManager(view, managerNRIC)
		if err != nil {
			return err
		}
		project, err := managedProject(view, manager, projectName)
		if err != nil {
			return err
		}
		out = ProjectRegistrations{
			Project:      project.Name,
			OfficerSlots: project.OfficerSlots,
			Assigned:     project.AssignedOfficers,
			Requested:    project.RequestedOfficers,
			Rejected:     project.RejectedOfficers,
		}
		return nil
	})
	return out, err
}
