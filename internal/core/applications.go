package core

import (
	"context"

	"btocore/pkg/domain"
)

// Apply creates a PENDING application for the applicant. Inventory is not
// touched until the application is booked.
func (s *Service) Apply(ctx context.Context, applicantNRIC, projectName, flatType string) (domain.Application, domain.Result, error) {
	var created domain.Application
	res, err := s.mutate(ctx, "apply", applicantNRIC, func(tx domain.Transaction) (string, error) {
		applicant, err := requireApplicant(tx, applicantNRIC)
		if err != nil {
			return "", err
		}
		project, err := findProject(tx, projectName)
		if err != nil {
			return "", err
		}
		if !project.Visible {
			return "", domain.Errorf(domain.ErrProjectNotVisible, domain.EntityProject, projectName, "project is not open for applications")
		}
		for _, app := range tx.Snapshot().ListApplications() {
			if app.ApplicantNRIC == applicantNRIC && app.Active() {
				return "", domain.Errorf(domain.ErrDuplicateActiveApplication, domain.EntityApplication, app.ID, "applicant already holds an active application for %s", app.ProjectName)
			}
		}
		if applicant.IsOfficer() && project.RegistrationOf(applicant.Name) == domain.RegistrationAssigned {
			return "", domain.Errorf(domain.ErrRoleConflict, domain.EntityProject, projectName, "officer %s handles this project", applicant.Name)
		}
		ft, err := domain.ParseFlatType(flatType)
		if err != nil {
			return "", err
		}
		if !project.Offers(ft) {
			return "", domain.Errorf(domain.ErrUnknownFlatType, domain.EntityProject, projectName, "flat type %s not offered", ft)
		}
		if err := domain.CheckEligibility(applicant, project, ft); err != nil {
			return "", err
		}
		if !project.HasAvailableUnits(ft) {
			return "", domain.Errorf(domain.ErrNoUnitsAvailable, domain.EntityProject, projectName, "no %s units left", ft)
		}
		created, err = tx.CreateApplication(domain.NewApplication(project.Name, applicantNRIC, ft, s.now()))
		return created.ID, err
	})
	return created, res, err
}

// ApproveApplication moves a PENDING application to SUCCESS.
func (s *Service) ApproveApplication(ctx context.Context, managerNRIC, applicationID string) (domain.Application, domain.Result, error) {
	return s.managerDecision(ctx, "approve_application", managerNRIC, applicationID, func(_ domain.Transaction, app *domain.Application, project domain.Project) error {
		return app.Approve(project)
	})
}

// RejectApplication moves a PENDING application to UNSUCCESSFUL.
func (s *Service) RejectApplication(ctx context.Context, managerNRIC, applicationID string) (domain.Application, domain.Result, error) {
	return s.managerDecision(ctx, "reject_application", managerNRIC, applicationID, func(_ domain.Transaction, app *domain.Application, _ domain.Project) error {
		return app.Reject()
	})
}

// ApproveWithdrawal terminates a flagged application, restocking the unit
// when it was already booked.
func (s *Service) ApproveWithdrawal(ctx context.Context, managerNRIC, applicationID string) (domain.Application, domain.Result, error) {
	return s.managerDecision(ctx, "approve_withdrawal", managerNRIC, applicationID, func(tx domain.Transaction, app *domain.Application, project domain.Project) error {
		if app.Status != domain.StatusBooked {
			return app.ApproveWithdrawal(nil)
		}
		_, err := tx.UpdateProject(project.Name, func(p *domain.Project) error {
			return app.ApproveWithdrawal(p)
		})
		return err
	})
}

// RejectWithdrawal clears the withdrawal flag without changing status.
func (s *Service) RejectWithdrawal(ctx context.Context, managerNRIC, applicationID string) (domain.Application, domain.Result, error) {
	return s.managerDecision(ctx, "reject_withdrawal", managerNRIC, applicationID, func(_ domain.Transaction, app *domain.Application, _ domain.Project) error {
		return app.RejectWithdrawal()
	})
}

func (s *Service) managerDecision(ctx context.Context, op, managerNRIC, applicationID string, decide func(domain.Transaction, *domain.Application, domain.Project) error) (domain.Application, domain.Result, error) {
	var updated domain.Application
	res, err := s.mutate(ctx, op, managerNRIC, func(tx domain.Transaction) (string, error) {
		manager, err := requireManager(tx, managerNRIC)
		if err != nil {
			return applicationID, err
		}
		app, err := findApplication(tx, applicationID)
		if err != nil {
			return applicationID, err
		}
		project, err := managedProject(tx, manager, app.ProjectName)
		if err != nil {
			return applicationID, err
		}
		updated, err = tx.UpdateApplication(applicationID, func(a *domain.Application) error {
			return decide(tx, a, project)
		})
		return applicationID, err
	})
	return updated, res, err
}

// BookApplication lets an officer assigned to the project book a SUCCESS
// application, consuming one unit of its flat type.
func (s *Service) BookApplication(ctx context.Context, officerNRIC, applicationID string) (domain.Application, domain.Result, error) {
	var booked domain.Application
	res, err := s.mutate(ctx, "book_application", officerNRIC, func(tx domain.Transaction) (string, error) {
		officer, err := requireOfficer(tx, officerNRIC)
		if err != nil {
			return applicationID, err
		}
		app, err := findApplication(tx, applicationID)
		if err != nil {
			return applicationID, err
		}
		project, err := findProject(tx, app.ProjectName)
		if err != nil {
			return applicationID, err
		}
		if !project.HasAssigned(officer.Name) {
			return applicationID, domain.Errorf(domain.ErrUnauthorizedActor, domain.EntityProject, project.Name, "officer %s is not assigned to this project", officer.Name)
		}
		booked, err = tx.UpdateApplication(applicationID, func(a *domain.Application) error {
			_, err := tx.UpdateProject(project.Name, func(p *domain.Project) error {
				return a.Book(p)
			})
			return err
		})
		return applicationID, err
	})
	return booked, res, err
}

// RequestWithdrawal flags the applicant's own application for manager review.
func (s *Service) RequestWithdrawal(ctx context.Context, applicantNRIC, applicationID string) (domain.Application, domain.Result, error) {
	var updated domain.Application
	res, err := s.mutate(ctx, "request_withdrawal", applicantNRIC, func(tx domain.Transaction) (string, error) {
		app, err := findApplication(tx, applicationID)
		if err != nil {
			return applicationID, err
		}
		if app.ApplicantNRIC != applicantNRIC {
			return applicationID, domain.Errorf(domain.ErrUnauthorizedActor, domain.EntityApplication, applicationID, "application belongs to another applicant")
		}
		updated, err = tx.UpdateApplication(applicationID, func(a *domain.Application) error {
			return a.RequestWithdrawal()
		})
		return applicationID, err
	})
	return updated, res, err
}
