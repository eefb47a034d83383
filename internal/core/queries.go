package core

import (
	"context"

	"btocore/pkg/domain"
)

// AvailableProjects lists the visible projects the user may browse. Officers
// never see projects they are assigned to.
func (s *Service) AvailableProjects(ctx context.Context, nric string) ([]domain.Project, error) {
	var out []domain.Project
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		user, err := requireApplicant(view, nric)
		if err != nil {
			return err
		}
		for _, p := range view.ListProjects() {
			if !p.Visible {
				continue
			}
			if user.IsOfficer() && p.HasAssigned(user.Name) {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

// ActiveApplication returns the applicant's non-terminal application, if any.
func (s *Service) ActiveApplication(ctx context.Context, applicantNRIC string) (domain.Application, bool, error) {
	apps, err := s.ApplicationsByApplicant(ctx, applicantNRIC)
	if err != nil {
		return domain.Application{}, false, err
	}
	for _, app := range apps {
		if app.Active() {
			return app, true, nil
		}
	}
	return domain.Application{}, false, nil
}

// ApplicationsByApplicant lists every application the applicant has made.
func (s *Service) ApplicationsByApplicant(ctx context.Context, applicantNRIC string) ([]domain.Application, error) {
	var out []domain.Application
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		for _, app := range view.ListApplications() {
			if app.ApplicantNRIC == applicantNRIC {
				out = append(out, app)
			}
		}
		return nil
	})
	return out, err
}

// ApplicationsForOfficer lists applications to projects the officer is assigned to.
func (s *Service) ApplicationsForOfficer(ctx context.Context, officerNRIC string) ([]domain.Application, error) {
	var out []domain.Application
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		officer, err := requireOfficer(view, officerNRIC)
		if err != nil {
			return err
		}
		for _, app := range view.ListApplications() {
			if p, ok := view.FindProject(app.ProjectName); ok && p.HasAssigned(officer.Name) {
				out = append(out, app)
			}
		}
		return nil
	})
	return out, err
}

// ApplicationFilter narrows manager application listings. Zero values match everything.
type ApplicationFilter struct {
	ProjectName         string
	Status              domain.ApplicationStatus
	WithdrawalRequested bool
	OwnProjectsOnly     bool
}

func (f ApplicationFilter) matches(app domain.Application) bool {
	if f.ProjectName != "" && app.ProjectName != f.ProjectName {
		return false
	}
	if f.Status != "" && app.Status != f.Status {
		return false
	}
	if f.WithdrawalRequested && !app.WithdrawalRequested {
		return false
	}
	return true
}

// ApplicationsForManager lists applications matching filter. With
// OwnProjectsOnly set, only projects the manager manages are included.
func (s *Service) ApplicationsForManager(ctx context.Context, managerNRIC string, filter ApplicationFilter) ([]domain.Application, error) {
	var out []domain.Application
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		manager, err := requireManager(view, managerNRIC)
		if err != nil {
			return err
		}
		for _, app := range view.ListApplications() {
			if !filter.matches(app) {
				continue
			}
			if filter.OwnProjectsOnly {
				p, ok := view.FindProject(app.ProjectName)
				if !ok || p.Manager != manager.Name {
					continue
				}
			}
			out = append(out, app)
		}
		return nil
	})
	return out, err
}
