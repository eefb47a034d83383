package core

import (
	"context"

	"btocore/pkg/domain"
)

// SubmitEnquiry records a question from an applicant about a project.
func (s *Service) SubmitEnquiry(ctx context.Context, applicantNRIC, projectName, details string) (domain.Enquiry, domain.Result, error) {
	var created domain.Enquiry
	res, err := s.mutate(ctx, "submit_enquiry", applicantNRIC, func(tx domain.Transaction) (string, error) {
		if _, err := requireApplicant(tx, applicantNRIC); err != nil {
			return "", err
		}
		if _, err := findProject(tx, projectName); err != nil {
			return "", err
		}
		enquiry, err := domain.NewEnquiry(applicantNRIC, projectName, details, s.now())
		if err != nil {
			return "", err
		}
		created, err = tx.CreateEnquiry(enquiry)
		return created.ID, err
	})
	return created, res, err
}

// EditEnquiry replaces the question text of the author's unanswered enquiry.
func (s *Service) EditEnquiry(ctx context.Context, applicantNRIC, enquiryID, details string) (domain.Enquiry, domain.Result, error) {
	var updated domain.Enquiry
	res, err := s.mutate(ctx, "edit_enquiry", applicantNRIC, func(tx domain.Transaction) (string, error) {
		if _, err := authoredEnquiry(tx, applicantNRIC, enquiryID); err != nil {
			return enquiryID, err
		}
		var err error
		updated, err = tx.UpdateEnquiry(enquiryID, func(e *domain.Enquiry) error {
			return e.EditDetails(details)
		})
		return enquiryID, err
	})
	return updated, res, err
}

// DeleteEnquiry removes the author's unanswered enquiry.
func (s *Service) DeleteEnquiry(ctx context.Context, applicantNRIC, enquiryID string) (domain.Result, error) {
	return s.mutate(ctx, "delete_enquiry", applicantNRIC, func(tx domain.Transaction) (string, error) {
		enquiry, err := authoredEnquiry(tx, applicantNRIC, enquiryID)
		if err != nil {
			return enquiryID, err
		}
		if enquiry.Replied() {
			return enquiryID, domain.Errorf(domain.ErrAlreadyReplied, domain.EntityEnquiry, enquiryID, "cannot delete a replied enquiry")
		}
		return enquiryID, tx.DeleteEnquiry(enquiryID)
	})
}

func authoredEnquiry(tx domain.Transaction, applicantNRIC, enquiryID string) (domain.Enquiry, error) {
	enquiry, ok := tx.FindEnquiry(enquiryID)
	if !ok {
		return domain.Enquiry{}, domain.NotFound(domain.EntityEnquiry, enquiryID)
	}
	if enquiry.ApplicantNRIC != applicantNRIC {
		return domain.Enquiry{}, domain.Errorf(domain.ErrUnauthorizedActor, domain.EntityEnquiry, enquiryID, "only the author may change this enquiry")
	}
	return enquiry, nil
}

// ReplyEnquiry answers an enquiry. Officers assigned to the project and the
// project's manager may reply, once.
func (s *Service) ReplyEnquiry(ctx context.Context, staffNRIC, enquiryID, reply string) (domain.Enquiry, domain.Result, error) {
	var updated domain.Enquiry
	res, err := s.mutate(ctx, "reply_enquiry", staffNRIC, func(tx domain.Transaction) (string, error) {
		staff, err := findUser(tx, staffNRIC)
		if err != nil {
			return enquiryID, err
		}
		enquiry, ok := tx.FindEnquiry(enquiryID)
		if !ok {
			return enquiryID, domain.NotFound(domain.EntityEnquiry, enquiryID)
		}
		project, err := findProject(tx, enquiry.ProjectName)
		if err != nil {
			return enquiryID, err
		}
		if !handles(staff, project) {
			return enquiryID, domain.Errorf(domain.ErrUnauthorizedActor, domain.EntityEnquiry, enquiryID, "%s does not handle %s", staff.Name, project.Name)
		}
		updated, err = tx.UpdateEnquiry(enquiryID, func(e *domain.Enquiry) error {
			return e.AddReply(reply, staff.Name, s.now())
		})
		return enquiryID, err
	})
	return updated, res, err
}

// handles reports whether the user is an assigned officer or the manager of the project.
func handles(user domain.User, project domain.Project) bool {
	switch {
	case user.IsOfficer():
		return project.HasAssigned(user.Name)
	case user.IsManager():
		return project.Manager == user.Name
	}
	return false
}

// EnquiriesByApplicant lists the applicant's own enquiries.
func (s *Service) EnquiriesByApplicant(ctx context.Context, applicantNRIC string) ([]domain.Enquiry, error) {
	return s.filterEnquiries(ctx, func(_ domain.TransactionView, e domain.Enquiry) bool {
		return e.ApplicantNRIC == applicantNRIC
	})
}

// EnquiriesForOfficer lists enquiries about projects the officer is assigned to.
func (s *Service) EnquiriesForOfficer(ctx context.Context, officerNRIC string) ([]domain.Enquiry, error) {
	return s.staffEnquiries(ctx, officerNRIC, requireOfficer)
}

// EnquiriesForManager lists enquiries about projects the manager manages.
func (s *Service) EnquiriesForManager(ctx context.Context, managerNRIC string) ([]domain.Enquiry, error) {
	return s.staffEnquiries(ctx, managerNRIC, requireManager)
}

func (s *Service) staffEnquiries(ctx context.Context, nric string, require func(userFinder, string) (domain.User, error)) ([]domain.Enquiry, error) {
	var out []domain.Enquiry
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		staff, err := require(view, nric)
		if err != nil {
			return err
		}
		for _, e := range view.ListEnquiries() {
			project, ok := view.FindProject(e.ProjectName)
			if ok && handles(staff, project) {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

// ListEnquiries returns every enquiry.
func (s *Service) ListEnquiries(ctx context.Context) ([]domain.Enquiry, error) {
	return s.filterEnquiries(ctx, func(domain.TransactionView, domain.Enquiry) bool { return true })
}

func (s *Service) filterEnquiries(ctx context.Context, keep func(domain.TransactionView, domain.Enquiry) bool) ([]domain.Enquiry, error) {
	var out []domain.Enquiry
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		for _, e := range view.ListEnquiries() {
			if keep(view, e) {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}
