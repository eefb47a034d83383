package core

import (
	"context"
	"fmt"
	"strings"

	"btocore/pkg/domain"

	"github.com/shopspring/decimal"
)

// BookingFilter narrows the booking report. Zero values match everything.
type BookingFilter struct {
	MaritalStatus domain.MaritalStatus `json:"marital_status,omitempty"`
	FlatType      domain.FlatType      `json:"flat_type,omitempty"`
	ProjectName   string               `json:"project_name,omitempty"`
}

// BookingLine is one booked flat joined with its applicant and project.
type BookingLine struct {
	ApplicationID string               `json:"application_id"`
	ApplicantName string               `json:"applicant_name"`
	ApplicantNRIC string               `json:"applicant_nric"`
	Age           int                  `json:"age"`
	MaritalStatus domain.MaritalStatus `json:"marital_status"`
	FlatType      domain.FlatType      `json:"flat_type"`
	ProjectName   string               `json:"project_name"`
	Neighborhood  string               `json:"neighborhood"`
	Price         decimal.Decimal      `json:"price"`
}

// BookingReport summarises booked applications.
type BookingReport struct {
	Filter BookingFilter   `json:"filter"`
	Lines  []BookingLine   `json:"lines"`
	Total  decimal.Decimal `json:"total"`
}

// BookingReport lists booked applications with applicant and project details.
// Bookings whose applicant or project no longer resolves are skipped.
func (s *Service) BookingReport(ctx context.Context, filter BookingFilter) (BookingReport, error) {
	report := BookingReport{Filter: filter, Total: decimal.Zero}
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		for _, app := range view.ListApplications() {
			if app.Status != domain.StatusBooked {
				continue
			}
			line, ok := bookingLine(view, app)
			if !ok || !filter.matches(line) {
				continue
			}
			report.Lines = append(report.Lines, line)
			report.Total = report.Total.Add(line.Price)
		}
		return nil
	})
	return report, err
}

func (f BookingFilter) matches(line BookingLine) bool {
	if f.MaritalStatus != "" && line.MaritalStatus != f.MaritalStatus {
		return false
	}
	if f.FlatType != "" && line.FlatType != f.FlatType {
		return false
	}
	if f.ProjectName != "" && line.ProjectName != f.ProjectName {
		return false
	}
	return true
}

func bookingLine(view domain.TransactionView, app domain.Application) (BookingLine, bool) {
	applicant, ok := view.FindUser(app.ApplicantNRIC)
	if !ok {
		return BookingLine{}, false
	}
	project, ok := view.FindProject(app.ProjectName)
	if !ok {
		return BookingLine{}, false
	}
	details, ok := project.FlatTypes[app.FlatType]
	if !ok {
		return BookingLine{}, false
	}
	return BookingLine{
		ApplicationID: app.ID,
		ApplicantName: applicant.Name,
		ApplicantNRIC: applicant.NRIC,
		Age:           applicant.Age,
		MaritalStatus: applicant.MaritalStatus,
		FlatType:      app.FlatType,
		ProjectName:   project.Name,
		Neighborhood:  project.Neighborhood,
		Price:         details.SellingPrice,
	}, true
}

// Receipt is the booking confirmation an officer hands to an applicant.
type Receipt struct {
	BookingLine
	Status domain.ApplicationStatus `json:"status"`
}

// String renders the receipt as plain text.
func (r Receipt) String() string {
	var b strings.Builder
	b.WriteString("BTO Booking Receipt\n")
	fmt.Fprintf(&b, "Applicant Name: %s\n", r.ApplicantName)
	fmt.Fprintf(&b, "NRIC: %s\n", r.ApplicantNRIC)
	fmt.Fprintf(&b, "Age: %d\n", r.Age)
	fmt.Fprintf(&b, "Marital Status: %s\n", r.MaritalStatus)
	fmt.Fprintf(&b, "Flat Type Booked: %s\n", r.FlatType)
	fmt.Fprintf(&b, "Project Name: %s\n", r.ProjectName)
	fmt.Fprintf(&b, "Neighborhood: %s\n", r.Neighborhood)
	fmt.Fprintf(&b, "Flat Price: $%s\n", r.Price.StringFixed(2))
	fmt.Fprintf(&b, "Booking Status: %s\n", r.Status)
	return b.String()
}

// Receipt builds the receipt for a booked application handled by the officer.
func (s *Service) Receipt(ctx context.Context, officerNRIC, applicationID string) (Receipt, error) {
	var receipt Receipt
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		officer, err := requireOfficer(view, officerNRIC)
		if err != nil {
			return err
		}
		app, err := findApplication(view, applicationID)
		if err != nil {
			return err
		}
		if app.Status != domain.StatusBooked {
			return domain.Errorf(domain.ErrInvalidStateTransition, domain.EntityApplication, applicationID, "application is not booked")
		}
		project, err := findProject(view, app.ProjectName)
		if err != nil {
			return err
		}
		if !project.HasAssigned(officer.Name) {
			return domain.Errorf(domain.ErrUnauthorizedActor, domain.EntityProject, project.Name, "officer %s is not assigned to this project", officer.Name)
		}
		line, ok := bookingLine(view, app)
		if !ok {
			return domain.NotFound(domain.EntityUser, app.ApplicantNRIC)
		}
		receipt = Receipt{BookingLine: line, Status: app.Status}
		return nil
	})
	return receipt, err
}
