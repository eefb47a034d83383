package domain

import "time"

// NewApplication builds a PENDING application. The id is assigned by the
// store on first save.
func NewApplication(projectName, applicantNRIC string, flatType FlatType, now time.Time) Application {
	return Application{
		ProjectName:   projectName,
		ApplicantNRIC: applicantNRIC,
		FlatType:      flatType,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (a *Application) transitionError(action string) error {
	return Errorf(ErrInvalidStateTransition, EntityApplication, a.ID, "cannot %s application in status %s", action, a.Status)
}

// Approve moves PENDING to SUCCESS. The project must still hold a unit of the
// requested flat type; the unit is only consumed at booking.
func (a *Application) Approve(project Project) error {
	if a.Status != StatusPending {
		return a.transitionError("approve")
	}
	if !project.HasAvailableUnits(a.FlatType) {
		return Errorf(ErrNoUnitsAvailable, EntityProject, project.Name, "no %s units left", a.FlatType)
	}
	a.Status = StatusSuccess
	return nil
}

// Reject moves PENDING to UNSUCCESSFUL.
func (a *Application) Reject() error {
	if a.Status != StatusPending {
		return a.transitionError("reject")
	}
	a.Status = StatusUnsuccessful
	return nil
}

// Book moves SUCCESS to BOOKED and consumes exactly one unit from project.
// Booking is the single point where inventory is committed.
func (a *Application) Book(project *Project) error {
	if a.Status != StatusSuccess {
		return a.transitionError("book")
	}
	if !project.Offers(a.FlatType) {
		return Errorf(ErrUnknownFlatType, EntityProject, project.Name, "flat type %s not offered", a.FlatType)
	}
	if !project.HasAvailableUnits(a.FlatType) {
		return Errorf(ErrNoUnitsAvailable, EntityProject, project.Name, "no %s units left", a.FlatType)
	}
	if err := project.DecreaseUnits(a.FlatType, 1); err != nil {
		return err
	}
	a.Status = StatusBooked
	return nil
}

// RequestWithdrawal flags the application for manager review.
func (a *Application) RequestWithdrawal() error {
	if a.Status.Terminal() {
		return a.transitionError("withdraw")
	}
	if a.WithdrawalRequested {
		return Errorf(ErrAlreadyRequestedWithdrawal, EntityApplication, a.ID, "withdrawal already requested")
	}
	a.WithdrawalRequested = true
	return nil
}

// ApproveWithdrawal terminates the application. A booked flat is returned to
// the project's inventory when the project still offers its flat type; the
// application ends UNSUCCESSFUL either way.
func (a *Application) ApproveWithdrawal(project *Project) error {
	if !a.WithdrawalRequested {
		return Errorf(ErrInvalidStateTransition, EntityApplication, a.ID, "no withdrawal requested")
	}
	if a.Status == StatusBooked && project != nil && project.Offers(a.FlatType) {
		if err := project.IncreaseUnits(a.FlatType, 1); err != nil {
			return err
		}
	}
	a.Status = StatusUnsuccessful
	a.WithdrawalRequested = false
	return nil
}

// RejectWithdrawal clears the withdrawal flag and leaves the status untouched.
func (a *Application) RejectWithdrawal() error {
	if !a.WithdrawalRequested {
		return Errorf(ErrInvalidStateTransition, EntityApplication, a.ID, "no withdrawal requested")
	}
	a.WithdrawalRequested = false
	return nil
}

// AllowedTransition reports whether moving from one status to another is
// part of the lifecycle. Staying in the same status is always allowed except
// when leaving nothing (creation must start PENDING).
func AllowedTransition(from, to ApplicationStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusSuccess || to == StatusUnsuccessful
	case StatusSuccess:
		return to == StatusBooked || to == StatusUnsuccessful
	case StatusBooked:
		return to == StatusUnsuccessful
	}
	return false
}
