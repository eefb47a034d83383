package domain

// RegistrationState is an officer's standing with a single project.
type RegistrationState string

// Officer registration states. A project holds each officer in at most one list.
const (
	RegistrationNone      RegistrationState = "none"
	RegistrationRequested RegistrationState = "requested"
	RegistrationAssigned  RegistrationState = "assigned"
	RegistrationRejected  RegistrationState = "rejected"
)

// RegistrationOf derives the officer's state from the project's officer lists.
func (p Project) RegistrationOf(officer string) RegistrationState {
	switch {
	case contains(p.AssignedOfficers, officer):
		return RegistrationAssigned
	case contains(p.RequestedOfficers, officer):
		return RegistrationRequested
	case contains(p.RejectedOfficers, officer):
		return RegistrationRejected
	}
	return RegistrationNone
}

// HasAssigned reports whether officer is assigned to the project.
func (p Project) HasAssigned(officer string) bool { return contains(p.AssignedOfficers, officer) }

// CheckRegistration validates an officer's request to handle target against
// the officer's applications and existing registrations on other projects.
func CheckRegistration(officer User, target Project, projects []Project, applications []Application) error {
	for _, app := range applications {
		if app.ApplicantNRIC == officer.NRIC && app.ProjectName == target.Name {
			return Errorf(ErrRoleConflict, EntityProject, target.Name, "officer %s has applied to this project", officer.Name)
		}
	}
	switch target.RegistrationOf(officer.Name) {
	case RegistrationRequested:
		return Errorf(ErrDuplicateRequest, EntityProject, target.Name, "officer %s already requested registration", officer.Name)
	case RegistrationAssigned:
		return Errorf(ErrInvalidStateTransition, EntityProject, target.Name, "officer %s already assigned", officer.Name)
	case RegistrationRejected:
		return Errorf(ErrInvalidStateTransition, EntityProject, target.Name, "officer %s was rejected for this project", officer.Name)
	}
	window := target.Window()
	for _, other := range projects {
		if other.Name == target.Name {
			continue
		}
		if other.RegistrationOf(officer.Name) == RegistrationNone {
			continue
		}
		if Overlaps(window, other.Window()) {
			return Errorf(ErrSchedulingConflict, EntityProject, target.Name, "officer %s is already registered with %s during this period", officer.Name, other.Name)
		}
	}
	return nil
}

// RequestRegistration places the officer on the requested list.
func (p *Project) RequestRegistration(officer string) error {
	if state := p.RegistrationOf(officer); state != RegistrationNone {
		if state == RegistrationRequested {
			return Errorf(ErrDuplicateRequest, EntityProject, p.Name, "officer %s already requested registration", officer)
		}
		return Errorf(ErrInvalidStateTransition, EntityProject, p.Name, "officer %s is already %s", officer, state)
	}
	p.RequestedOfficers = append(append([]string(nil), p.RequestedOfficers...), officer)
	return nil
}

// ApproveRegistration assigns a requested or previously rejected officer.
// The slot check runs before any list is touched.
func (p *Project) ApproveRegistration(officer string) error {
	state := p.RegistrationOf(officer)
	switch state {
	case RegistrationRequested, RegistrationRejected:
	case RegistrationAssigned:
		return Errorf(ErrInvalidStateTransition, EntityProject, p.Name, "officer %s already assigned", officer)
	default:
		return Errorf(ErrInvalidStateTransition, EntityProject, p.Name, "officer %s has no registration", officer)
	}
	if p.OfficerSlots <= 0 {
		return Errorf(ErrNoSlotsAvailable, EntityProject, p.Name, "no officer slots left")
	}
	p.RequestedOfficers = without(p.RequestedOfficers, officer)
	p.RejectedOfficers = without(p.RejectedOfficers, officer)
	p.AssignedOfficers = append(append([]string(nil), p.AssignedOfficers...), officer)
	p.OfficerSlots--
	return nil
}

// RejectRegistration moves a requested or assigned officer to the rejected
// list. Rejecting an assigned officer returns the slot.
func (p *Project) RejectRegistration(officer string) error {
	state := p.RegistrationOf(officer)
	switch state {
	case RegistrationRequested:
		p.RequestedOfficers = without(p.RequestedOfficers, officer)
	case RegistrationAssigned:
		p.AssignedOfficers = without(p.AssignedOfficers, officer)
		p.OfficerSlots++
	case RegistrationRejected:
		return Errorf(ErrInvalidStateTransition, EntityProject, p.Name, "officer %s already rejected", officer)
	default:
		return Errorf(ErrInvalidStateTransition, EntityProject, p.Name, "officer %s has no registration", officer)
	}
	p.RejectedOfficers = append(append([]string(nil), p.RejectedOfficers...), officer)
	return nil
}

// ClampOfficerSlots bounds a requested slot count to [0, MaxOfficerSlots-assigned].
func ClampOfficerSlots(slots, assigned int) int {
	upper := MaxOfficerSlots - assigned
	if upper < 0 {
		upper = 0
	}
	switch {
	case slots < 0:
		return 0
	case slots > upper:
		return upper
	}
	return slots
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func without(values []string, v string) []string {
	out := make([]string, 0, len(values))
	for _, candidate := range values {
		if candidate != v {
			out = append(out, candidate)
		}
	}
	return out
}
