package domain

import (
	"sort"
	"strings"
)

// FlatType names an inventory bucket within a project.
type FlatType string

// The flat type domain is fixed.
const (
	FlatTwoRoom   FlatType = "2-Room"
	FlatThreeRoom FlatType = "3-Room"
)

// FlatTypes lists every known flat type in display order.
func FlatTypes() []FlatType { return []FlatType{FlatTwoRoom, FlatThreeRoom} }

// ParseFlatType accepts the canonical names case-insensitively, with or
// without the dash ("2-room", "2room", "2 Room").
func ParseFlatType(raw string) (FlatType, error) {
	norm := strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.TrimSpace(raw)))
	switch norm {
	case "2room":
		return FlatTwoRoom, nil
	case "3room":
		return FlatThreeRoom, nil
	}
	return "", &Error{Kind: ErrUnknownFlatType, Message: "unknown flat type " + raw}
}

// Valid reports whether the flat type is part of the fixed domain.
func (f FlatType) Valid() bool {
	return f == FlatTwoRoom || f == FlatThreeRoom
}

// Offers reports whether the project sells the flat type at all.
func (p Project) Offers(flatType FlatType) bool {
	_, ok := p.FlatTypes[flatType]
	return ok
}

// HasAvailableUnits is true iff the flat type exists and has units left.
func (p Project) HasAvailableUnits(flatType FlatType) bool {
	details, ok := p.FlatTypes[flatType]
	return ok && details.AvailableUnits > 0
}

// AvailableFlatTypes lists offered flat types with at least one unit left.
func (p Project) AvailableFlatTypes() []FlatType {
	var out []FlatType
	for ft, details := range p.FlatTypes {
		if details.AvailableUnits > 0 {
			out = append(out, ft)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DecreaseUnits consumes n units of flatType. It never clamps: a result
// below zero fails with ErrInventory and leaves the project untouched.
func (p *Project) DecreaseUnits(flatType FlatType, n int) error {
	if !flatType.Valid() {
		return Errorf(ErrUnknownFlatType, EntityProject, p.Name, "unknown flat type %q", flatType)
	}
	details, ok := p.FlatTypes[flatType]
	if !ok {
		return Errorf(ErrUnknownFlatType, EntityProject, p.Name, "flat type %s not offered", flatType)
	}
	if n < 0 {
		return Errorf(ErrInvalidInput, EntityProject, p.Name, "negative unit count %d", n)
	}
	if details.AvailableUnits-n < 0 {
		return Errorf(ErrInventory, EntityProject, p.Name, "cannot take %d %s units, %d left", n, flatType, details.AvailableUnits)
	}
	details.AvailableUnits -= n
	p.setFlatType(flatType, details)
	return nil
}

// IncreaseUnits restocks n units of flatType.
func (p *Project) IncreaseUnits(flatType FlatType, n int) error {
	details, ok := p.FlatTypes[flatType]
	if !ok {
		return Errorf(ErrUnknownFlatType, EntityProject, p.Name, "flat type %s not offered", flatType)
	}
	if n < 0 {
		return Errorf(ErrInvalidInput, EntityProject, p.Name, "negative unit count %d", n)
	}
	details.AvailableUnits += n
	p.setFlatType(flatType, details)
	return nil
}

func (p *Project) setFlatType(flatType FlatType, details FlatTypeDetails) {
	inventory := p.FlatTypeSnapshot()
	inventory[flatType] = details
	p.FlatTypes = inventory
}

// IsEligible applies the marital status and age policy: singles must be at
// least 35 and the project must offer 2-Room flats; married applicants must
// be at least 21 and may take any flat type.
func IsEligible(applicant User, project Project) bool {
	switch applicant.MaritalStatus {
	case MaritalSingle:
		return applicant.Age >= 35 && project.Offers(FlatTwoRoom)
	case MaritalMarried:
		return applicant.Age >= 21
	}
	return false
}

// EligibleFlatTypes lists the flat types the applicant may apply for in the project.
func EligibleFlatTypes(applicant User, project Project) []FlatType {
	if !IsEligible(applicant, project) {
		return nil
	}
	if applicant.MaritalStatus == MaritalSingle {
		return []FlatType{FlatTwoRoom}
	}
	var out []FlatType
	for _, ft := range FlatTypes() {
		if project.Offers(ft) {
			out = append(out, ft)
		}
	}
	return out
}

// CheckEligibility returns ErrNotEligible when the applicant may not apply for
// flatType in project.
func CheckEligibility(applicant User, project Project, flatType FlatType) error {
	if !IsEligible(applicant, project) {
		return Errorf(ErrNotEligible, EntityProject, project.Name, "%s (%s, age %d) is not eligible", applicant.NRIC, applicant.MaritalStatus, applicant.Age)
	}
	for _, ft := range EligibleFlatTypes(applicant, project) {
		if ft == flatType {
			return nil
		}
	}
	return Errorf(ErrNotEligible, EntityProject, project.Name, "%s applicants may not apply for %s", applicant.MaritalStatus, flatType)
}
