package domain

import (
	"strings"
	"time"
)

// NewEnquiry builds an unanswered enquiry.
func NewEnquiry(applicantNRIC, projectName, details string, now time.Time) (Enquiry, error) {
	if strings.TrimSpace(details) == "" {
		return Enquiry{}, &Error{Kind: ErrInvalidInput, Entity: EntityEnquiry, Message: "enquiry details cannot be empty"}
	}
	return Enquiry{
		ApplicantNRIC: applicantNRIC,
		ProjectName:   projectName,
		Details:       details,
		CreatedAt:     now,
	}, nil
}

// EditDetails replaces the question text. Replied enquiries are immutable.
func (e *Enquiry) EditDetails(details string) error {
	if e.Replied() {
		return Errorf(ErrAlreadyReplied, EntityEnquiry, e.ID, "cannot modify a replied enquiry")
	}
	if strings.TrimSpace(details) == "" {
		return Errorf(ErrInvalidInput, EntityEnquiry, e.ID, "enquiry details cannot be empty")
	}
	e.Details = details
	return nil
}

// AddReply answers the enquiry once.
func (e *Enquiry) AddReply(reply, repliedBy string, now time.Time) error {
	if e.Replied() {
		return Errorf(ErrAlreadyReplied, EntityEnquiry, e.ID, "enquiry already replied")
	}
	if strings.TrimSpace(reply) == "" {
		return Errorf(ErrInvalidInput, EntityEnquiry, e.ID, "reply cannot be empty")
	}
	e.Reply = reply
	e.RepliedBy = repliedBy
	at := now
	e.RepliedAt = &at
	return nil
}
