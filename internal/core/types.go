package core

import "btocore/pkg/domain"

type (
	Project            = domain.Project
	Application        = domain.Application
	Enquiry            = domain.Enquiry
	User               = domain.User
	Change             = domain.Change
	Result             = domain.Result
	Violation          = domain.Violation
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)
