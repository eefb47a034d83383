package core

import (
	"context"
	"strings"

	"btocore/pkg/domain"
)

// RegisterUser adds a user to the record store.
func (s *Service) RegisterUser(ctx context.Context, user domain.User) (domain.User, domain.Result, error) {
	var created domain.User
	user.NRIC = strings.TrimSpace(user.NRIC)
	user.Name = strings.TrimSpace(user.Name)
	res, err := s.mutate(ctx, "register_user", user.NRIC, func(tx domain.Transaction) (string, error) {
		if err := validateUser(user); err != nil {
			return user.NRIC, err
		}
		var err error
		created, err = tx.CreateUser(user)
		return user.NRIC, err
	})
	return created, res, err
}

func validateUser(user domain.User) error {
	switch {
	case user.NRIC == "":
		return &domain.Error{Kind: domain.ErrInvalidInput, Entity: domain.EntityUser, Message: "nric required"}
	case user.Name == "":
		return domain.Errorf(domain.ErrInvalidInput, domain.EntityUser, user.NRIC, "name required")
	case !user.Role.Valid():
		return domain.Errorf(domain.ErrInvalidInput, domain.EntityUser, user.NRIC, "unknown role %q", user.Role)
	case user.Age < 0:
		return domain.Errorf(domain.ErrInvalidInput, domain.EntityUser, user.NRIC, "age cannot be negative")
	}
	return nil
}

// LookupUser resolves a user by NRIC.
func (s *Service) LookupUser(ctx context.Context, nric string) (domain.User, error) {
	var user domain.User
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		var err error
		user, err = findUser(view, nric)
		return err
	})
	return user, err
}

// ListUsers returns every user ordered by NRIC.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = view.ListUsers()
		return nil
	})
	return out, err
}
