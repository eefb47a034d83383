package core

import (
	"context"

	"btocore/pkg/domain"
)

// UserDirectory resolves users by NRIC. The service implements it over the
// record store.
type UserDirectory interface {
	LookupUser(ctx context.Context, nric string) (domain.User, error)
}

var _ UserDirectory = (*Service)(nil)

type userFinder interface {
	FindUser(nric string) (domain.User, bool)
}

func findUser(view userFinder, nric string) (domain.User, error) {
	user, ok := view.FindUser(nric)
	if !ok {
		return domain.User{}, domain.NotFound(domain.EntityUser, nric)
	}
	return user, nil
}

func requireApplicant(view userFinder, nric string) (domain.User, error) {
	user, err := findUser(view, nric)
	if err != nil {
		return domain.User{}, err
	}
	if !user.CanApply() {
		return domain.User{}, domain.Errorf(domain.ErrUnauthorizedActor, domain.EntityUser, nric, "%s users cannot apply", user.Role)
	}
	return user, nil
}

func requireOfficer(view userFinder, nric string) (domain.User, error) {
	user, err := findUser(view, nric)
	if err != nil {
		return domain.User{}, err
	}
	if !user.IsOfficer() {
		return domain.User{}, domain.Errorf(domain.ErrUnauthorizedActor, domain.EntityUser, nric, "officer role required")
	}
	return user, nil
}

func requireManager(view userFinder, nric string) (domain.User, error) {
	user, err := findUser(view, nric)
	if err != nil {
		return domain.User{}, err
	}
	if !user.IsManager() {
		return domain.User{}, domain.Errorf(domain.ErrUnauthorizedActor, domain.EntityUser, nric, "manager role required")
	}
	return user, nil
}

type projectFinder interface {
	FindProject(name string) (domain.Project, bool)
}

func findProject(view projectFinder, name string) (domain.Project, error) {
	project, ok := view.FindProject(name)
	if !ok {
		return domain.Project{}, domain.NotFound(domain.EntityProject, name)
	}
	return project, nil
}

// managedProject resolves name and checks that manager manages it.
func managedProject(view projectFinder, manager domain.User, name string) (domain.Project, error) {
	project, err := findProject(view, name)
	if err != nil {
		return domain.Project{}, err
	}
	if project.Manager != manager.Name {
		return domain.Project{}, domain.Errorf(domain.ErrUnauthorizedActor, domain.EntityProject, name, "%s does not manage this project", manager.Name)
	}
	return project, nil
}

type applicationFinder interface {
	FindApplication(id string) (domain.Application, bool)
}

func findApplication(view applicationFinder, id string) (domain.Application, error) {
	app, ok := view.FindApplication(id)
	if !ok {
		return domain.Application{}, domain.NotFound(domain.EntityApplication, id)
	}
	return app, nil
}
