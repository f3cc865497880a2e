package service

import (
	"inkwell/internal/errors"
	"inkwell/internal/model"
)

// requirePermission is the authorization gate invoked at the start of
// every mutating operation. It fails closed: a nil identity or a
// missing bit yields ErrForbidden before any state changes.
func requirePermission(who model.Identity, p model.Permission) error {
	if who == nil || !who.Can(p) {
		return errors.ErrForbidden
	}
	return nil
}

// requireOwnerOrAdmin allows the owner of a resource or any
// administrator through.
func requireOwnerOrAdmin(actor *model.User, ownerID uint) error {
	if actor == nil {
		return errors.ErrForbidden
	}
	if actor.ID != ownerID && !actor.IsAdministrator() {
		return errors.ErrForbidden
	}
	return nil
}
