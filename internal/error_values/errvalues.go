package errorvalues

import "errors"

var (
	// Validation
	ErrValidation = errors.New("validation failed")

	// Not found
	ErrUserNotFound       = errors.New("user doesn't exist")
	ErrHabitNotFound      = errors.New("habit doesn't exist")
	ErrAssignmentNotFound = errors.New("assignment doesn't exist")
	ErrGroupNotFound      = errors.New("group doesn't exist")

	// Authorization
	ErrForbidden        = errors.New("caller lacks role for this operation")
	ErrWrongOwner       = errors.New("resource belongs to another user")
	ErrWrongCredentials = errors.New("wrong email or password")
	ErrInvalidToken     = errors.New("invalid token")

	// Conflict
	ErrUserExists       = errors.New("such user already exists")
	ErrAssignmentExists = errors.New("assignment for this user and habit already exists")
	ErrHabitExists      = errors.New("habit with such name already exists")
	ErrGroupHasMembers  = errors.New("group still has active members")
)
