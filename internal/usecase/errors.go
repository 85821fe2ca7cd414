package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrConfiguration aborts a run before any upstream call is made.
	ErrConfiguration = errors.New("invalid run configuration")
	// ErrUpstreamTransient marks provider failures worth retrying.
	ErrUpstreamTransient = errors.New("upstream temporarily unavailable")
	ErrUpstreamPermanent = errors.New("upstream rejected request")
	// ErrIdentityUnresolved means a team or fixture could not be matched.
	ErrIdentityUnresolved = errors.New("identity unresolved")
	// ErrRunInProgress is returned when another run holds the competition.
	ErrRunInProgress = errors.New("sync run already in progress for competition")
)
