package server

import "errors"

var (
	// ErrVersesRequired is returned when a verse repository is not provided.
	ErrVersesRequired = errors.New("verse repository required")

	// ErrMatcherRequired is returned when a matcher is not provided.
	ErrMatcherRequired = errors.New("matcher required")

	// ErrHubRequired is returned when a hub is not provided.
	ErrHubRequired = errors.New("hub required")
)
