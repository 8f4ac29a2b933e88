package live

import "errors"

var (
	// ErrTranscriberRequired is returned when a transcriber is not provided.
	ErrTranscriberRequired = errors.New("transcriber required")

	// ErrResolverRequired is returned when a resolver is not provided.
	ErrResolverRequired = errors.New("resolver required")

	// ErrBroadcasterRequired is returned when a broadcaster is not provided.
	ErrBroadcasterRequired = errors.New("broadcaster required")
)
