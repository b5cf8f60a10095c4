package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated means no signed-in user id was available for an
	// operation that requires one. The caller redirects to sign-in.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotFound means the referenced chat does not exist. Terminal for the
	// requesting view.
	ErrNotFound = errors.New("chat not found")

	// ErrUnauthorized means the current user is not one of the chat's two
	// participants, or the chat does not have exactly two. Terminal.
	ErrUnauthorized = errors.New("not a chat participant")

	// ErrInvalidPeer means the peer id was empty or equal to the caller's
	// own id.
	ErrInvalidPeer = errors.New("invalid peer")

	// ErrUnavailable wraps store failures. Transient: the view stays usable
	// and the user may retry.
	ErrUnavailable = errors.New("store unavailable")
)

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
