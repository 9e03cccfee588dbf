package ticket

import (
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
)

var (
	// ErrAlreadyConfigured is returned by Setup when the guild already has a ticket category.
	ErrAlreadyConfigured = errors.New("ticket system is already configured")
	// ErrNotConfigured is returned when the guild has no usable ticket category.
	ErrNotConfigured = errors.New("ticket system is not configured")
	// ErrNotFound is returned when a ticket does not exist or is already closed.
	ErrNotFound = errors.New("ticket not found")
	// ErrUnknownTicketType is returned for a type the guild has not enabled.
	ErrUnknownTicketType = errors.New("unknown ticket type")
	// ErrDeliveryFailure marks a message the platform could not deliver.
	ErrDeliveryFailure = errors.New("failed to deliver message")
	// ErrTimedOut is returned when a close confirmation arrives after it expired.
	ErrTimedOut = errors.New("close confirmation timed out")
)

// RateLimitedError is returned when a user creates tickets faster than the
// guild's cooldown allows.
type RateLimitedError struct {
	// Remaining whole seconds until the user may create another ticket, rounded up.
	Remaining int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("ticket cooldown active, %d seconds remaining", e.Remaining)
}

// CapExceededError is returned when a user already has the maximum number of open tickets.
type CapExceededError struct {
	Open int
	Max  int
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("user has %d open tickets, maximum is %d", e.Open, e.Max)
}

// AlreadyAcceptedError is returned when accepting a ticket another call already accepted.
type AlreadyAcceptedError struct {
	ModeratorID   snowflake.ID
	SameModerator bool
}

func (e *AlreadyAcceptedError) Error() string {
	if e.SameModerator {
		return "ticket already accepted by you"
	}
	return fmt.Sprintf("ticket already accepted by moderator %d", e.ModeratorID)
}
