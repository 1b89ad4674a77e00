package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers network failures and gateway-level errors.
	ErrTransport = errors.New("ledger unreachable")
	// ErrMalformedResponse is a body that is not a ledger envelope.
	ErrMalformedResponse = errors.New("malformed ledger response")
	// ErrNotFound is a lookup that succeeded without data.
	ErrNotFound = errors.New("no ledger record")
)

// ApplicationError is an envelope whose status is not 200. Message is the
// ledger's own text and is shown to the user verbatim.
type ApplicationError struct {
	Status     int
	Message    string
	HTTPStatus int
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ledger rejected request (status %d)", e.Status)
	}
	return fmt.Sprintf("ledger rejected request (status %d): %s", e.Status, e.Message)
}
