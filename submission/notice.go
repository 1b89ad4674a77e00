package submission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmdatafocus/dispatch_forms/ledger"
	"github.com/mmdatafocus/dispatch_forms/localcache"
)

const (
	GenericFailureNotice = "Could not reach the ledger. Your entry is saved on this device; please try again."
	LockedNotice         = "This form is being submitted from another session. Your entry is saved on this device; please try again."
	SuccessNotice        = "Dispatch recorded."
)

// classify maps a submit error to its failure class.
func classify(err error) FailureClass {
	var appErr *ledger.ApplicationError
	switch {
	case errors.As(err, &appErr):
		return FailureClassRejected
	case errors.Is(err, ledger.ErrMalformedResponse):
		return FailureClassMalformed
	case errors.Is(err, localcache.ErrLocked):
		return FailureClassLocked
	default:
		return FailureClassTransport
	}
}

// FailureNotice is the text shown to the user for a failed submission.
// Ledger rejections are relayed verbatim; everything else gets the generic notice.
func FailureNotice(err error) string {
	var appErr *ledger.ApplicationError
	if errors.As(err, &appErr) {
		if msg := strings.TrimSpace(appErr.Message); msg != "" {
			return appErr.Message
		}
		return fmt.Sprintf("Submission rejected (status %d)", appErr.Status)
	}
	if errors.Is(err, localcache.ErrLocked) {
		return LockedNotice
	}
	return GenericFailureNotice
}
