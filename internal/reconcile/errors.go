// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package reconcile

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/infinidat/infinistate/internal/infinibox"
)

// remoteOperationError wraps a failure reported while talking to the
// array during a lookup, create, update or delete.
type remoteOperationError struct {
	cause error
}

// Error implements error, keeping the array's message intact.
func (e *remoteOperationError) Error() string {
	return fmt.Sprintf("remote operation failed: %v", e.cause)
}

// IsRemoteOperationFailed reports whether err is a failure reported by
// the array or by the transport to it.
func IsRemoteOperationFailed(err error) bool {
	_, ok := errors.Cause(err).(*remoteOperationError)
	return ok
}

// translate is the error boundary around every array call site. The
// two known remote failure kinds, a command error reported by the
// array and an unreachable system, become remote operation errors;
// anything else propagates untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if cause := errors.Cause(err); infinibox.IsAPIError(cause) || infinibox.IsSystemNotFound(cause) {
		return &remoteOperationError{cause: cause}
	}
	return err
}
