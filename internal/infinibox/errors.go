// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

package infinibox

import (
	"fmt"

	"github.com/juju/errors"
)

// APIError is an error reported by the array's API in the response
// envelope of a command.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Status is the HTTP status the error arrived with.
	Status int `json:"-"`
}

// Error implements error, surfacing the array's message verbatim.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// IsAPIError reports whether err was reported by the array's API.
func IsAPIError(err error) bool {
	_, ok := errors.Cause(err).(*APIError)
	return ok
}

// systemNotFoundError indicates the array itself could not be reached.
type systemNotFoundError struct {
	address string
	cause   error
}

func systemNotFound(address string, cause error) error {
	return &systemNotFoundError{address: address, cause: cause}
}

// Error implements error.
func (e *systemNotFoundError) Error() string {
	return fmt.Sprintf("infinibox %q not reachable: %v", e.address, e.cause)
}

// IsSystemNotFound reports whether err indicates an unreachable array.
func IsSystemNotFound(err error) bool {
	_, ok := errors.Cause(err).(*systemNotFoundError)
	return ok
}
