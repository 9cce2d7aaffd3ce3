package messages

import "fmt"

// StatusCode is a DMTF CIM status code as carried by the CODE attribute of
// an ERROR element. Code 0 is not defined by DSP0200; this package uses it
// for failures synthesized locally when a response cannot be parsed as
// CIM-XML at all.
type StatusCode int

const (
	StatusLocalFailure                    StatusCode = 0
	StatusFailed                          StatusCode = 1
	StatusAccessDenied                    StatusCode = 2
	StatusInvalidNamespace                StatusCode = 3
	StatusInvalidParameter                StatusCode = 4
	StatusInvalidClass                    StatusCode = 5
	StatusNotFound                        StatusCode = 6
	StatusNotSupported                    StatusCode = 7
	StatusClassHasChildren                StatusCode = 8
	StatusClassHasInstances               StatusCode = 9
	StatusInvalidSuperclass               StatusCode = 10
	StatusAlreadyExists                   StatusCode = 11
	StatusNoSuchProperty                  StatusCode = 12
	StatusTypeMismatch                    StatusCode = 13
	StatusQueryLanguageNotSupported       StatusCode = 14
	StatusInvalidQuery                    StatusCode = 15
	StatusMethodNotAvailable              StatusCode = 16
	StatusMethodNotFound                  StatusCode = 17
	StatusNamespaceNotEmpty               StatusCode = 18
	StatusInvalidEnumerationContext       StatusCode = 19
	StatusInvalidOperationTimeout         StatusCode = 20
	StatusPullHasBeenAbandoned            StatusCode = 21
	StatusPullCannotBeAbandoned           StatusCode = 22
	StatusFilteredEnumerationNotSupported StatusCode = 23
	StatusContinuationOnErrorNotSupported StatusCode = 24
	StatusServerLimitsExceeded            StatusCode = 25
	StatusServerIsShuttingDown            StatusCode = 26
	StatusQueryFeatureNotSupported        StatusCode = 27
)

var statusNames = map[StatusCode]string{
	StatusLocalFailure:                    "LOCAL_FAILURE",
	StatusFailed:                          "CIM_ERR_FAILED",
	StatusAccessDenied:                    "CIM_ERR_ACCESS_DENIED",
	StatusInvalidNamespace:                "CIM_ERR_INVALID_NAMESPACE",
	StatusInvalidParameter:                "CIM_ERR_INVALID_PARAMETER",
	StatusInvalidClass:                    "CIM_ERR_INVALID_CLASS",
	StatusNotFound:                        "CIM_ERR_NOT_FOUND",
	StatusNotSupported:                    "CIM_ERR_NOT_SUPPORTED",
	StatusClassHasChildren:                "CIM_ERR_CLASS_HAS_CHILDREN",
	StatusClassHasInstances:               "CIM_ERR_CLASS_HAS_INSTANCES",
	StatusInvalidSuperclass:               "CIM_ERR_INVALID_SUPERCLASS",
	StatusAlreadyExists:                   "CIM_ERR_ALREADY_EXISTS",
	StatusNoSuchProperty:                  "CIM_ERR_NO_SUCH_PROPERTY",
	StatusTypeMismatch:                    "CIM_ERR_TYPE_MISMATCH",
	StatusQueryLanguageNotSupported:       "CIM_ERR_QUERY_LANGUAGE_NOT_SUPPORTED",
	StatusInvalidQuery:                    "CIM_ERR_INVALID_QUERY",
	StatusMethodNotAvailable:              "CIM_ERR_METHOD_NOT_AVAILABLE",
	StatusMethodNotFound:                  "CIM_ERR_METHOD_NOT_FOUND",
	StatusNamespaceNotEmpty:               "CIM_ERR_NAMESPACE_NOT_EMPTY",
	StatusInvalidEnumerationContext:       "CIM_ERR_INVALID_ENUMERATION_CONTEXT",
	StatusInvalidOperationTimeout:         "CIM_ERR_INVALID_OPERATION_TIMEOUT",
	StatusPullHasBeenAbandoned:            "CIM_ERR_PULL_HAS_BEEN_ABANDONED",
	StatusPullCannotBeAbandoned:           "CIM_ERR_PULL_CANNOT_BE_ABANDONED",
	StatusFilteredEnumerationNotSupported: "CIM_ERR_FILTERED_ENUMERATION_NOT_SUPPORTED",
	StatusContinuationOnErrorNotSupported: "CIM_ERR_CONTINUATION_ON_ERROR_NOT_SUPPORTED",
	StatusServerLimitsExceeded:            "CIM_ERR_SERVER_LIMITS_EXCEEDED",
	StatusServerIsShuttingDown:            "CIM_ERR_SERVER_IS_SHUTTING_DOWN",
	StatusQueryFeatureNotSupported:        "CIM_ERR_QUERY_FEATURE_NOT_SUPPORTED",
}

// String returns the DSP0200 symbolic name of the status code.
func (c StatusCode) String() string {
	if name, ok := statusNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CIM_ERR(%d)", int(c))
}

// CIMError is a server-reported operation failure (decoded from an ERROR
// element) or, with code 0, a locally synthesized failure for responses
// that could not be parsed as CIM-XML in the first place. Err carries the
// underlying decode error for code-0 failures and is nil otherwise.
type CIMError struct {
	Code        StatusCode
	Description string
	Err         error
}

func (e *CIMError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code.String()
}

func (e *CIMError) Unwrap() error {
	return e.Err
}

// localError wraps a pre-protocol failure as a code-0 CIMError. A *CIMError
// passes through unchanged, keeping server-reported codes intact.
func localError(err error) error {
	if ce, ok := err.(*CIMError); ok {
		return ce
	}
	return &CIMError{Code: StatusLocalFailure, Description: err.Error(), Err: err}
}
