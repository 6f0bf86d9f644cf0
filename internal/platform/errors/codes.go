// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Rules runtime errors
	CodeRulesUndefinedVariable       Code = "RULES_UNDEFINED_VARIABLE"
	CodeRulesMissingAttribute        Code = "RULES_MISSING_ATTRIBUTE"
	CodeRulesTypeMismatch            Code = "RULES_TYPE_MISMATCH"
	CodeRulesInvalidAssignmentTarget Code = "RULES_INVALID_ASSIGNMENT_TARGET"
	CodeRulesInvalidTarget           Code = "RULES_INVALID_TARGET"
	CodeRulesInvalidIteratorState    Code = "RULES_INVALID_ITERATOR_STATE"
	CodeRulesArgumentValidation      Code = "RULES_ARGUMENT_VALIDATION"

	// Ruleset errors
	CodeRulesetNotFound Code = "RULESET_NOT_FOUND"
	CodeRulesetInvalid  Code = "RULESET_INVALID"

	// Session errors
	CodeSessionEmptyID         Code = "SESSION_EMPTY_ID"
	CodeSessionNoPlayers       Code = "SESSION_NO_PLAYERS"
	CodeSessionDuplicatePlayer Code = "SESSION_DUPLICATE_PLAYER"
	CodeSessionNotAwaiting     Code = "SESSION_NOT_AWAITING_INPUT"
	CodeSessionFailed          Code = "SESSION_FAILED"

	// Seat grant errors
	CodeSeatGrantInvalid  Code = "SEAT_GRANT_INVALID"
	CodeSeatGrantExpired  Code = "SEAT_GRANT_EXPIRED"
	CodeSeatGrantMismatch Code = "SEAT_GRANT_MISMATCH"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeRulesArgumentValidation,
		CodeSessionEmptyID,
		CodeSessionNoPlayers,
		CodeSessionDuplicatePlayer,
		CodeRulesetInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - the rules or session state does not allow the operation
	case CodeRulesUndefinedVariable,
		CodeRulesMissingAttribute,
		CodeRulesTypeMismatch,
		CodeRulesInvalidAssignmentTarget,
		CodeRulesInvalidTarget,
		CodeRulesInvalidIteratorState,
		CodeSessionNotAwaiting,
		CodeSessionFailed:
		return codes.FailedPrecondition

	// Unauthenticated / PermissionDenied - seat grants
	case CodeSeatGrantInvalid,
		CodeSeatGrantExpired:
		return codes.Unauthenticated
	case CodeSeatGrantMismatch:
		return codes.PermissionDenied

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeRulesetNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
