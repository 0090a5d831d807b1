package services

import "errors"

// Machine-readable error codes surfaced to the HTTP layer. Only these are
// shown verbatim to end users; anything else collapses to "unknown".
const (
	CodeInvalidInput      = "invalid_input"
	CodeCohortUnavailable = "cohort_unavailable"
	CodeCapacityReached   = "capacity_reached"
	CodeAlreadyEnrolled   = "already_enrolled"
	CodeIntegrityConflict = "integrity_conflict"
	CodeNotEnrolled       = "not_enrolled"
	CodeUnknown           = "unknown"
)

// CampError is an expected, user-facing failure with a stable code.
type CampError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *CampError) Error() string { return e.Message }

var (
	ErrInvalidInput      = &CampError{CodeInvalidInput, "camp_id and user_id are required"}
	ErrCohortUnavailable = &CampError{CodeCohortUnavailable, "no cohort currently open for enrollment"}
	ErrCapacityReached   = &CampError{CodeCapacityReached, "cohort has reached its maximum number of participants"}
	ErrAlreadyEnrolled   = &CampError{CodeAlreadyEnrolled, "user is already enrolled in this cohort"}
	ErrIntegrityConflict = &CampError{CodeIntegrityConflict, "enrollment conflicted with a concurrent request, please try again"}
	ErrNotEnrolled       = &CampError{CodeNotEnrolled, "user is not enrolled in this camp"}
)

// ErrorCode extracts the stable code from any error returned by a service.
func ErrorCode(err error) string {
	var ce *CampError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeUnknown
}

// HTTPStatus maps a service error to the response status the handlers use.
func HTTPStatus(err error) int {
	switch ErrorCode(err) {
	case CodeInvalidInput:
		return 400
	case CodeCohortUnavailable, CodeNotEnrolled:
		return 404
	case CodeCapacityReached:
		return 403
	case CodeAlreadyEnrolled, CodeIntegrityConflict:
		return 409
	default:
		return 500
	}
}
