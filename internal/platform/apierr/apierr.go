package apierr

import "fmt"

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Error codes surfaced by the core services. Callers must not retry on any of
// these except the documented takeover flow after SESSION_CONFLICT.
const (
	CodeSessionConflict            = "SESSION_CONFLICT"
	CodeSessionNotFound            = "SESSION_NOT_FOUND"
	CodeSessionNotActive           = "SESSION_NOT_ACTIVE"
	CodeStatusEventNotFound        = "STATUS_EVENT_NOT_FOUND"
	CodeStatusEventSessionMismatch = "STATUS_EVENT_SESSION_MISMATCH"
	CodeStatusEventAlreadyEnded    = "STATUS_EVENT_ALREADY_ENDED"
	CodeInvalidQuantities          = "INVALID_QUANTITIES"
	CodeStatusDefinitionNotFound   = "STATUS_DEFINITION_NOT_FOUND"
	CodeJobItemNotFound            = "JOB_ITEM_NOT_FOUND"
	CodeJobItemJobMismatch         = "JOB_ITEM_JOB_MISMATCH"
	CodeJobItemInactive            = "JOB_ITEM_INACTIVE"
	CodeJobItemStationNotFound     = "JOB_ITEM_STATION_NOT_FOUND"
	CodeJobItemStationMismatch     = "JOB_ITEM_STATION_MISMATCH"
	CodeJobItemStepNotFound        = "JOB_ITEM_STEP_NOT_FOUND"
	CodePipelineEmpty              = "PIPELINE_EMPTY"
	CodePipelineLocked             = "PIPELINE_LOCKED"
	CodeStationInvalid             = "STATION_INVALID"
	CodeTransitionForbidden        = "TRANSITION_FORBIDDEN"
	CodeStatusProtected            = "STATUS_PROTECTED"
	CodeInvalidColor               = "INVALID_COLOR"
	CodeReportNotFound             = "REPORT_NOT_FOUND"
	CodeFirstProductApprovalNeeded = "FIRST_PRODUCT_APPROVAL_REQUIRED"
	CodeFirstProductRequestExists  = "FIRST_PRODUCT_REQUEST_EXISTS"
	CodeTakeoverConflict           = "TAKEOVER_CONFLICT"
)
