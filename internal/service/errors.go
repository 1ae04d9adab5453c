package service

import (
	"alcyxob/gym-manager/internal/repository"
	"alcyxob/gym-manager/internal/storage"
	"errors"
	"sort"
	"strings"
)

// --- Error Definitions ---
var (
	// not found
	ErrMemberNotFound   = errors.New("member not found")
	ErrTrainerNotFound  = errors.New("trainer not found")
	ErrAdminNotFound    = errors.New("admin not found")
	ErrScheduleNotFound = errors.New("workout schedule not found")
	ErrNoCheckInToday   = errors.New("no check-in record found for today")

	// conflicts
	ErrUserIDTaken         = errors.New("user ID already exists")
	ErrScheduleIDTaken     = errors.New("workout schedule ID already exists")
	ErrPlanIDTaken         = errors.New("subscription plan ID already exists")
	ErrAlreadyCheckedIn    = errors.New("member is already checked in today")
	ErrAlreadyVisitedToday = errors.New("member has already checked in and out today")

	// state
	ErrMemberInactive     = errors.New("member account is inactive")
	ErrTrainerInactive    = errors.New("trainer account is inactive")
	ErrMembershipExpired  = errors.New("membership has expired")
	ErrAlreadyCheckedOut  = errors.New("member is already checked out")
	ErrNotLate            = errors.New("check-in is within the grace period")
	ErrNotAssigned        = errors.New("member is not assigned to this trainer")
	ErrScheduleNotTimed   = errors.New("workout schedule has no scheduled time")
	ErrScheduleNotOverdue = errors.New("workout schedule is not overdue")
	ErrScheduleCancelled  = errors.New("workout schedule is cancelled")
	ErrReportsDisabled    = errors.New("report export is not configured")

	// auth
	ErrAuthenticationFailed = errors.New("authentication failed: invalid user ID or password")
	ErrAccountInactive      = errors.New("account is inactive")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error lists every field message in field order.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for f := range v.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = v.FieldErrors[f]
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// orNil returns v as an error only when it holds field errors.
func (v *ValidationError) orNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

func fieldError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// Error kinds reported by ErrorKind.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindConflict   = "conflict"
	KindAuth       = "auth"
	KindState      = "state"
	KindUnexpected = "unexpected"
)

var errorKinds = []struct {
	kind string
	errs []error
}{
	{KindNotFound, []error{ErrMemberNotFound, ErrTrainerNotFound, ErrAdminNotFound, ErrScheduleNotFound, ErrNoCheckInToday, repository.ErrNotFound, storage.ErrReportNotFound}},
	{KindConflict, []error{ErrUserIDTaken, ErrScheduleIDTaken, ErrPlanIDTaken, ErrAlreadyCheckedIn, ErrAlreadyVisitedToday}},
	{KindState, []error{ErrMemberInactive, ErrTrainerInactive, ErrMembershipExpired, ErrAlreadyCheckedOut, ErrNotLate, ErrNotAssigned, ErrScheduleNotTimed, ErrScheduleNotOverdue, ErrScheduleCancelled, ErrReportsDisabled}},
	{KindAuth, []error{ErrAuthenticationFailed, ErrAccountInactive}},
}

// ErrorKind maps err to a stable label front ends can switch on.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) || errors.Is(err, storage.ErrInvalidReportName) {
		return KindValidation
	}
	for _, group := range errorKinds {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.kind
			}
		}
	}
	return KindUnexpected
}
