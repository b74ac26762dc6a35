// Package apperrors defines the error taxonomy shared by the services and the
// HTTP layer. Every error that reaches a handler is either an *Error or is
// treated as internal.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups errors by how they are surfaced to callers
type Kind int

// Error kinds
const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindPermission
	KindNotFound
	KindConflict
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is a classified application error. Two errors match under errors.Is
// when their codes are equal, so a sentinel can be re-issued with a more
// specific message without breaking comparisons.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Status overrides the HTTP status derived from Kind when non-zero
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e with a different message
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// Wrap returns a copy of e that wraps cause
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

// HTTPStatus returns the status code the error should be reported with
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Validation builds a validation error with a caller supplied message
func Validation(msg string) *Error {
	return newError(KindValidation, "ValidationError", msg)
}

// NotFound builds a not-found error for the named entity
func NotFound(entity string) *Error {
	return newError(KindNotFound, "NotFound", entity+" not found")
}

// Upstream wraps a failure of an external collaborator such as object storage
func Upstream(msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Code: "UpstreamError", Message: msg, Err: cause}
}

// Internal wraps an unexpected failure
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Code: "InternalError", Message: "Internal Server Error", Err: cause}
}

// Sentinel errors
var (
	ErrValidation = newError(KindValidation, "ValidationError", "invalid request")
	ErrNotFound   = newError(KindNotFound, "NotFound", "not found")

	ErrUnauthenticated    = newError(KindAuth, "Unauthenticated", "Unauthorized")
	ErrInvalidToken       = newError(KindAuth, "InvalidToken", "Unauthorized")
	ErrUserNotFound       = newError(KindAuth, "UserNotFound", "Unauthorized")
	ErrInvalidCredentials = &Error{Kind: KindAuth, Code: "InvalidCredentials", Message: "Invalid email or password", Status: http.StatusBadRequest}

	ErrNotAMember             = newError(KindPermission, "NotAMember", "You are not a member of this chamber")
	ErrNoCaseAccess           = newError(KindPermission, "NoCaseAccess", "You don't have access to this case")
	ErrInsufficientPermission = newError(KindPermission, "InsufficientPermission", "You don't have permission to perform this action")
	ErrNotChamberAdmin        = newError(KindPermission, "NotChamberAdmin", "Only chamber admin can perform this action")
	ErrCannotModifyAdmin      = newError(KindPermission, "CannotModifyAdmin", "Cannot modify admin permissions")
	ErrCannotModifySelf       = newError(KindPermission, "CannotModifySelf", "Cannot modify your own permissions")
	ErrCannotRemoveAdmin      = newError(KindPermission, "CannotRemoveAdmin", "Cannot remove chamber admin")

	ErrChamberNotFound     = newError(KindNotFound, "ChamberNotFound", "Chamber not found")
	ErrCaseNotFound        = newError(KindNotFound, "CaseNotFound", "Case not found")
	ErrMemberNotFound      = newError(KindNotFound, "MemberNotFound", "Member not found")
	ErrJoinRequestNotFound = newError(KindNotFound, "JoinRequestNotFound", "Join request not found")
	ErrFileNotFound        = newError(KindNotFound, "FileNotFound", "File not found")

	ErrDuplicateMembership = newError(KindConflict, "DuplicateMembership", "User is already a member of this chamber")
	ErrAlreadyMember       = newError(KindConflict, "AlreadyMember", "You are already a member of this chamber")
	ErrDuplicatePending    = newError(KindConflict, "DuplicatePending", "You already have a pending join request")
	ErrEmailTaken          = &Error{Kind: KindConflict, Code: "EmailTaken", Message: "User already exists", Status: http.StatusBadRequest}
)

// InsufficientPermission reports a denied case action in a chamber
func InsufficientPermission(action string) *Error {
	return ErrInsufficientPermission.WithMessage(
		fmt.Sprintf("You don't have permission to %s cases in this chamber", action))
}

// As extracts an *Error from err, classifying anything else as internal
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// Status returns the HTTP status err should be reported with
func Status(err error) int {
	return As(err).HTTPStatus()
}

// IsKind reports whether err is classified as kind
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return kind == KindInternal
}
