package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned values compare equal to
// their predeclared origin.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors. Codes follow the public calendar API contract.
var (
	ErrInvalidCredentials     = New("InvalidCredentials", http.StatusUnauthorized, "invalid or missing credentials")
	ErrUnauthorized           = New("InvalidCredentials", http.StatusUnauthorized, "unauthorized")
	ErrForbidden              = New("InsufficientAuthorization", http.StatusForbidden, "insufficient authorization")
	ErrNotFound               = New("InvalidID", http.StatusNotFound, "resource not found")
	ErrInvalidID              = ErrNotFound
	ErrValidation             = New("ValidationError", http.StatusBadRequest, "validation failed")
	ErrConflict               = New("Conflict", http.StatusConflict, "conflict")
	ErrConcurrentModification = New("ConcurrentModification", http.StatusConflict, "resource modified concurrently")
	ErrInternal               = New("InternalError", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss              = New("CacheMiss", http.StatusNotFound, "cache miss")

	ErrEndBeforeStart              = New("EndBeforeStart", http.StatusUnprocessableEntity, "end is before start")
	ErrClassroomAlreadyOccupied    = New("ClassroomAlreadyOccupied", http.StatusUnprocessableEntity, "the classroom is already occupied")
	ErrClassOrGroupAlreadyOccupied = New("ClassOrGroupAlreadyOccupied", http.StatusUnprocessableEntity, "the class (or group) is already occupied")
	ErrTeacherAlreadyOccupied      = New("TeacherAlreadyOccupied", http.StatusUnprocessableEntity, "the teacher is already occupied")
	ErrInvalidOccupancyType        = New("InvalidOccupancyType", http.StatusUnprocessableEntity, "occupancy type not allowed here")
	ErrTeacherNotInSubject         = New("TeacherNotInSubject", http.StatusUnprocessableEntity, "teacher does not teach this subject")
	ErrTeacherInCharge             = New("TeacherInCharge", http.StatusUnprocessableEntity, "teacher is in charge of the subject")
	ErrInsufficientTeachers        = New("InsufficientTeachers", http.StatusUnprocessableEntity, "a subject must keep at least one teacher")
	ErrClassroomUsed               = New("ClassroomUsed", http.StatusUnprocessableEntity, "classroom is used by an occupancy")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
