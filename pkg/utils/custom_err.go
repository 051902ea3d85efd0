package utils

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is an operational error: expected, user-facing, with a safe message.
type AppError struct {
	StatusCode    int
	Message       string
	IsOperational bool
	Err           error
}

func NewAppError(message string, statusCode int) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, IsOperational: true}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Status is "fail" for client errors and "error" for everything else.
func (e *AppError) Status() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return "fail"
	}
	return "error"
}

// CastError reports a value that could not be converted to the type of its field.
type CastError struct {
	Field string
	Value string
	Err   error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("Invalid %s: %s.", e.Field, e.Value)
}

func (e *CastError) Unwrap() error { return e.Err }

// ValidationError carries the messages of every failed entity rule.
type ValidationError struct {
	Messages []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return "Invalid input data. " + strings.Join(e.Messages, ". ")
}

var (
	ErrNoDocument          = NewAppError("No document found with that ID", http.StatusNotFound)
	ErrInvalidCredentials  = NewAppError("Incorrect email or password", http.StatusUnauthorized)
	ErrMissingCredentials  = NewAppError("Please provide email and password!", http.StatusBadRequest)
	ErrNotLoggedIn         = NewAppError("You are not logged in! Please log in to get access.", http.StatusUnauthorized)
	ErrUserGone            = NewAppError("The user belonging to this token no longer exists.", http.StatusUnauthorized)
	ErrPasswordChanged     = NewAppError("User recently changed password! Please log in again.", http.StatusUnauthorized)
	ErrForbidden           = NewAppError("You do not have permission to perform this action", http.StatusForbidden)
	ErrNoUserWithEmail     = NewAppError("There is no user with that email address.", http.StatusNotFound)
	ErrResetTokenInvalid   = NewAppError("Token is invalid or has expired", http.StatusBadRequest)
	ErrWrongPassword       = NewAppError("Your current password is wrong.", http.StatusUnauthorized)
	ErrSamePassword        = NewAppError("The new password must be different from the current password.", http.StatusForbidden)
	ErrPasswordRoute       = NewAppError("This route is not for password updates. Please use /update-password.", http.StatusBadRequest)
	ErrUseSignup           = NewAppError("This route is not defined! Please use /signup instead", http.StatusInternalServerError)
	ErrResetMailFailed     = NewAppError("There was an error sending the email. Try again later!", http.StatusInternalServerError)
	ErrTourNotFound        = NewAppError("No tour found with that ID", http.StatusNotFound)
	ErrTourNameNotFound    = NewAppError("No tour found with that name", http.StatusNotFound)
	ErrBookingNotOwned     = NewAppError("You can only cancel your own bookings", http.StatusForbidden)
	ErrReviewNotOwned      = NewAppError("You can only modify your own reviews", http.StatusForbidden)
	ErrInvalidLatLng       = NewAppError("Please provide latitude and longitude in the format lat,lng.", http.StatusBadRequest)
	ErrInvalidUnit         = NewAppError("Unit must be either mi or km.", http.StatusBadRequest)
	ErrNotAnImage          = NewAppError("Not an image! Please upload only images.", http.StatusBadRequest)
	ErrWebhookSignature    = NewAppError("Webhook signature verification failed", http.StatusBadRequest)
	ErrPaymentsUnavailable = NewAppError("Payments are not configured", http.StatusServiceUnavailable)
)
