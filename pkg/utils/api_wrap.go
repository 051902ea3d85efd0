package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type APIResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
	Results *int   `json:"results,omitempty"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Wrap adapts a handler that returns an error; the error is forwarded to the error middleware.
func Wrap(h func(c *gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h(c); err != nil {
			_ = c.Error(err)
			c.Abort()
		}
	}
}

func RespondSuccess(c *gin.Context, data any, message string) {
	respond(c, http.StatusOK, APIResponse{Data: data, Message: message})
}

func RespondCreated(c *gin.Context, data any) {
	respond(c, http.StatusCreated, APIResponse{Data: data})
}

func RespondList(c *gin.Context, results int, data any) {
	respond(c, http.StatusOK, APIResponse{Results: &results, Data: data})
}

func RespondToken(c *gin.Context, code int, token string, data any) {
	respond(c, code, APIResponse{Token: token, Data: data})
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func RespondError(c *gin.Context, code int, message string) {
	appErr := &AppError{StatusCode: code, Message: message}
	c.JSON(code, APIResponse{
		Status:  appErr.Status(),
		Code:    code,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

func respond(c *gin.Context, code int, body APIResponse) {
	body.Status = "success"
	body.Code = code
	body.TraceID = c.GetString("trace_id")
	c.JSON(code, body)
}

// HandleServiceError writes the error envelope for err. Non-operational errors are
// hidden behind a generic message unless verbose is set.
func HandleServiceError(c *gin.Context, err error, verbose bool) *AppError {
	appErr := TranslateError(err)

	body := APIResponse{
		Status:  appErr.Status(),
		Code:    appErr.StatusCode,
		Message: appErr.Message,
		TraceID: c.GetString("trace_id"),
	}

	if verbose {
		body.Error = err.Error()
		var p *PanicError
		if errors.As(err, &p) {
			body.Stack = string(p.Stack)
		}
	} else if !appErr.IsOperational {
		body.Status = "error"
		body.Code = http.StatusInternalServerError
		body.Message = "Something went very wrong!"
	}

	c.JSON(body.Code, body)
	return appErr
}

// PanicError is recorded by the recovery middleware.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// TranslateError maps library failures onto operational errors. Anything it does
// not recognise becomes a non-operational 500.
func TranslateError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var castErr *CastError
	if errors.As(err, &castErr) {
		return &AppError{StatusCode: http.StatusBadRequest, Message: castErr.Error(), IsOperational: true, Err: err}
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return &AppError{StatusCode: http.StatusBadRequest, Message: valErr.Error(), IsOperational: true, Err: err}
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msg := NewValidationError(FormatValidationErrors(fieldErrs)...).Error()
		return &AppError{StatusCode: http.StatusBadRequest, Message: msg, IsOperational: true, Err: err}
	}

	if IsDuplicateKey(err) {
		return &AppError{StatusCode: http.StatusBadRequest, Message: "Duplicate field value. Please use another value!", IsOperational: true, Err: err}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &AppError{StatusCode: http.StatusNotFound, Message: ErrNoDocument.Message, IsOperational: true, Err: err}
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return &AppError{StatusCode: http.StatusUnauthorized, Message: "Your token has expired! Please log in again.", IsOperational: true, Err: err}
	}
	if isTokenError(err) {
		return &AppError{StatusCode: http.StatusUnauthorized, Message: "Invalid token. Please log in again!", IsOperational: true, Err: err}
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return &AppError{StatusCode: http.StatusRequestEntityTooLarge, Message: fmt.Sprintf("Request body exceeds %d bytes", maxBytesErr.Limit), IsOperational: true, Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &AppError{StatusCode: http.StatusBadRequest, Message: "Invalid request body", IsOperational: true, Err: err}
	}
	if errors.As(err, &typeErr) {
		return &AppError{StatusCode: http.StatusBadRequest, Message: fmt.Sprintf("Invalid %s: expected %s.", typeErr.Field, typeErr.Type), IsOperational: true, Err: err}
	}

	return &AppError{StatusCode: http.StatusInternalServerError, Message: err.Error(), Err: err}
}

// IsDuplicateKey reports unique constraint violations from either driver.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

var tokenErrors = []error{
	jwt.ErrTokenMalformed,
	jwt.ErrTokenSignatureInvalid,
	jwt.ErrTokenUnverifiable,
	jwt.ErrTokenInvalidClaims,
	jwt.ErrTokenNotValidYet,
	jwt.ErrTokenUsedBeforeIssued,
	jwt.ErrTokenRequiredClaimMissing,
	jwt.ErrSignatureInvalid,
}

func isTokenError(err error) bool {
	for _, target := range tokenErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
