// Package response writes the JSON error envelope shared by every endpoint.
// Each error code has one HTTP status; handlers pick the code and the status
// follows from it.
package response

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeRateLimited     = "RATE_LIMITED"
	CodeJobFailed       = "JOB_FAILED"
	CodeWorkflowFailed  = "WORKFLOW_FAILED"
	CodeIndexFailed     = "INDEX_FAILED"
	CodeUpstreamError   = "UPSTREAM_ERROR"
	CodeServiceError    = "SERVICE_ERROR"
)

var statusByCode = map[string]int{
	CodeValidationError: fiber.StatusBadRequest,
	CodeUnauthorized:    fiber.StatusUnauthorized,
	CodeForbidden:       fiber.StatusForbidden,
	CodeNotFound:        fiber.StatusNotFound,
	CodeConflict:        fiber.StatusConflict,
	CodeRateLimited:     fiber.StatusTooManyRequests,
	CodeJobFailed:       fiber.StatusUnprocessableEntity,
	CodeWorkflowFailed:  fiber.StatusUnprocessableEntity,
	CodeIndexFailed:     fiber.StatusUnprocessableEntity,
	CodeUpstreamError:   fiber.StatusBadGateway,
	CodeServiceError:    fiber.StatusInternalServerError,
}

// StatusFor returns the HTTP status for code, 500 when the code is unknown.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error writes the envelope with an explicit status.
func Error(c *fiber.Ctx, status int, code, message string, details interface{}) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Details: details},
	})
}

// Fail writes the envelope with the status that belongs to code.
func Fail(c *fiber.Ctx, code, message string) error {
	return Error(c, StatusFor(code), code, message, nil)
}

func ValidationError(c *fiber.Ctx, message string, details interface{}) error {
	return Error(c, StatusFor(CodeValidationError), CodeValidationError, message, details)
}

func Unauthorized(c *fiber.Ctx, message string) error { return Fail(c, CodeUnauthorized, message) }
func Forbidden(c *fiber.Ctx, message string) error    { return Fail(c, CodeForbidden, message) }
func NotFound(c *fiber.Ctx, message string) error     { return Fail(c, CodeNotFound, message) }

// Conflict reports a request that does not fit the job's current status.
func Conflict(c *fiber.Ctx, message string) error { return Fail(c, CodeConflict, message) }

// RateLimited sets Retry-After when retryAfter is positive.
func RateLimited(c *fiber.Ctx, retryAfter time.Duration) error {
	if retryAfter > 0 {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retryAfter.Seconds())))
	}
	return Fail(c, CodeRateLimited, "Rate limit exceeded")
}

func ServiceError(c *fiber.Ctx, message string) error { return Fail(c, CodeServiceError, message) }

// UpstreamError reports a failure of VideoDB, the LLM or object storage.
func UpstreamError(c *fiber.Ctx, message string) error { return Fail(c, CodeUpstreamError, message) }

// FromError renders an error that reached fiber's error handler. A
// *fiber.Error keeps its status and message; anything else is a 500.
func FromError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		return Fail(c, CodeServiceError, "Internal Server Error")
	}

	code := CodeServiceError
	switch fe.Code {
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
		code = CodeValidationError
	case fiber.StatusUnauthorized:
		code = CodeUnauthorized
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		code = CodeNotFound
	case fiber.StatusTooManyRequests:
		code = CodeRateLimited
	}
	return Error(c, fe.Code, code, fe.Message, nil)
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

func Accepted(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusAccepted).JSON(data)
}

func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
