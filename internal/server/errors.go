package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/tendertrack/tender-agent/internal/common"
)

// Error is the JSON error envelope every handler returns on failure.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, msg string) Error {
	return Error{Code: code, Message: msg}
}

func ErrBadRequest(msg string) Error {
	if msg == "" {
		msg = "invalid request"
	}
	return Error{Code: fiber.StatusBadRequest, Message: msg}
}

func ErrNotFound(resource string, arg any) Error {
	return Error{
		Code:    fiber.StatusNotFound,
		Message: fmt.Sprintf("%s with %v not found", resource, arg),
	}
}

// ErrorHandler maps handler errors onto the envelope. Domain sentinels
// get their natural status codes; everything else is a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(apiErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(NewError(fiberErr.Code, fiberErr.Message))
	}

	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput):
		code = fiber.StatusBadRequest
	case errors.Is(err, common.ErrExtractionFailed):
		code = fiber.StatusUnprocessableEntity
	}
	return c.Status(code).JSON(NewError(code, err.Error()))
}
