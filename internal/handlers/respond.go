package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gametracker/internal/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// statusFromError maps the domain error taxonomy to HTTP status codes.
// Ownership mismatches are 403; 401 is reserved for bad credentials and
// missing bearer tokens, which the auth handler and middleware emit
// themselves.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperror.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, apperror.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the uniform {error: string} body. Unexpected errors
// are logged with their detail but surface as a generic 500 so store
// internals never leak to the caller.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFromError(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("Internal error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// validationMessage flattens validator errors into one readable string for
// the {error: string} body.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("field '%s' failed on the '%s' rule", e.Field(), e.Tag()))
	}
	return strings.Join(messages, "; ")
}
