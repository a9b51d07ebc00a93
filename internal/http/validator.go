// FILE: internal/http/validator.go
package http

import (
	"fmt"
	"reflect"
	"strings"

	"repertoire/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// requestError carries a finished error response back to customErrorHandler
type requestError struct {
	status int
	body   core.ErrorResponse
}

func (e *requestError) Error() string {
	if e.body.Details != "" {
		return e.body.Error + ": " + e.body.Details
	}
	return e.body.Error
}

// validationMiddleware parses and validates JSON bodies by route. Handlers
// reach the result through validatedBody.
func validationMiddleware(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodGet || method == fiber.MethodDelete || method == fiber.MethodOptions {
		return c.Next()
	}

	path := strings.TrimSuffix(c.Path(), "/")
	var requestType any

	switch {
	case strings.HasSuffix(path, "/moves") && method == fiber.MethodPost:
		requestType = &core.MoveRequest{}
	case strings.HasSuffix(path, "/annotations") && method == fiber.MethodPut:
		requestType = &core.AnnotationRequest{}
	case strings.HasSuffix(path, "/pgn") && method == fiber.MethodPost:
		requestType = &core.ImportPGNRequest{}
	case strings.HasSuffix(path, "/tags") && method == fiber.MethodPost:
		requestType = &core.TagRequest{}
	case strings.HasSuffix(path, "/training/sessions") && method == fiber.MethodPost:
		requestType = &core.SessionRequest{}
	case strings.HasSuffix(path, "/training/events") && method == fiber.MethodPost:
		requestType = &core.TrainingEventRequest{}
	default:
		return c.Next()
	}

	if err := parseAndValidate(c, requestType); err != nil {
		return err
	}

	c.Locals("validatedBody", requestType)
	c.Locals("validated", true)

	return c.Next()
}

// parseAndValidate fills dst from the body and runs its validate tags
func parseAndValidate(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return &requestError{
			status: fiber.StatusBadRequest,
			body: core.ErrorResponse{
				Error:   "invalid request body",
				Code:    core.ErrInvalidRequest,
				Details: err.Error(),
			},
		}
	}

	if err := validate.Struct(dst); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return &requestError{
				status: fiber.StatusBadRequest,
				body: core.ErrorResponse{
					Error:   "validation failed",
					Code:    core.ErrInvalidRequest,
					Details: err.Error(),
				},
			}
		}
		return &requestError{
			status: fiber.StatusBadRequest,
			body: core.ErrorResponse{
				Error:   "validation failed",
				Code:    core.ErrInvalidRequest,
				Details: describe(errs),
			},
		}
	}
	return nil
}

func describe(errs validator.ValidationErrors) string {
	var details strings.Builder
	for _, err := range errs {
		var msg string
		switch err.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", err.Field())
		case "oneof":
			msg = fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
		case "min":
			if err.Kind() == reflect.String {
				msg = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
			} else {
				msg = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
			}
		case "max":
			if err.Kind() == reflect.String {
				msg = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
			} else {
				msg = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
			}
		case "len":
			msg = fmt.Sprintf("%s must be exactly %s long", err.Field(), err.Param())
		case "excludes":
			msg = fmt.Sprintf("%s must not contain %q", err.Field(), err.Param())
		case "uuid":
			msg = fmt.Sprintf("%s must be a valid UUID", err.Field())
		case "omitempty", "dive":
			continue
		default:
			msg = fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag())
		}
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		details.WriteString(msg)
	}
	return details.String()
}

// validatedBody returns the body stored by validationMiddleware
func validatedBody[T any](c *fiber.Ctx) (*T, error) {
	validated, ok := c.Locals("validated").(bool)
	if !ok || !validated {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "validation bypass detected")
	}
	body, ok := c.Locals("validatedBody").(*T)
	if !ok || body == nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "validation data missing")
	}
	return body, nil
}
