package serverutils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorStatus maps a sentinel error, matched with errors.Is, to a status code.
type ErrorStatus struct {
	Err  error
	Code int
}

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// error envelope.
func ErrorHandlerMiddleware(statuses ...ErrorStatus) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, message, details := classify(err, statuses)
		return ctx.Status(code).JSON(ErrorResponse(code, message, details))
	}
}

func classify(err error, statuses []ErrorStatus) (int, string, interface{}) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message, nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest, validationMessage(ve), describeValidation(ve)
	}

	for _, s := range statuses {
		if errors.Is(err, s.Err) {
			return s.Code, err.Error(), nil
		}
	}
	return fiber.StatusInternalServerError, err.Error(), nil
}
