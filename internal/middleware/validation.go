package middleware

import (
	"strconv"

	"study-buddy/internal/domain"
	"study-buddy/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the validation middleware.
const (
	LocalSessionID   = "validated_session_id"
	LocalAnswerIndex = "validated_answer_index"
)

// ValidationMiddleware validates path parameters before handlers run.
type ValidationMiddleware struct {
	validator *validation.Validator
}

func NewValidationMiddleware(validator *validation.Validator) *ValidationMiddleware {
	return &ValidationMiddleware{validator: validator}
}

// ValidateSessionID checks the :id path parameter.
func (vm *ValidationMiddleware) ValidateSessionID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if errors := vm.validator.ValidateSessionID(id); len(errors) > 0 {
			return errors // handled by ErrorHandler
		}
		c.Locals(LocalSessionID, id)
		return c.Next()
	}
}

// ValidateAnswerIndex checks the :index path parameter is a non-negative
// integer. Range against the quiz is checked by the session itself.
func (vm *ValidationMiddleware) ValidateAnswerIndex() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Params("index")
		index, err := strconv.Atoi(raw)
		if err != nil || index < 0 {
			return domain.ValidationErrors{domain.NewInvalidFormatError("index", raw)}
		}
		c.Locals(LocalAnswerIndex, index)
		return c.Next()
	}
}
