package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"littlegrow/internal/middleware"
	"littlegrow/internal/models"
	"littlegrow/pkg/apperrors"
	"littlegrow/pkg/logger"
)

// requestContext carries the request id into the logger fields.
func requestContext(c *fiber.Ctx, log *logger.Logger) context.Context {
	ctx := c.UserContext()
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		ctx = log.WithField(ctx, "request_id", id)
	}
	return ctx
}

// writeError renders err as {"message", "code", "details"?} with the status
// its code maps to.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	appErr := apperrors.As(err)
	if appErr == nil {
		appErr = apperrors.Wrap(apperrors.CodeInternal, err, "unexpected error")
	}
	meta := apperrors.MetadataFor(appErr.Code())

	message := appErr.Message()
	if meta.HTTPStatus >= fiber.StatusInternalServerError {
		log.Error(requestContext(c, log), c.Method()+" "+c.Path()+" failed", err)
		if appErr.Code() == apperrors.CodeInternal {
			message = meta.PublicMessage
		}
	}

	body := fiber.Map{
		"message": message,
		"code":    appErr.Code(),
	}
	if details := appErr.Details(); details != nil {
		body["details"] = details
	}
	if meta.Retryable {
		body["retryable"] = true
	}
	return c.Status(meta.HTTPStatus).JSON(body)
}

func invalidBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"code":    apperrors.CodeValidation,
		"error":   err.Error(),
	})
}

// bindJSON decodes the JSON body into dst and runs its validate tags. When it
// returns false the 400 response has already been written.
func bindJSON(c *fiber.Ctx, validate *validator.Validate, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, invalidBody(c, err)
	}
	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, invalidBody(c, err)
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Namespace()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"code":    apperrors.CodeValidation,
			"errors":  errorMessages,
		})
	}
	return true, nil
}

func identity(c *fiber.Ctx) models.Identity {
	id, _ := middleware.CurrentIdentity(c)
	return id
}
