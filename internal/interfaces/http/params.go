package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/storemax-api/internal/domain"
)

// uuidParam lee un parámetro de ruta y verifica que sea un UUID.
func uuidParam(c *fiber.Ctx, name string) (string, error) {
	v := c.Params(name)
	if _, err := uuid.Parse(v); err != nil {
		return "", domain.NewValidationError(name, "debe ser un UUID")
	}
	return v, nil
}
