package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/storemax-api/internal/application/dto"
	"github.com/jhoicas/storemax-api/internal/domain"
	"github.com/jhoicas/storemax-api/pkg/logger"
)

// ErrorResponder traduce errores de dominio a respuestas HTTP.
// En producción los 500 no incluyen details.
type ErrorResponder struct {
	debug bool
	log   *logger.Logger
}

// NewErrorResponder construye el responder. debug habilita details en errores internos.
func NewErrorResponder(debug bool, log *logger.Logger) *ErrorResponder {
	if log == nil {
		log = logger.Nop()
	}
	return &ErrorResponder{debug: debug, log: log}
}

// Respond escribe el cuerpo de error correspondiente a err.
func (r *ErrorResponder) Respond(c *fiber.Ctx, err error) error {
	status, body := r.classify(err)
	if status >= fiber.StatusInternalServerError {
		r.log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
	}
	return c.Status(status).JSON(body)
}

func (r *ErrorResponder) classify(err error) (int, dto.ErrorResponse) {
	var (
		reqErr   *requestError
		valErr   *domain.ValidationError
		stockErr *domain.InsufficientStockError
		nfErr    *domain.NotFoundError
	)
	switch {
	case errors.As(err, &reqErr):
		code := "VALIDATION_ERROR"
		if reqErr.first.Field == "body" {
			code = "INVALID_BODY"
		}
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: code, Error: reqErr.Error(), Details: reqErr.fields}
	case errors.As(err, &valErr):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Error:   valErr.Error(),
			Details: []dto.FieldError{{Field: valErr.Field, Message: valErr.Message}},
		}
	case errors.As(err, &stockErr):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Code:  "INSUFFICIENT_STOCK",
			Error: stockErr.Error(),
			Details: fiber.Map{
				"productId": stockErr.ProductID,
				"requested": stockErr.Requested,
				"available": stockErr.Available,
			},
		}
	case errors.As(err, &nfErr):
		body := dto.ErrorResponse{Code: "NOT_FOUND", Error: nfErr.Error()}
		if nfErr.Resource == "producto" {
			body.Details = fiber.Map{"productId": nfErr.ID}
		}
		return fiber.StatusNotFound, body
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Error: "recurso no encontrado"}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION_ERROR", Error: err.Error()}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "INVALID_CREDENTIALS", Error: "credenciales inválidas"}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Error: "no autorizado"}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: CodeForbidden, Error: "acceso denegado"}
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "EMAIL_EXISTS", Error: "el email ya está registrado"}
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Error: "stock insuficiente"}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Error: "el recurso ya existe"}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Error: "conflicto con el estado actual"}
	}
	body := dto.ErrorResponse{Code: "INTERNAL", Error: "error interno del servidor"}
	if r.debug {
		body.Details = err.Error()
	}
	return fiber.StatusInternalServerError, body
}

// FiberErrorHandler para fiber.Config.ErrorHandler: errores no manejados por los handlers (404 de ruta, panics recuperados).
func (r *ErrorResponder) FiberErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "HTTP_ERROR"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusRequestEntityTooLarge:
			code = "PAYLOAD_TOO_LARGE"
		}
		if fe.Code < fiber.StatusInternalServerError {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Error: fe.Message})
		}
	}
	return r.Respond(c, err)
}
