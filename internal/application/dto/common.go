package dto

// ErrorResponse cuerpo de error HTTP. Details sólo lleva información de depuración.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// MessageResponse respuesta simple con mensaje y, opcionalmente, el id afectado.
type MessageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// FieldError detalle de validación de un campo.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}
