package dto

// ErrorResponse cuerpo de error HTTP. Details lleva, en orden, las reglas incumplidas.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details []ViolationDTO `json:"details,omitempty"`
}

// ViolationDTO regla de negocio incumplida.
type ViolationDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ListResponse envoltorio de listados.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// NewList arma el listado; nunca serializa items como null.
func NewList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}
