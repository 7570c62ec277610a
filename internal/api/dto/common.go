package dto

import "github.com/RiveraMg/MiaBot/internal/types"

// ListResponse is the paginated envelope shared by list endpoints
type ListResponse[T any] = types.ListResponse[T]

type SuccessResponse struct {
	Message string `json:"message"`
}
