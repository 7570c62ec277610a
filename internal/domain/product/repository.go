package product

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/types"
)

// Repository persists catalog products and their stock movements
type Repository interface {
	Create(ctx context.Context, product *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, product *Product) error
	List(ctx context.Context, filter *types.ProductFilter) ([]*Product, error)
	Count(ctx context.Context, filter *types.ProductFilter) (int, error)

	// GetManyForUpdate locks the given products in ascending id order.
	// Missing ids are reported as NotFound.
	GetManyForUpdate(ctx context.Context, ids []string) ([]*Product, error)

	// UpdateStock sets the stock column of a locked product
	UpdateStock(ctx context.Context, id string, stock int64) error

	CreateMovement(ctx context.Context, movement *StockMovement) error
	ListMovements(ctx context.Context, productID string, filter *types.QueryFilter) ([]*StockMovement, error)
}
