package client

import (
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
)

// Client is a tenant's customer, the party an invoice is billed to
type Client struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	TaxID    string `db:"tax_id" json:"tax_id"`
	Email    string `db:"email" json:"email"`
	Phone    string `db:"phone" json:"phone"`
	Address  string `db:"address" json:"address"`
	IsActive bool   `db:"is_active" json:"is_active"`

	types.BaseModel
}

func (c *Client) Validate() error {
	if c.Name == "" {
		return ierr.NewError("client name is required").
			WithHint("Name is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}
