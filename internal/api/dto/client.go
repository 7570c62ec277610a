package dto

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/domain/client"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/RiveraMg/MiaBot/internal/validator"
	"github.com/samber/lo"
)

type CreateClientRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	TaxID   string `json:"tax_id,omitempty" validate:"max=50"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty" validate:"max=50"`
	Address string `json:"address,omitempty"`
}

func (r *CreateClientRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateClientRequest) ToClient(ctx context.Context) *client.Client {
	return &client.Client{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLIENT),
		Name:      r.Name,
		TaxID:     r.TaxID,
		Email:     r.Email,
		Phone:     r.Phone,
		Address:   r.Address,
		IsActive:  true,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
}

// UpdateClientRequest edits contact fields. Omitted fields are left as they are.
type UpdateClientRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	TaxID    *string `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address  *string `json:"address,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (r *UpdateClientRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *UpdateClientRequest) Apply(c *client.Client) {
	c.Name = lo.FromPtrOr(r.Name, c.Name)
	c.TaxID = lo.FromPtrOr(r.TaxID, c.TaxID)
	c.Email = lo.FromPtrOr(r.Email, c.Email)
	c.Phone = lo.FromPtrOr(r.Phone, c.Phone)
	c.Address = lo.FromPtrOr(r.Address, c.Address)
	c.IsActive = lo.FromPtrOr(r.IsActive, c.IsActive)
}

type ClientResponse struct {
	*client.Client
}

type ListClientsResponse = types.ListResponse[*ClientResponse]
