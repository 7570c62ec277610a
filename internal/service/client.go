package service

import (
	"context"

	"github.com/RiveraMg/MiaBot/internal/api/dto"
	"github.com/RiveraMg/MiaBot/internal/domain/client"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
)

type ClientService interface {
	CreateClient(ctx context.Context, req dto.CreateClientRequest) (*dto.ClientResponse, error)
	GetClient(ctx context.Context, id string) (*dto.ClientResponse, error)
	ListClients(ctx context.Context, filter *types.ClientFilter) (*dto.ListClientsResponse, error)
	UpdateClient(ctx context.Context, id string, req dto.UpdateClientRequest) (*dto.ClientResponse, error)
	DeleteClient(ctx context.Context, id string) error
	ListClientInvoices(ctx context.Context, id string, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
}

type clientService struct {
	ServiceParams
}

func NewClientService(params ServiceParams) ClientService {
	return &clientService{ServiceParams: params}
}

func (s *clientService) CreateClient(ctx context.Context, req dto.CreateClientRequest) (*dto.ClientResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c := req.ToClient(ctx)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.ClientRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.Logger.Infow("client created", "client_id", c.ID)
	return &dto.ClientResponse{Client: c}, nil
}

func (s *clientService) GetClient(ctx context.Context, id string) (*dto.ClientResponse, error) {
	c, err := s.ClientRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ClientResponse{Client: c}, nil
}

func (s *clientService) ListClients(ctx context.Context, filter *types.ClientFilter) (*dto.ListClientsResponse, error) {
	if filter == nil {
		filter = types.NewClientFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	clients, err := s.ClientRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.ClientRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ListClientsResponse{
		Items:      lo.Map(clients, func(c *client.Client, _ int) *dto.ClientResponse { return &dto.ClientResponse{Client: c} }),
		Pagination: types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset()),
	}, nil
}

func (s *clientService) UpdateClient(ctx context.Context, id string, req dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.ClientRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.ClientRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.Logger.Infow("client updated", "client_id", c.ID)
	return &dto.ClientResponse{Client: c}, nil
}

// DeleteClient archives a client that was never invoiced
func (s *clientService) DeleteClient(ctx context.Context, id string) error {
	return s.DB.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.ClientRepo.Get(txCtx, id); err != nil {
			return err
		}

		filter := types.NewNoLimitInvoiceFilter()
		filter.ClientID = id
		count, err := s.InvoiceRepo.Count(txCtx, filter)
		if err != nil {
			return err
		}
		if count > 0 {
			return ierr.NewError("client has invoices").
				WithHint("Client cannot be deleted because it has invoices").
				WithReportableDetails(map[string]any{
					"client_id": id,
					"invoices":  count,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		if err := s.ClientRepo.Delete(txCtx, id); err != nil {
			return err
		}
		s.Logger.Infow("client deleted", "client_id", id)
		return nil
	})
}

func (s *clientService) ListClientInvoices(ctx context.Context, id string, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if _, err := s.ClientRepo.Get(ctx, id); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	filter.ClientID = id
	return NewInvoiceService(s.ServiceParams).ListInvoices(ctx, filter)
}
