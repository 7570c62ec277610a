package testutil

import (
	"context"
	"strings"
	"time"

	"github.com/RiveraMg/MiaBot/internal/domain/client"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/samber/lo"
)

// InMemoryClientStore implements client.Repository
type InMemoryClientStore struct {
	*InMemoryStore[*client.Client]
}

func NewInMemoryClientStore() *InMemoryClientStore {
	return &InMemoryClientStore{
		InMemoryStore: NewInMemoryStore(func(c *client.Client) *client.Client {
			if c == nil {
				return nil
			}
			cp := *c
			return &cp
		}),
	}
}

func clientFilterFn(filter *types.ClientFilter) FilterFunc[*client.Client] {
	return func(ctx context.Context, c *client.Client) bool {
		if !tenantMatches(ctx, c.BaseModel) {
			return false
		}
		if filter == nil {
			return true
		}
		if len(filter.ClientIDs) > 0 && !lo.Contains(filter.ClientIDs, c.ID) {
			return false
		}
		if filter.ActiveOnly && !c.IsActive {
			return false
		}
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			return lo.SomeBy([]string{c.Name, c.TaxID, c.Email}, func(v string) bool {
				return strings.Contains(strings.ToLower(v), q)
			})
		}
		return true
	}
}

func (s *InMemoryClientStore) Create(ctx context.Context, c *client.Client) error {
	return s.InMemoryStore.Create(ctx, c.ID, c)
}

func (s *InMemoryClientStore) Get(ctx context.Context, id string) (*client.Client, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !tenantMatches(ctx, c.BaseModel) {
		return nil, ierr.NewErrorf("client %s not found", id).
			WithHintf("client %s not found", id).
			WithReportableDetails(map[string]any{"entity": "client", "id": id}).
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (s *InMemoryClientStore) List(ctx context.Context, filter *types.ClientFilter) ([]*client.Client, error) {
	var qf *types.QueryFilter
	if filter != nil {
		qf = filter.QueryFilter
	}
	return s.InMemoryStore.List(ctx, qf, clientFilterFn(filter), func(i, j *client.Client) bool {
		if i.Name != j.Name {
			return i.Name < j.Name
		}
		return i.ID < j.ID
	})
}

func (s *InMemoryClientStore) Count(ctx context.Context, filter *types.ClientFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, clientFilterFn(filter))
}

func (s *InMemoryClientStore) Update(ctx context.Context, c *client.Client) error {
	if _, err := s.Get(ctx, c.ID); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()
	c.UpdatedBy = types.GetUserID(ctx)
	return s.InMemoryStore.Update(ctx, c.ID, c)
}

func (s *InMemoryClientStore) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	c.Status = types.StatusDeleted
	c.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, id, c)
}
