package testutil

import (
	"context"
	"sync"

	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/postgres"
	"github.com/RiveraMg/MiaBot/internal/types"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

// Snapshotter is a store whose contents can be rolled back
type Snapshotter interface {
	Snapshot() func()
}

type mockTx struct {
	id    string
	depth int
}

// MockPostgresClient is a mock implementation of postgres client for testing.
// Transactions run one at a time, which stands in for the row locks, and a
// failed transaction or savepoint restores every registered store.
type MockPostgresClient struct {
	mu     sync.Mutex
	stores []Snapshotter
	logger *logger.Logger
}

// NewMockPostgresClient creates a new mock postgres client over the given stores
func NewMockPostgresClient(logger *logger.Logger, stores ...Snapshotter) *MockPostgresClient {
	return &MockPostgresClient{
		stores: stores,
		logger: logger,
	}
}

// WithTx executes the given function within a transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	// If we're already in a transaction, behave like a savepoint
	if tx, ok := ctx.Value(types.CtxDBTransaction).(*mockTx); ok {
		nested := &mockTx{id: tx.id, depth: tx.depth + 1}
		return c.run(context.WithValue(ctx, types.CtxDBTransaction, nested), nested, fn)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx := &mockTx{id: types.GenerateUUID()}
	return c.run(context.WithValue(ctx, types.CtxDBTransaction, tx), tx, fn)
}

func (c *MockPostgresClient) run(ctx context.Context, tx *mockTx, fn func(context.Context) error) (err error) {
	restores := make([]func(), 0, len(c.stores))
	for _, s := range c.stores {
		restores = append(restores, s.Snapshot())
	}
	rollback := func() {
		for _, restore := range restores {
			restore()
		}
	}

	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err = fn(ctx); err != nil {
		c.logger.Debugw("rolling back mock transaction", "tx_id", tx.id, "depth", tx.depth, "error", err)
		rollback()
	}
	return err
}

// InTx reports whether ctx carries a mock transaction
func (c *MockPostgresClient) InTx(ctx context.Context) bool {
	return InTx(ctx)
}

// InTx is used by the in-memory stores to reject row locks outside a transaction
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(types.CtxDBTransaction).(*mockTx)
	return ok
}
