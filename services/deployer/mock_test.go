package deployer

import (
	"context"

	"github.com/kilnforge/kiln/client"
	"github.com/kilnforge/kiln/internal/types"
)

// clientMock implements client.Client with per-method function fields.
type clientMock struct {
	StatusFunc       func(ctx context.Context) (*client.Status, error)
	GenesisFunc      func(ctx context.Context) (*client.Genesis, error)
	GetAccountFunc   func(ctx context.Context, addr types.Address) (*types.Account, error)
	GetCodeFunc      func(ctx context.Context, addr types.Address) ([]byte, error)
	BroadcastTxFunc  func(ctx context.Context, tx *types.SignedTransaction) (*types.Receipt, error)
	SimulateCallFunc func(ctx context.Context, from, to types.Address, data []byte) ([]byte, error)
}

var _ client.Client = (*clientMock)(nil)

func (m *clientMock) Status(ctx context.Context) (*client.Status, error) {
	return m.StatusFunc(ctx)
}

func (m *clientMock) Genesis(ctx context.Context) (*client.Genesis, error) {
	return m.GenesisFunc(ctx)
}

func (m *clientMock) GetAccount(ctx context.Context, addr types.Address) (*types.Account, error) {
	return m.GetAccountFunc(ctx, addr)
}

func (m *clientMock) GetCode(ctx context.Context, addr types.Address) ([]byte, error) {
	return m.GetCodeFunc(ctx, addr)
}

func (m *clientMock) BroadcastTx(ctx context.Context, tx *types.SignedTransaction) (*types.Receipt, error) {
	return m.BroadcastTxFunc(ctx, tx)
}

func (m *clientMock) SimulateCall(ctx context.Context, from, to types.Address, data []byte) ([]byte, error) {
	return m.SimulateCallFunc(ctx, from, to, data)
}
