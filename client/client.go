package client

import (
	"context"

	"github.com/kilnforge/kiln/internal/types"
)

// Status is the node's chain status snapshot.
type Status struct {
	LatestBlockHeight uint64 `json:"latest_block_height"`
}

// Genesis carries the subset of the genesis document the orchestrator
// needs: the chain identifier included in every signed payload.
type Genesis struct {
	ChainID string `json:"chain_id"`
}

// Client is the node RPC surface the orchestrator depends on.
// Note: this interface is designed for the node's HTTP/JSON-RPC transport.
// Extending support for other protocols would require extending it.
type Client interface {
	// Status returns the node's current chain status.
	Status(ctx context.Context) (*Status, error)

	// Genesis returns the chain's genesis information.
	Genesis(ctx context.Context) (*Genesis, error)

	// GetAccount returns the on-chain state of an address. An account that
	// has never transacted is a valid zero-sequence account, not an error.
	GetAccount(ctx context.Context, addr types.Address) (*types.Account, error)

	// GetCode returns the code stored at a contract address.
	GetCode(ctx context.Context, addr types.Address) ([]byte, error)

	// BroadcastTx submits a signed transaction. The returned receipt is an
	// acceptance acknowledgment, not confirmation of inclusion in a block.
	BroadcastTx(ctx context.Context, tx *types.SignedTransaction) (*types.Receipt, error)

	// SimulateCall performs a read-only contract invocation that neither
	// produces a transaction nor mutates chain state.
	SimulateCall(ctx context.Context, from, to types.Address, data []byte) ([]byte, error)
}
