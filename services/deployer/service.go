// Package deployer orchestrates contract deployment and invocation: it
// coordinates the compile service, the signing service, and the node, and
// records the outcome in the contract registry.
package deployer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilnforge/kiln/client"
	"github.com/kilnforge/kiln/common/logging"
	"github.com/kilnforge/kiln/internal/canonical"
	"github.com/kilnforge/kiln/internal/registry"
	"github.com/kilnforge/kiln/internal/types"
	"github.com/kilnforge/kiln/services/compile"
	"github.com/kilnforge/kiln/services/keysign"
	"github.com/rs/zerolog"
)

// Config carries the per-session parameters of the orchestrator. ChainID
// may be left empty, in which case it is discovered from the node's genesis
// on first use and then held constant for the session.
type Config struct {
	ChainID string

	// Address is the deployer account whose key the signing service holds.
	Address types.Address

	Fee      uint64
	GasLimit uint64

	// PollInterval is the fixed delay between confirmation queries;
	// PollTimeout bounds the whole confirmation wait (wall clock).
	PollInterval time.Duration
	PollTimeout  time.Duration
}

const (
	DefaultFee          = 1
	DefaultGasLimit     = 1_000_000
	DefaultPollInterval = time.Second
	DefaultPollTimeout  = 2 * time.Minute
)

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.Fee == 0 {
		cfg.Fee = DefaultFee
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = DefaultGasLimit
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	return cfg
}

// Service runs the deployment and invocation flows. Safe for concurrent use
// across different contracts; concurrent deployments from the same sender
// address race on the account sequence and are the caller's responsibility
// to serialize.
type Service struct {
	node     client.Client
	signer   *keysign.Client
	compiler *compile.Client
	store    *registry.Store
	cfg      Config
	logger   zerolog.Logger

	chainMu sync.Mutex
	chainID string
}

func NewService(
	node client.Client,
	signer *keysign.Client,
	compiler *compile.Client,
	store *registry.Store,
	cfg Config,
) *Service {
	return &Service{
		node:     node,
		signer:   signer,
		compiler: compiler,
		store:    store,
		cfg:      cfg.withDefaults(),
		logger:   logging.NewLogger("deployer"),
	}
}

// ChainID returns the configured chain identifier, discovering it from the
// node's genesis once if it was not configured.
func (s *Service) ChainID(ctx context.Context) (string, error) {
	s.chainMu.Lock()
	defer s.chainMu.Unlock()

	if s.chainID != "" {
		return s.chainID, nil
	}
	if s.cfg.ChainID != "" {
		s.chainID = s.cfg.ChainID
		return s.chainID, nil
	}

	genesis, err := s.node.Genesis(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to discover chain id: %w", err)
	}
	s.logger.Info().Str(logging.FieldChainId, genesis.ChainID).Msg("Chain id discovered from genesis")
	s.chainID = genesis.ChainID
	return s.chainID, nil
}

// signAndBroadcast drives the shared tail of every write path: read the
// sender's sequence, build the transaction, obtain signature and public key
// from the signing service, and submit. The steps are strictly sequential;
// each consumes the previous step's output.
func (s *Service) signAndBroadcast(
	ctx context.Context, recipient types.Address, amount uint64, payload []byte,
) (*types.Receipt, error) {
	account, err := s.node.GetAccount(ctx, s.cfg.Address)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Str(logging.FieldAccountAddress, account.Address.Hex()).
		Uint64(logging.FieldAccountSeqno, account.Sequence.Uint64()).
		Msg("Fetched account state")

	tx, err := types.NewCallTransaction(
		s.cfg.Address, recipient, amount, s.cfg.Fee, s.cfg.GasLimit, payload, account.Sequence)
	if err != nil {
		return nil, err
	}

	chainID, err := s.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	msgHex, err := canonical.SignHex(chainID, tx)
	if err != nil {
		return nil, err
	}

	signature, err := s.signer.Sign(ctx, msgHex, s.cfg.Address)
	if err != nil {
		return nil, err
	}
	pubKey, err := s.signer.PublicKey(ctx, s.cfg.Address)
	if err != nil {
		return nil, err
	}

	receipt, err := s.node.BroadcastTx(ctx, tx.Signed(pubKey, signature))
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str(logging.FieldTxHash, receipt.TxHash).
		Uint64(logging.FieldTxSeqno, tx.Sequence.Uint64()).
		Msg("Transaction broadcast accepted")
	return receipt, nil
}
