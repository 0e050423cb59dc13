package deployer

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/kilnforge/kiln/common/logging"
	"github.com/kilnforge/kiln/internal/callenc"
	"github.com/kilnforge/kiln/internal/registry"
)

// CallResult is the outcome of a contract invocation. TxHash is empty for
// the simulated (read-only) path. Value is nil when the function declares
// no return value.
type CallResult struct {
	Name   string
	Method string
	TxHash string
	Value  *uint256.Int
}

// Call invokes a registered contract's function through a broadcast
// transaction, waits for confirmation, and reads the result back through a
// simulated call against the confirmed state.
func (s *Service) Call(
	ctx context.Context, name, method string, args []string, amount uint64,
) (*CallResult, error) {
	rec, iface, data, err := s.prepareCall(name, method, args)
	if err != nil {
		return nil, err
	}

	receipt, err := s.signAndBroadcast(ctx, rec.DeployedAddress, amount, data)
	if err != nil {
		return nil, err
	}
	if err := s.AwaitConfirmation(ctx); err != nil {
		return nil, err
	}

	ret, err := s.node.SimulateCall(ctx, s.cfg.Address, rec.DeployedAddress, data)
	if err != nil {
		return nil, err
	}
	value, err := iface.DecodeReturn(method, ret)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str(logging.FieldContractName, name).
		Str(logging.FieldMethod, method).
		Str(logging.FieldTxHash, receipt.TxHash).
		Msg("Contract call confirmed")

	return &CallResult{
		Name:   name,
		Method: method,
		TxHash: receipt.TxHash,
		Value:  value,
	}, nil
}

// CallReadonly invokes a registered contract's function through the node's
// simulated-call endpoint. No transaction is produced and no chain state
// changes.
func (s *Service) CallReadonly(
	ctx context.Context, name, method string, args []string,
) (*CallResult, error) {
	rec, iface, data, err := s.prepareCall(name, method, args)
	if err != nil {
		return nil, err
	}

	ret, err := s.node.SimulateCall(ctx, s.cfg.Address, rec.DeployedAddress, data)
	if err != nil {
		return nil, err
	}
	value, err := iface.DecodeReturn(method, ret)
	if err != nil {
		return nil, err
	}

	return &CallResult{
		Name:   name,
		Method: method,
		Value:  value,
	}, nil
}

// prepareCall resolves the contract record and encodes the call payload.
func (s *Service) prepareCall(
	name, method string, args []string,
) (*registry.Record, *callenc.Interface, []byte, error) {
	rec, err := s.store.Get(name)
	if err != nil {
		return nil, nil, nil, err
	}
	if rec.DeployedAddress.IsEmpty() {
		return nil, nil, nil, fmt.Errorf("contract %q has no deployed address yet", name)
	}

	iface, err := callenc.ParseInterface(rec.ABI)
	if err != nil {
		return nil, nil, nil, err
	}
	data, err := iface.EncodeCall(method, args)
	if err != nil {
		return nil, nil, nil, err
	}
	return rec, iface, data, nil
}
