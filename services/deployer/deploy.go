package deployer

import (
	"context"

	"github.com/kilnforge/kiln/common/logging"
	"github.com/kilnforge/kiln/internal/callenc"
	"github.com/kilnforge/kiln/internal/registry"
	"github.com/kilnforge/kiln/internal/types"
	"github.com/kilnforge/kiln/services/compile"
	"golang.org/x/sync/errgroup"
)

// DeployResult describes one completed (or pending) deployment. Confirmed
// is false when the confirmation wait timed out; the registry then already
// holds the deployed address, so verification can be resumed later instead
// of re-deploying.
type DeployResult struct {
	Name      string
	TxHash    string
	Address   types.Address
	Confirmed bool
	Verify    VerifyResult
}

// Deploy compiles the source, deploys the resulting bytecode, waits for
// confirmation, and verifies the on-chain code. The registry record is
// written only after the node accepts the broadcast; compile, sign, and
// broadcast failures leave no partial state behind.
func (s *Service) Deploy(ctx context.Context, source string) (*DeployResult, error) {
	name, err := compile.ParseContractName(source)
	if err != nil {
		return nil, err
	}

	artifact, err := s.compiler.Compile(ctx, name, source)
	if err != nil {
		return nil, err
	}
	return s.deployArtifact(ctx, artifact)
}

func (s *Service) deployArtifact(ctx context.Context, artifact *compile.Artifact) (*DeployResult, error) {
	logger := s.logger.With().Str(logging.FieldContractName, artifact.Name).Logger()

	// Parse the interface description up front so a malformed ABI fails the
	// deployment before anything reaches the chain.
	if _, err := callenc.ParseInterface(artifact.ABI); err != nil {
		return nil, err
	}

	receipt, err := s.signAndBroadcast(ctx, types.EmptyAddress, 0, artifact.Bytecode)
	if err != nil {
		return nil, err
	}

	// Persist before waiting: if confirmation times out, the record still
	// carries the deployed address from the broadcast receipt and the
	// deployment can be picked up later.
	rec := &registry.Record{
		Name:            artifact.Name,
		ABI:             artifact.ABI,
		DeployerAddress: s.cfg.Address,
	}
	if err := s.store.Put(rec); err != nil {
		return nil, err
	}
	if err := s.store.SetDeployedAddress(artifact.Name, receipt.ContractAddress); err != nil {
		return nil, err
	}

	result := &DeployResult{
		Name:    artifact.Name,
		TxHash:  receipt.TxHash,
		Address: receipt.ContractAddress,
	}

	if err := s.AwaitConfirmation(ctx); err != nil {
		logger.Warn().Err(err).Msg("Deployment not confirmed; registry record is recoverable")
		return result, err
	}
	result.Confirmed = true

	deployed, err := s.node.GetCode(ctx, receipt.ContractAddress)
	if err != nil {
		return result, err
	}
	result.Verify = VerifyCode(deployed, artifact.Bytecode)
	if !result.Verify.Match {
		// The transaction is final on-chain; a mismatch is reported, never
		// thrown.
		logger.Warn().
			Str(logging.FieldContractAddress, receipt.ContractAddress.Hex()).
			Str("deployedCode", result.Verify.DeployedHex()).
			Str("submittedCode", result.Verify.SubmittedHex()).
			Msg("Deployed bytecode does not match submitted bytecode")
	} else {
		logger.Info().
			Str(logging.FieldContractAddress, receipt.ContractAddress.Hex()).
			Msg("Contract deployed and verified")
	}

	return result, nil
}

// DeployAll deploys several contract sources. Compilation runs concurrently
// per contract; the deployments themselves run sequentially because they
// share the sender account, whose sequence would race between in-flight
// transactions.
func (s *Service) DeployAll(ctx context.Context, sources []string) ([]*DeployResult, error) {
	artifacts := make([]*compile.Artifact, len(sources))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, source := range sources {
		i, source := i, source
		eg.Go(func() error {
			name, err := compile.ParseContractName(source)
			if err != nil {
				return err
			}
			artifact, err := s.compiler.Compile(egCtx, name, source)
			if err != nil {
				return err
			}
			artifacts[i] = artifact
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	results := make([]*DeployResult, len(artifacts))
	for i, artifact := range artifacts {
		res, err := s.deployArtifact(ctx, artifact)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}
