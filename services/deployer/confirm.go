package deployer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilnforge/kiln/common"
	"github.com/kilnforge/kiln/common/logging"
)

// ErrConfirmationTimeout means the chain height did not advance within the
// configured wait. The transaction may still be confirmed later; callers
// should resume from the registry record rather than re-deploy.
var ErrConfirmationTimeout = errors.New("confirmation timeout")

// statusRetries bounds the transient-failure retries of a single height
// query inside the polling loop.
const statusRetries = 3

// AwaitConfirmation blocks until the chain's height advances past the
// height observed on entry, i.e. until at least one new block has been
// accepted since the broadcast. The wait is bounded by the configured
// PollTimeout (a wall-clock bound was chosen over a block-count bound
// because a stalled chain produces no blocks to count) and is cancellable
// through the context.
func (s *Service) AwaitConfirmation(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PollTimeout)
	defer cancel()

	retry := common.NewRetryRunner(common.RetryConfig{
		ShouldRetry: common.LimitRetries(statusRetries),
		NextDelay:   common.LinearDelay(s.cfg.PollInterval, 5*s.cfg.PollInterval),
	}, s.logger)

	height := func() (uint64, error) {
		var h uint64
		err := retry.Do(ctx, func(ctx context.Context) error {
			status, err := s.node.Status(ctx)
			if err != nil {
				// Transient unreachability is not non-confirmation.
				return err
			}
			h = status.LatestBlockHeight
			return nil
		})
		return h, err
	}

	h0, err := height()
	if err != nil {
		return confirmErr(err)
	}
	s.logger.Debug().Uint64(logging.FieldBlockHeight, h0).Msg("Awaiting height advance")

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return confirmErr(ctx.Err())
		case <-ticker.C:
			h, err := height()
			if err != nil {
				return confirmErr(err)
			}
			if h > h0 {
				s.logger.Debug().Uint64(logging.FieldBlockHeight, h).Msg("Confirmed")
				return nil
			}
		}
	}
}

func confirmErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrConfirmationTimeout
	}
	return fmt.Errorf("confirmation polling failed: %w", err)
}
