package service

import (
	"context"
	"time"

	"github.com/defi-org-code/dotc/internal/core"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"gitlab.com/distributed_lab/running"
)

// runKeeper periodically settles every pending bid whose challenge period
// has elapsed. Anyone may call fill; the keeper is the built-in anyone, so
// orders progress even when no taker bothers to settle its own bid.
func (s *service) runKeeper(ctx context.Context, period time.Duration) {
	running.WithBackOff(ctx, s.log, "keeper", s.settleElapsed, period, period, time.Minute)
}

func (s *service) settleElapsed(ctx context.Context) error {
	orders, err := s.engine.Orders(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list orders")
	}

	for _, order := range orders {
		if order.Bid == nil {
			continue
		}

		log := s.log.WithField("order_id", order.ID)
		if _, err := s.engine.Fill(ctx, order.ID); err != nil {
			switch errors.Cause(err) {
			case core.ErrPendingPeriodNotElapsed, core.ErrNoPendingBid:
				// Not settleable yet, or a taker beat us to it.
			default:
				log.WithError(err).Error("failed to fill order")
			}
			continue
		}
		log.Info("keeper filled order")
	}

	return nil
}
