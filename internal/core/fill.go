package core

import (
	"context"
	"math/big"

	"github.com/defi-org-code/dotc/internal/data"
	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type transferLeg struct {
	asset  common.Address
	from   common.Address
	to     common.Address
	amount *big.Int
}

// Fill settles the pending bid once its pending period has elapsed: the
// taker pays the quoted target amount (net to the maker, fee to the protocol
// sink), receives the chunk's source amount, and the bid slot clears so the
// next chunk opens for bidding. A failing transfer leg aborts the whole fill
// with no state change.
func (e *Engine) Fill(ctx context.Context, orderID int64) (*data.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, err := e.getOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Bid == nil {
		return nil, errors.From(ErrNoPendingBid, logan.F{"order_id": orderID})
	}

	block, err := e.blockNumber(ctx)
	if err != nil {
		return nil, err
	}
	if block < order.Bid.PlacedAtBlock+e.protocol.PendingPeriodBlocks {
		return nil, errors.From(ErrPendingPeriodNotElapsed, logan.F{
			"order_id":  orderID,
			"placed_at": order.Bid.PlacedAtBlock,
			"block":     block,
		})
	}

	chunk := order.RemainingInChunk()
	net := order.Bid.Net()

	// Taker pays first so a broke taker can never walk away with the chunk.
	legs := []transferLeg{
		{asset: order.DstAsset, from: order.Bid.Taker, to: order.Maker, amount: net},
		{asset: order.DstAsset, from: order.Bid.Taker, to: e.protocol.FeeRecipient, amount: order.Bid.Fee},
		{asset: order.SrcAsset, from: order.Maker, to: order.Bid.Taker, amount: chunk},
	}
	if err := e.applyTransfers(ctx, legs); err != nil {
		return nil, err
	}

	taker := order.Bid.Taker
	order.FilledSrcAmount.Add(order.FilledSrcAmount, chunk)
	order.FilledDstAmount.Add(order.FilledDstAmount, net)
	order.Bid = nil

	if err := e.orders.Update(*order); err != nil {
		e.revertTransfers(ctx, legs)
		return nil, errors.Wrap(err, "failed to update order")
	}

	e.log.WithFields(logan.F{
		"order_id":     orderID,
		"taker":        taker.String(),
		"chunk_src":    chunk.String(),
		"net_dst":      net.String(),
		"filled_src":   order.FilledSrcAmount.String(),
		"fully_filled": order.FullyFilled(),
	}).Info("chunk filled")

	return order, nil
}

// applyTransfers executes legs in order and compensates the already-applied
// ones when a later leg fails, so the fill has no partial transfer.
func (e *Engine) applyTransfers(ctx context.Context, legs []transferLeg) error {
	for i, leg := range legs {
		if leg.amount.Sign() == 0 {
			continue
		}
		if err := e.transfer.Transfer(ctx, leg.asset, leg.from, leg.to, leg.amount); err != nil {
			e.revertTransfers(ctx, legs[:i])
			return errors.Wrap(err, "failed to transfer", logan.F{
				"asset":  leg.asset.String(),
				"from":   leg.from.String(),
				"to":     leg.to.String(),
				"amount": leg.amount.String(),
			})
		}
	}
	return nil
}

func (e *Engine) revertTransfers(ctx context.Context, applied []transferLeg) {
	for i := len(applied) - 1; i >= 0; i-- {
		leg := applied[i]
		if leg.amount.Sign() == 0 {
			continue
		}
		if err := e.transfer.Transfer(ctx, leg.asset, leg.to, leg.from, leg.amount); err != nil {
			// Funds were just moved to the reversing side, so this can only
			// fail against an external transferor misbehaving.
			e.log.WithError(err).WithFields(logan.F{
				"asset": leg.asset.String(),
				"to":    leg.from.String(),
			}).Error("failed to compensate transfer leg")
		}
	}
}
