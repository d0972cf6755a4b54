package core

import (
	"context"
	"math/big"

	"github.com/defi-org-code/dotc/internal/data"
	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const bpsDivisor = 10_000

// BidParams carries a taker's claim on an order's active chunk. Path,
// DstAmount and Fee are optional: an empty path is resolved to the best one
// through the protocol's connector assets, a nil DstAmount is quoted fresh
// along the path, a nil Fee defaults to the protocol proportion of the
// quoted amount.
type BidParams struct {
	Taker     common.Address
	Path      []common.Address
	DstAmount *big.Int
	Fee       *big.Int
}

// Bid admits or rejects a claim on the order's active chunk. With no pending
// bid any valid bid is accepted; a pending bid is displaced only by a
// strictly higher net amount to the maker. Displacement restarts the pending
// period and leaves no trace of the displaced taker.
func (e *Engine) Bid(ctx context.Context, orderID int64, params BidParams) (*data.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, err := e.getOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.FullyFilled() {
		return nil, errors.From(ErrOrderFullyFilled, logan.F{"order_id": orderID})
	}

	remaining := order.RemainingInChunk()

	path, dstAmount, err := e.resolveQuote(ctx, order, params, remaining)
	if err != nil {
		return nil, err
	}

	fee, err := deriveFee(dstAmount, params.Fee, e.protocol.TakerFeeBps)
	if err != nil {
		return nil, err
	}

	net := new(big.Int).Sub(dstAmount, fee)
	if order.Bid != nil && net.Cmp(order.Bid.Net()) <= 0 {
		return nil, errors.From(ErrBidNotCompetitive, logan.F{
			"order_id":    orderID,
			"net":         net.String(),
			"pending_net": order.Bid.Net().String(),
		})
	}

	block, err := e.blockNumber(ctx)
	if err != nil {
		return nil, err
	}

	displaced := order.Bid != nil
	order.Bid = &data.Bid{
		Taker:         params.Taker,
		Path:          path,
		DstAmount:     dstAmount,
		Fee:           fee,
		PlacedAtBlock: block,
	}

	if err := e.orders.Update(*order); err != nil {
		return nil, errors.Wrap(err, "failed to update order")
	}

	e.log.WithFields(logan.F{
		"order_id":   orderID,
		"taker":      params.Taker.String(),
		"dst_amount": dstAmount.String(),
		"fee":        fee.String(),
		"block":      block,
		"displaced":  displaced,
	}).Info("bid accepted")

	return order, nil
}

// resolveQuote prices the remaining chunk amount: best-path search when the
// caller chose no path, a fresh quote when the caller chose no amount.
func (e *Engine) resolveQuote(
	ctx context.Context, order *data.Order, params BidParams, remaining *big.Int,
) ([]common.Address, *big.Int, error) {
	if len(params.Path) == 0 {
		if params.DstAmount != nil {
			return nil, nil, errors.Wrap(ErrInvalidBid, "explicit amount requires an explicit path")
		}
		candidates := CandidatePaths(order.SrcAsset, order.DstAsset, e.protocol.Connectors)
		path, out, err := e.quoter.BestPath(ctx, candidates, remaining)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to resolve best path")
		}
		if out == nil || out.Sign() <= 0 {
			return nil, nil, errors.Wrap(ErrInvalidBid, "resolver returned a non-positive quote")
		}
		return path, out, nil
	}

	if err := validatePath(params.Path, order.SrcAsset, order.DstAsset); err != nil {
		return nil, nil, err
	}

	dstAmount := params.DstAmount
	if dstAmount == nil {
		var err error
		dstAmount, err = e.converter.Quote(ctx, remaining, params.Path)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to quote chunk amount")
		}
	}
	if dstAmount == nil || dstAmount.Sign() <= 0 {
		return nil, nil, errors.Wrap(ErrInvalidBid, "target amount must be positive")
	}
	return params.Path, new(big.Int).Set(dstAmount), nil
}

func validatePath(path []common.Address, srcAsset, dstAsset common.Address) error {
	if len(path) < 2 || path[0] != srcAsset || path[len(path)-1] != dstAsset {
		return errors.Wrap(ErrInvalidPath, "path must lead from the source asset to the target asset")
	}
	return nil
}

func deriveFee(dstAmount, explicit *big.Int, feeBps int64) (*big.Int, error) {
	if explicit == nil {
		fee := new(big.Int).Mul(dstAmount, big.NewInt(feeBps))
		return fee.Div(fee, big.NewInt(bpsDivisor)), nil
	}
	if explicit.Sign() < 0 || explicit.Cmp(dstAmount) >= 0 {
		return nil, errors.Wrap(ErrInvalidBid, "fee must be non-negative and below the target amount")
	}
	return new(big.Int).Set(explicit), nil
}
