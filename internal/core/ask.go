package core

import (
	"context"
	"math/big"

	"github.com/defi-org-code/dotc/internal/data"
	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Ask creates a new order offering totalSrc of srcAsset in chunks of
// chunkSrc. dstRef is the maker's reference target amount for the full
// totalSrc; it never binds execution prices. No assets move at ask time,
// custody stays with the maker until chunks settle.
func (e *Engine) Ask(
	ctx context.Context,
	maker, srcAsset, dstAsset common.Address,
	totalSrc, chunkSrc, dstRef *big.Int,
) (*data.Order, error) {
	if err := validateAsk(srcAsset, dstAsset, totalSrc, chunkSrc, dstRef); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	block, err := e.blockNumber(ctx)
	if err != nil {
		return nil, err
	}

	order := data.Order{
		Maker:           maker,
		SrcAsset:        srcAsset,
		DstAsset:        dstAsset,
		TotalSrcAmount:  new(big.Int).Set(totalSrc),
		ChunkSrcAmount:  new(big.Int).Set(chunkSrc),
		DstRefAmount:    new(big.Int).Set(dstRef),
		FilledSrcAmount: new(big.Int),
		FilledDstAmount: new(big.Int),
		CreatedAtBlock:  block,
	}

	id, err := e.orders.Insert(order)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert order")
	}
	order.ID = id

	e.log.WithFields(logan.F{
		"order_id":  id,
		"maker":     maker.String(),
		"total_src": totalSrc.String(),
		"chunk_src": chunkSrc.String(),
	}).Info("order created")

	return &order, nil
}

func validateAsk(srcAsset, dstAsset common.Address, totalSrc, chunkSrc, dstRef *big.Int) error {
	switch {
	case totalSrc == nil || totalSrc.Sign() <= 0:
		return errors.Wrap(ErrInvalidOrder, "total source amount must be positive")
	case chunkSrc == nil || chunkSrc.Sign() <= 0:
		return errors.Wrap(ErrInvalidOrder, "chunk source amount must be positive")
	case chunkSrc.Cmp(totalSrc) > 0:
		return errors.Wrap(ErrInvalidOrder, "chunk source amount exceeds total")
	case srcAsset == dstAsset:
		return errors.Wrap(ErrInvalidOrder, "source and target assets must differ")
	case dstRef == nil || dstRef.Sign() <= 0:
		return errors.Wrap(ErrInvalidOrder, "reference target amount must be positive")
	}
	return nil
}
