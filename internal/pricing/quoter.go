package pricing

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type converter interface {
	Quote(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error)
}

// Quoter searches a set of candidate paths for the one yielding the maximal
// output. Individual paths are allowed to fail (a hop without a pool), the
// search only errors when no path quotes at all.
type Quoter struct {
	log       *logan.Entry
	converter converter
}

func NewQuoter(log *logan.Entry, c converter) *Quoter {
	return &Quoter{
		log:       log.WithField("service", "quoter"),
		converter: c,
	}
}

func (q *Quoter) BestPath(
	ctx context.Context, paths [][]common.Address, amountIn *big.Int,
) ([]common.Address, *big.Int, error) {
	var (
		bestPath []common.Address
		bestOut  *big.Int
	)

	for _, path := range paths {
		out, err := q.converter.Quote(ctx, amountIn, path)
		if err != nil {
			q.log.WithError(err).WithField("path", formatPath(path)).
				Debug("path produced no quote, skipping it")
			continue
		}
		if bestOut == nil || out.Cmp(bestOut) > 0 {
			bestPath, bestOut = path, out
		}
	}

	if bestOut == nil {
		return nil, nil, errors.New("no candidate path produced a quote")
	}
	return bestPath, bestOut, nil
}

func formatPath(path []common.Address) string {
	s := ""
	for i, hop := range path {
		if i > 0 {
			s += "->"
		}
		s += hop.Hex()
	}
	return s
}
