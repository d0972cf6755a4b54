package core

import (
	"context"
	"math/big"
	"sync"

	"github.com/defi-org-code/dotc/internal/data"
	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// AmountConverter resolves a source amount into a target amount along an
// asset path at the current market price. Untrusted: quotes are re-derived
// on every bid and never cached across state transitions.
type AmountConverter interface {
	Quote(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error)
}

// PathQuoter picks the path yielding the maximal output for amountIn among
// the candidates. Pure query.
type PathQuoter interface {
	BestPath(ctx context.Context, paths [][]common.Address, amountIn *big.Int) ([]common.Address, *big.Int, error)
}

// Transferor moves amount of asset between holders. A failure aborts the
// enclosing operation.
type Transferor interface {
	Transfer(ctx context.Context, asset, from, to common.Address, amount *big.Int) error
}

// BlockSource is the ledger's monotonic block counter. *ethclient.Client
// satisfies it directly.
type BlockSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

type Protocol struct {
	TakerFeeBps         int64
	PendingPeriodBlocks uint64
	FeeRecipient        common.Address
	Connectors          []common.Address
}

// Engine is the order/bid/fill state machine. All entry points serialize on
// one mutex: the spec's execution model is a single serialized ledger, and
// the submission order to that mutex is the total order of transitions.
type Engine struct {
	log       *logan.Entry
	orders    data.Orders
	converter AmountConverter
	quoter    PathQuoter
	transfer  Transferor
	chain     BlockSource
	protocol  Protocol

	mu sync.Mutex
}

func New(
	log *logan.Entry,
	orders data.Orders,
	converter AmountConverter,
	quoter PathQuoter,
	transfer Transferor,
	chain BlockSource,
	protocol Protocol,
) *Engine {
	return &Engine{
		log:       log.WithField("service", "core"),
		orders:    orders,
		converter: converter,
		quoter:    quoter,
		transfer:  transfer,
		chain:     chain,
		protocol:  protocol,
	}
}

// Order returns a single order by id.
func (e *Engine) Order(ctx context.Context, id int64) (*data.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.getOrder(id)
}

// Orders enumerates all orders in creation order.
func (e *Engine) Orders(ctx context.Context) ([]data.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list, err := e.orders.Select()
	return list, errors.Wrap(err, "failed to select orders")
}

func (e *Engine) getOrder(id int64) (*data.Order, error) {
	o, err := e.orders.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get order")
	}
	if o == nil {
		return nil, errors.From(ErrOrderNotFound, logan.F{"order_id": id})
	}
	return o, nil
}

func (e *Engine) blockNumber(ctx context.Context) (uint64, error) {
	n, err := e.chain.BlockNumber(ctx)
	return n, errors.Wrap(err, "failed to get current block number")
}
