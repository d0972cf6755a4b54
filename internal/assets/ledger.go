package assets

import (
	"context"
	"math/big"
	"sync"

	"github.com/defi-org-code/dotc/internal/core"
	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Ledger is an in-process balance book implementing the transfer primitive.
// It is the custody backend for single-node runs and the deterministic
// transferor in tests.
type Ledger struct {
	log *logan.Entry

	mu       sync.Mutex
	balances map[common.Address]map[common.Address]*big.Int
}

func NewLedger(log *logan.Entry) *Ledger {
	return &Ledger{
		log:      log.WithField("service", "ledger"),
		balances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Mint credits holder with amount of asset out of thin air. Funding entry
// point, not part of the Transferor contract.
func (l *Ledger) Mint(asset, holder common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.balance(asset, holder)
	b.Add(b, amount)
}

func (l *Ledger) Balance(asset, holder common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balance(asset, holder))
}

func (l *Ledger) Transfer(ctx context.Context, asset, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.Wrap(core.ErrTransferRejected, "amount must be positive")
	}
	if from == to {
		return errors.Wrap(core.ErrTransferRejected, "sender and recipient must differ")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	src := l.balance(asset, from)
	if src.Cmp(amount) < 0 {
		return errors.From(core.ErrInsufficientBalance, logan.F{
			"asset":   asset.String(),
			"holder":  from.String(),
			"balance": src.String(),
			"amount":  amount.String(),
		})
	}

	src.Sub(src, amount)
	dst := l.balance(asset, to)
	dst.Add(dst, amount)
	return nil
}

// balance returns the mutable balance cell, creating it at zero. Callers
// hold l.mu.
func (l *Ledger) balance(asset, holder common.Address) *big.Int {
	book, ok := l.balances[asset]
	if !ok {
		book = make(map[common.Address]*big.Int)
		l.balances[asset] = book
	}
	b, ok := book[holder]
	if !ok {
		b = new(big.Int)
		book[holder] = b
	}
	return b
}
