package data

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type Orders interface {
	Insert(Order) (int64, error)
	Get(id int64) (*Order, error)
	Update(Order) error
	Select() ([]Order, error)
}

// Order is a maker's offer of TotalSrcAmount of SrcAsset, released to takers
// in chunks of ChunkSrcAmount. TotalSrcAmount need not be a multiple of
// ChunkSrcAmount; the last chunk settles whatever remainder is left.
type Order struct {
	ID       int64
	Maker    common.Address
	SrcAsset common.Address
	DstAsset common.Address

	TotalSrcAmount *big.Int
	ChunkSrcAmount *big.Int
	// DstRefAmount is the maker's reference price, expressed as the target
	// amount expected for the full TotalSrcAmount. Informational only, bids
	// are always priced against a fresh quote.
	DstRefAmount *big.Int

	FilledSrcAmount *big.Int
	FilledDstAmount *big.Int

	CreatedAtBlock uint64

	// Bid is the pending bid on the currently active chunk, nil when the
	// order is open for an unconditional bid.
	Bid *Bid
}

// Bid is a taker's claim on the order's active chunk. An order holds at most
// one; a displaced bid is overwritten, not archived.
type Bid struct {
	Taker         common.Address
	Path          []common.Address
	DstAmount     *big.Int
	Fee           *big.Int
	PlacedAtBlock uint64
}

// Net is the target amount the maker receives if this bid settles.
func (b Bid) Net() *big.Int {
	return new(big.Int).Sub(b.DstAmount, b.Fee)
}

func (b Bid) Clone() *Bid {
	c := Bid{
		Taker:         b.Taker,
		Path:          make([]common.Address, len(b.Path)),
		DstAmount:     new(big.Int).Set(b.DstAmount),
		Fee:           new(big.Int).Set(b.Fee),
		PlacedAtBlock: b.PlacedAtBlock,
	}
	copy(c.Path, b.Path)
	return &c
}

func (o Order) RemainingSrcAmount() *big.Int {
	return new(big.Int).Sub(o.TotalSrcAmount, o.FilledSrcAmount)
}

// RemainingInChunk is the source amount still owed for the active chunk:
// min(ChunkSrcAmount, TotalSrcAmount-FilledSrcAmount). Bidding and settlement
// must both use it so a quoted bid never mismatches the settled amount.
func (o Order) RemainingInChunk() *big.Int {
	remaining := o.RemainingSrcAmount()
	if remaining.Cmp(o.ChunkSrcAmount) < 0 {
		return remaining
	}
	return new(big.Int).Set(o.ChunkSrcAmount)
}

func (o Order) FullyFilled() bool {
	return o.FilledSrcAmount.Cmp(o.TotalSrcAmount) >= 0
}

// Clone returns a deep copy so callers can mutate freely before an Update.
func (o Order) Clone() Order {
	c := o
	c.TotalSrcAmount = new(big.Int).Set(o.TotalSrcAmount)
	c.ChunkSrcAmount = new(big.Int).Set(o.ChunkSrcAmount)
	c.DstRefAmount = new(big.Int).Set(o.DstRefAmount)
	c.FilledSrcAmount = new(big.Int).Set(o.FilledSrcAmount)
	c.FilledDstAmount = new(big.Int).Set(o.FilledDstAmount)
	if o.Bid != nil {
		c.Bid = o.Bid.Clone()
	}
	return c
}
