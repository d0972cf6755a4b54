package core_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/defi-org-code/dotc/internal/assets"
	"github.com/defi-org-code/dotc/internal/core"
	"github.com/defi-org-code/dotc/internal/data/mem"
	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	maker   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	takerA  = common.HexToAddress("0x1000000000000000000000000000000000000002")
	takerB  = common.HexToAddress("0x1000000000000000000000000000000000000003")
	feeSink = common.HexToAddress("0x1000000000000000000000000000000000000004")
	srcTkn  = common.HexToAddress("0x2000000000000000000000000000000000000001")
	dstTkn  = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

// fakeChain is a manual block counter.
type fakeChain struct {
	n uint64
}

func (c *fakeChain) BlockNumber(ctx context.Context) (uint64, error) {
	return c.n, nil
}

func (c *fakeChain) mine(blocks uint64) {
	c.n += blocks
}

// fakeConverter quotes amountIn*num/den regardless of path, standing in for
// the external exchange.
type fakeConverter struct {
	num, den int64
}

func (f *fakeConverter) Quote(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	out := new(big.Int).Mul(amountIn, big.NewInt(f.num))
	return out.Div(out, big.NewInt(f.den)), nil
}

// fakeQuoter returns a fixed choice.
type fakeQuoter struct {
	path []common.Address
	out  *big.Int
	err  error
}

func (f *fakeQuoter) BestPath(ctx context.Context, paths [][]common.Address, amountIn *big.Int) ([]common.Address, *big.Int, error) {
	return f.path, f.out, f.err
}

type fixture struct {
	engine *core.Engine
	chain  *fakeChain
	conv   *fakeConverter
	quoter *fakeQuoter
	ledger *assets.Ledger
}

func newFixture() *fixture {
	log := logan.New()
	f := &fixture{
		chain:  &fakeChain{n: 1},
		conv:   &fakeConverter{num: 1, den: 1},
		quoter: &fakeQuoter{},
		ledger: assets.NewLedger(log),
	}
	f.engine = core.New(log, mem.NewOrders(), f.conv, f.quoter, f.ledger, f.chain, core.Protocol{
		TakerFeeBps:         100,
		PendingPeriodBlocks: 10,
		FeeRecipient:        feeSink,
	})
	return f
}

func (f *fixture) ask(t *testing.T, total, chunk int64) int64 {
	t.Helper()
	order, err := f.engine.Ask(context.Background(), maker, srcTkn, dstTkn,
		big.NewInt(total), big.NewInt(chunk), big.NewInt(total))
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	f.ledger.Mint(srcTkn, maker, big.NewInt(total))
	return order.ID
}

func (f *fixture) bid(t *testing.T, orderID int64, taker common.Address) {
	t.Helper()
	_, err := f.engine.Bid(context.Background(), orderID, core.BidParams{
		Taker: taker,
		Path:  []common.Address{srcTkn, dstTkn},
	})
	if err != nil {
		t.Fatalf("bid failed: %v", err)
	}
}

func (f *fixture) fill(t *testing.T, orderID int64) {
	t.Helper()
	if _, err := f.engine.Fill(context.Background(), orderID); err != nil {
		t.Fatalf("fill failed: %v", err)
	}
}

func (f *fixture) fund(taker common.Address, amount int64) {
	f.ledger.Mint(dstTkn, taker, big.NewInt(amount))
}

func (f *fixture) expectFilled(t *testing.T, orderID, wantSrc, wantDst int64) {
	t.Helper()
	order, err := f.engine.Order(context.Background(), orderID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if order.FilledSrcAmount.Cmp(big.NewInt(wantSrc)) != 0 {
		t.Errorf("filled src = %s, want %d", order.FilledSrcAmount, wantSrc)
	}
	if order.FilledDstAmount.Cmp(big.NewInt(wantDst)) != 0 {
		t.Errorf("filled dst = %s, want %d", order.FilledDstAmount, wantDst)
	}
}

func expectCause(t *testing.T, err, want error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil", want)
	}
	if errors.Cause(err) != want {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestSingleChunkFill(t *testing.T) {
	f := newFixture()
	id := f.ask(t, 2000, 2000)
	f.fund(takerA, 2000)

	f.bid(t, id, takerA)
	f.chain.mine(10)
	f.fill(t, id)

	// 1% of the 2000 quote goes to the fee sink.
	f.expectFilled(t, id, 2000, 1980)

	if got := f.ledger.Balance(srcTkn, takerA); got.Cmp(big.NewInt(2000)) != 0 {
		t.Errorf("taker src balance = %s, want 2000", got)
	}
	if got := f.ledger.Balance(dstTkn, maker); got.Cmp(big.NewInt(1980)) != 0 {
		t.Errorf("maker dst balance = %s, want 1980", got)
	}
	if got := f.ledger.Balance(dstTkn, feeSink); got.Cmp(big.NewInt(20)) != 0 {
		t.Errorf("fee sink balance = %s, want 20", got)
	}

	order, _ := f.engine.Order(context.Background(), id)
	if !order.FullyFilled() {
		t.Error("order should be fully filled")
	}
	if order.Bid != nil {
		t.Error("bid slot should be cleared after fill")
	}
}

func TestMultipleChunks(t *testing.T) {
	f := newFixture()
	id := f.ask(t, 10_000, 2500)
	f.fund(takerA, 10_000)

	for i := int64(1); i <= 4; i++ {
		f.bid(t, id, takerA)
		f.chain.mine(10)
		f.fill(t, id)
		f.expectFilled(t, id, 2500*i, 2475*i)

		f.chain.mine(60)
	}

	f.expectFilled(t, id, 10_000, 9900)

	_, err := f.engine.Bid(context.Background(), id, core.BidParams{
		Taker: takerA,
		Path:  []common.Address{srcTkn, dstTkn},
	})
	expectCause(t, err, core.ErrOrderFullyFilled)
}

func TestPartialLastChunk(t *testing.T) {
	f := newFixture()
	id := f.ask(t, 10_000, 4000)
	f.fund(takerA, 10_000)

	for i := 0; i < 2; i++ {
		f.bid(t, id, takerA)
		f.chain.mine(10)
		f.fill(t, id)
		f.chain.mine(60)
	}
	f.expectFilled(t, id, 8000, 7920)

	// Only 2000 is left, the bid must be quoted for the remainder.
	f.bid(t, id, takerA)
	order, _ := f.engine.Order(context.Background(), id)
	if order.Bid.DstAmount.Cmp(big.NewInt(2000)) != 0 {
		t.Errorf("last chunk quote = %s, want 2000", order.Bid.DstAmount)
	}

	f.chain.mine(10)
	f.fill(t, id)
	f.expectFilled(t, id, 10_000, 9900)
}

func TestOutbidWithinPendingPeriod(t *testing.T) {
	f := newFixture()
	id := f.ask(t, 2000, 1000)
	f.fund(takerA, 2000)
	f.fund(takerB, 2000)

	f.bid(t, id, takerA)
	f.chain.mine(1)

	// B's exchange pays 20% more, so B displaces A and the timer restarts.
	f.conv.num, f.conv.den = 6, 5
	f.bid(t, id, takerB)

	order, _ := f.engine.Order(context.Background(), id)
	if order.Bid.Taker != takerB {
		t.Fatalf("pending taker = %s, want %s", order.Bid.Taker, takerB)
	}
	if order.Bid.PlacedAtBlock != f.chain.n {
		t.Errorf("placed at block = %d, want %d", order.Bid.PlacedAtBlock, f.chain.n)
	}

	// A's original placement block must not count toward B's period.
	f.chain.mine(9)
	_, err := f.engine.Fill(context.Background(), id)
	expectCause(t, err, core.ErrPendingPeriodNotElapsed)

	f.chain.mine(1)
	f.fill(t, id)

	// Settled on B's terms: 1200 quoted, 12 fee.
	f.expectFilled(t, id, 1000, 1188)
	if got := f.ledger.Balance(srcTkn, takerB); got.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("taker B src balance = %s, want 1000", got)
	}
	if got := f.ledger.Balance(srcTkn, takerA); got.Sign() != 0 {
		t.Errorf("displaced taker A src balance = %s, want 0", got)
	}
}

func TestNonCompetitiveBidRejected(t *testing.T) {
	f := newFixture()
	id := f.ask(t, 2000, 1000)

	f.bid(t, id, takerA)
	before, _ := f.engine.Order(context.Background(), id)
	f.chain.mine(1)

	// Same rate quotes the same amount: equal net never displaces.
	_, err := f.engine.Bid(context.Background(), id, core.BidParams{
		Taker: takerB,
		Path:  []common.Address{srcTkn, dstTkn},
	})
	expectCause(t, err, core.ErrBidNotCompetitive)

	after, _ := f.engine.Order(context.Background(), id)
	if after.Bid.Taker != before.Bid.Taker {
		t.Error("pending taker changed on rejected bid")
	}
	if after.Bid.Fee.Cmp(before.Bid.Fee) != 0 {
		t.Error("pending fee changed on rejected bid")
	}
	if after.Bid.PlacedAtBlock != before.Bid.PlacedAtBlock {
		t.Error("pending period restarted on rejected bid")
	}

	// Strictly lower loses too.
	f.conv.num, f.conv.den = 4, 5
	_, err = f.engine.Bid(context.Background(), id, core.BidParams{
		Taker: takerB,
		Path:  []common.Address{srcTkn, dstTkn},
	})
	expectCause(t, err, core.ErrBidNotCompetitive)
}

func TestOutbidSameAmountLowerFee(t *testing.T) {
	f := newFixture()
	id := f.ask(t, 2000, 1000)

	f.bid(t, id, takerA)
	order, _ := f.engine.Order(context.Background(), id)
	if order.Bid.Fee.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("default fee = %s, want 10", order.Bid.Fee)
	}
	f.chain.mine(1)

	// Same quoted amount with a smaller fee nets the maker more.
	_, err := f.engine.Bid(context.Background(), id, core.BidParams{
		Taker:     takerB,
		Path:      []common.Address{srcTkn, dstTkn},
		DstAmount: big.NewInt(1000),
		Fee:       big.NewInt(1),
	})
	if err != nil {
		t.Fatalf("lower-fee bid failed: %v", err)
	}

	order, _ = f.engine.Order(context.Background(), id)
	if order.Bid.Taker != takerB {
		t.Errorf("pending taker = %s, want %s", order.Bid.Taker, takerB)
	}
	if order.Bid.Fee.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("pending fee = %s, want 1", order.Bid.Fee)
	}
}

func TestAskValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		name              string
		src, dst          common.Address
		total, chunk, ref int64
	}{
		{"zero total", srcTkn, dstTkn, 0, 1000, 1000},
		{"negative total", srcTkn, dstTkn, -1, 1000, 1000},
		{"zero chunk", srcTkn, dstTkn, 1000, 0, 1000},
		{"chunk above total", srcTkn, dstTkn, 1000, 2000, 1000},
		{"same asset", srcTkn, srcTkn, 1000, 1000, 1000},
		{"zero reference", srcTkn, dstTkn, 1000, 1000, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.Ask(ctx, maker, tc.src, tc.dst,
				big.NewInt(tc.total), big.NewInt(tc.chunk), big.NewInt(tc.ref))
			expectCause(t, err, core.ErrInvalidOrder)
		})
	}
}

func TestBidInvalidPath(t *testing.T) {
	f := newFixture()
	id := f.ask(t, 2000, 1000)
	ctx := context.Background()

	for _, path := range [][]common.Address{
		{srcTkn},
		{dstTkn, srcTkn},
		{srcTkn, takerA},
		{takerA, dstTkn},
	} {
		_, err := f.engine.Bid(ctx, id, core.BidParams{Taker: takerA, Path: path})
		expectCause(t, err, core.ErrInvalidPath)
	}
}

func TestBidUnknownOrder(t *testing.T) {
	f := newFixture()
	_, err := f.engine.Bid(context.Background(), 42, core.BidParams{
		Taker: takerA,
		Path:  []common.Address{srcTkn, dstTkn},
	})
	expectCause(t, err, core.ErrOrderNotFound)
}

func TestBidResolvesBestPath(t *testing.T) {
	f := newFixture()
	id := f.ask(t, 2000, 1000)

	via := common.HexToAddress("0x2000000000000000000000000000000000000003")
	f.quoter.path = []common.Address{srcTkn, via, dstTkn}
	f.quoter.out = big.NewInt(1100)

	if _, err := f.engine.Bid(context.Background(), id, core.BidParams{Taker: takerA}); err != nil {
		t.Fatalf("bid failed: %v", err)
	}

	order, _ := f.engine.Order(context.Background(), id)
	if len(order.Bid.Path) != 3 || order.Bid.Path[1] != via {
		t.Errorf("bid path = %v, want via %s", order.Bid.Path, via)
	}
	if order.Bid.DstAmount.Cmp(big.NewInt(1100)) != 0 {
		t.Errorf("bid amount = %s, want 1100", order.Bid.DstAmount)
	}
	if order.Bid.Fee.Cmp(big.NewInt(11)) != 0 {
		t.Errorf("bid fee = %s, want 11", order.Bid.Fee)
	}
}

func TestFillWithoutBid(t *testing.T) {
	f := newFixture()
	id := f.ask(t, 2000, 1000)

	_, err := f.engine.Fill(context.Background(), id)
	expectCause(t, err, core.ErrNoPendingBid)
}

func TestFillBeforePendingPeriod(t *testing.T) {
	f := newFixture()
	id := f.ask(t, 2000, 1000)
	f.fund(takerA, 2000)

	f.bid(t, id, takerA)
	f.chain.mine(9)

	_, err := f.engine.Fill(context.Background(), id)
	expectCause(t, err, core.ErrPendingPeriodNotElapsed)

	order, _ := f.engine.Order(context.Background(), id)
	if order.Bid == nil {
		t.Error("failed fill must leave the pending bid intact")
	}
	if order.FilledSrcAmount.Sign() != 0 {
		t.Error("failed fill must not advance filled amounts")
	}

	// Exactly at the boundary the fill goes through.
	f.chain.mine(1)
	f.fill(t, id)
	f.expectFilled(t, id, 1000, 990)

	// The cleared bid cannot be filled twice.
	_, err = f.engine.Fill(context.Background(), id)
	expectCause(t, err, core.ErrNoPendingBid)
}

func TestFillRollsBackOnFailedTransferLeg(t *testing.T) {
	f := newFixture()
	id := f.ask(t, 2000, 1000)

	// Enough for the net leg but not the fee leg: the applied net transfer
	// must be compensated.
	f.fund(takerA, 990)
	f.bid(t, id, takerA)
	f.chain.mine(10)

	_, err := f.engine.Fill(context.Background(), id)
	expectCause(t, err, core.ErrInsufficientBalance)

	if got := f.ledger.Balance(dstTkn, takerA); got.Cmp(big.NewInt(990)) != 0 {
		t.Errorf("taker dst balance = %s, want 990 back after rollback", got)
	}
	if got := f.ledger.Balance(dstTkn, maker); got.Sign() != 0 {
		t.Errorf("maker dst balance = %s, want 0 after rollback", got)
	}
	if got := f.ledger.Balance(srcTkn, takerA); got.Sign() != 0 {
		t.Errorf("taker src balance = %s, want 0 after rollback", got)
	}

	order, _ := f.engine.Order(context.Background(), id)
	if order.FilledSrcAmount.Sign() != 0 || order.Bid == nil {
		t.Error("failed fill must leave the order untouched")
	}
}

func TestFilledAmountsNeverExceedTotal(t *testing.T) {
	f := newFixture()
	id := f.ask(t, 5000, 1500)
	f.fund(takerA, 5000)

	released := new(big.Int)
	for i := 0; i < 4; i++ {
		f.bid(t, id, takerA)
		f.chain.mine(10)

		before, _ := f.engine.Order(context.Background(), id)
		f.fill(t, id)
		after, _ := f.engine.Order(context.Background(), id)

		released.Add(released, new(big.Int).Sub(after.FilledSrcAmount, before.FilledSrcAmount))
		if after.FilledSrcAmount.Cmp(after.TotalSrcAmount) > 0 {
			t.Fatalf("filled %s exceeds total %s", after.FilledSrcAmount, after.TotalSrcAmount)
		}
	}

	if released.Cmp(big.NewInt(5000)) != 0 {
		t.Errorf("sum of released chunks = %s, want 5000", released)
	}

	order, _ := f.engine.Order(context.Background(), id)
	if !order.FullyFilled() {
		t.Error("order should be fully filled after the remainder chunk")
	}
}

func TestExplicitFeeValidation(t *testing.T) {
	f := newFixture()
	id := f.ask(t, 2000, 1000)
	ctx := context.Background()

	for _, fee := range []int64{-1, 1000, 1500} {
		_, err := f.engine.Bid(ctx, id, core.BidParams{
			Taker:     takerA,
			Path:      []common.Address{srcTkn, dstTkn},
			DstAmount: big.NewInt(1000),
			Fee:       big.NewInt(fee),
		})
		expectCause(t, err, core.ErrInvalidBid)
	}
}
