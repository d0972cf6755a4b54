package pricing

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const getAmountsOutABI = `[{"constant":true,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"}]`

// Router converts amounts along an asset path with a getAmountsOut eth_call
// against a UniswapV2-style router contract. The returned quote reflects
// on-chain state at call time and is treated as untrusted market data.
type Router struct {
	log      *logan.Entry
	eth      *ethclient.Client
	contract common.Address
	abi      abi.ABI
	timeout  time.Duration
}

func NewRouter(log *logan.Entry, eth *ethclient.Client, contract common.Address, timeout time.Duration) (*Router, error) {
	parsed, err := abi.JSON(strings.NewReader(getAmountsOutABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse router ABI")
	}

	return &Router{
		log:      log.WithField("service", "pricing"),
		eth:      eth,
		contract: contract,
		abi:      parsed,
		timeout:  timeout,
	}, nil
}

func (r *Router) Quote(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	childCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	input, err := r.abi.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack getAmountsOut call")
	}

	output, err := r.eth.CallContract(childCtx, ethereum.CallMsg{To: &r.contract, Data: input}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call router contract")
	}

	unpacked, err := r.abi.Unpack("getAmountsOut", output)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unpack getAmountsOut result")
	}
	if len(unpacked) != 1 {
		return nil, errors.Errorf("unexpected getAmountsOut result arity %d", len(unpacked))
	}

	amounts, ok := unpacked[0].([]*big.Int)
	if !ok || len(amounts) != len(path) {
		return nil, errors.New("router returned a malformed amounts grid")
	}

	out := amounts[len(amounts)-1]
	if out == nil || out.Sign() <= 0 {
		return nil, errors.New("router returned a non-positive quote")
	}
	return out, nil
}
