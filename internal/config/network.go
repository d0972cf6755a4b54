package config

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Network is the chain the service reads block height and quotes from.
type Network struct {
	EthClient      *ethclient.Client
	Router         common.Address
	RequestTimeout time.Duration
	SettlePeriod   time.Duration
}

const defaultRequestTimeout = 10 * time.Second
const defaultSettlePeriod = 5 * time.Second

func (c *config) Network() Network {
	return c.networkOnce.Do(func() interface{} {
		var cfg struct {
			RPC            string         `fig:"rpc,required"`
			Router         common.Address `fig:"router,required"`
			RequestTimeout time.Duration  `fig:"request_timeout"`
			SettlePeriod   time.Duration  `fig:"settle_period"`
		}

		err := figure.Out(&cfg).
			With(figure.EthereumHooks).
			From(kv.MustGetStringMap(c.getter, "network")).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out network"))
		}

		cli, err := ethclient.Dial(cfg.RPC)
		if err != nil {
			panic(errors.Wrap(err, "failed to connect to RPC provider"))
		}

		if cfg.RequestTimeout == 0 {
			cfg.RequestTimeout = defaultRequestTimeout
		}
		if cfg.SettlePeriod == 0 {
			cfg.SettlePeriod = defaultSettlePeriod
		}

		return Network{
			EthClient:      cli,
			Router:         cfg.Router,
			RequestTimeout: cfg.RequestTimeout,
			SettlePeriod:   cfg.SettlePeriod,
		}
	}).(Network)
}
