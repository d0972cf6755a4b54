package config

import (
	"github.com/defi-org-code/dotc/internal/core"
	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Protocol = core.Protocol

const defaultTakerFeeBps = 100
const defaultPendingPeriodBlocks = 10

func (c *config) Protocol() Protocol {
	return c.protocolOnce.Do(func() interface{} {
		var cfg struct {
			TakerFeeBps         int64          `fig:"taker_fee_bps"`
			PendingPeriodBlocks uint64         `fig:"pending_period_blocks"`
			FeeRecipient        common.Address `fig:"fee_recipient,required"`
			Connectors          []string       `fig:"connectors"`
		}

		err := figure.Out(&cfg).
			With(figure.EthereumHooks).
			From(kv.MustGetStringMap(c.getter, "protocol")).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out protocol"))
		}

		if cfg.TakerFeeBps == 0 {
			cfg.TakerFeeBps = defaultTakerFeeBps
		}
		if cfg.PendingPeriodBlocks == 0 {
			cfg.PendingPeriodBlocks = defaultPendingPeriodBlocks
		}

		connectors := make([]common.Address, 0, len(cfg.Connectors))
		for _, raw := range cfg.Connectors {
			if !common.IsHexAddress(raw) {
				panic(errors.Errorf("invalid connector address %q", raw))
			}
			connectors = append(connectors, common.HexToAddress(raw))
		}

		return Protocol{
			TakerFeeBps:         cfg.TakerFeeBps,
			PendingPeriodBlocks: cfg.PendingPeriodBlocks,
			FeeRecipient:        cfg.FeeRecipient,
			Connectors:          connectors,
		}
	}).(Protocol)
}
