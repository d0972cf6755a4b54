package service

import (
	"context"
	"net/http"

	"github.com/defi-org-code/dotc/internal/assets"
	"github.com/defi-org-code/dotc/internal/config"
	"github.com/defi-org-code/dotc/internal/core"
	"github.com/defi-org-code/dotc/internal/data/postgres"
	"github.com/defi-org-code/dotc/internal/pricing"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type service struct {
	log    *logan.Entry
	engine *core.Engine
}

func newService(cfg config.Config) *service {
	log := cfg.Log()
	network := cfg.Network()

	router, err := pricing.NewRouter(log, network.EthClient, network.Router, network.RequestTimeout)
	if err != nil {
		panic(errors.Wrap(err, "failed to create price router"))
	}

	engine := core.New(
		log,
		postgres.NewOrders(cfg.DB()),
		router,
		pricing.NewQuoter(log, router),
		assets.NewLedger(log),
		network.EthClient,
		cfg.Protocol(),
	)

	return &service{
		log:    log,
		engine: engine,
	}
}

func Run(cfg config.Config) {
	s := newService(cfg)
	s.log.Info("service started")

	go s.runKeeper(context.Background(), cfg.Network().SettlePeriod)

	if err := http.Serve(cfg.Listener(), s.router()); err != nil {
		panic(errors.Wrap(err, "failed to serve API"))
	}
}
