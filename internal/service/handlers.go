package service

import (
	"encoding/json"
	"net/http"

	"github.com/defi-org-code/dotc/internal/core"
	"github.com/defi-org-code/dotc/internal/service/requests"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func (s *service) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/orders", s.createOrder)
	r.Get("/orders", s.listOrders)
	r.Get("/orders/{id}", s.getOrder)
	r.Post("/orders/{id}/bids", s.placeBid)
	r.Post("/orders/{id}/fill", s.fillOrder)

	return r
}

func (s *service) createOrder(w http.ResponseWriter, r *http.Request) {
	req, err := requests.NewAsk(r)
	if err != nil {
		s.renderErr(w, errors.Wrap(core.ErrInvalidOrder, err.Error()))
		return
	}

	order, err := s.engine.Ask(r.Context(),
		req.Maker, req.SrcAsset, req.DstAsset,
		req.TotalSrcAmount, req.ChunkSrcAmount, req.DstRefAmount)
	if err != nil {
		s.renderErr(w, err)
		return
	}

	s.renderJSON(w, http.StatusCreated, newOrderResponse(*order))
}

func (s *service) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.engine.Orders(r.Context())
	if err != nil {
		s.renderErr(w, err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}
	s.renderJSON(w, http.StatusOK, resp)
}

func (s *service) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := requests.OrderID(r)
	if err != nil {
		s.renderErr(w, errors.Wrap(core.ErrOrderNotFound, err.Error()))
		return
	}

	order, err := s.engine.Order(r.Context(), id)
	if err != nil {
		s.renderErr(w, err)
		return
	}
	s.renderJSON(w, http.StatusOK, newOrderResponse(*order))
}

func (s *service) placeBid(w http.ResponseWriter, r *http.Request) {
	id, err := requests.OrderID(r)
	if err != nil {
		s.renderErr(w, errors.Wrap(core.ErrOrderNotFound, err.Error()))
		return
	}
	req, err := requests.NewBid(r)
	if err != nil {
		s.renderErr(w, errors.Wrap(core.ErrInvalidBid, err.Error()))
		return
	}

	order, err := s.engine.Bid(r.Context(), id, core.BidParams{
		Taker:     req.Taker,
		Path:      req.Path,
		DstAmount: req.DstAmount,
		Fee:       req.Fee,
	})
	if err != nil {
		s.renderErr(w, err)
		return
	}
	s.renderJSON(w, http.StatusOK, newOrderResponse(*order))
}

func (s *service) fillOrder(w http.ResponseWriter, r *http.Request) {
	id, err := requests.OrderID(r)
	if err != nil {
		s.renderErr(w, errors.Wrap(core.ErrOrderNotFound, err.Error()))
		return
	}

	order, err := s.engine.Fill(r.Context(), id)
	if err != nil {
		s.renderErr(w, err)
		return
	}
	s.renderJSON(w, http.StatusOK, newOrderResponse(*order))
}

func (s *service) renderJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.WithError(err).Error("failed to encode response")
	}
}

func (s *service) renderErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch errors.Cause(err) {
	case core.ErrInvalidOrder, core.ErrInvalidPath, core.ErrInvalidBid:
		status = http.StatusBadRequest
	case core.ErrOrderNotFound:
		status = http.StatusNotFound
	case core.ErrOrderFullyFilled, core.ErrBidNotCompetitive,
		core.ErrPendingPeriodNotElapsed, core.ErrNoPendingBid,
		core.ErrInsufficientBalance, core.ErrTransferRejected:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}

	s.renderJSON(w, status, map[string]string{"error": errors.Cause(err).Error()})
}
