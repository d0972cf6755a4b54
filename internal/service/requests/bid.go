package requests

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Bid struct {
	Taker common.Address
	// Path, DstAmount and Fee are optional, see core.BidParams.
	Path      []common.Address
	DstAmount *big.Int
	Fee       *big.Int
}

func NewBid(r *http.Request) (Bid, error) {
	var body struct {
		Taker     string   `json:"taker"`
		Path      []string `json:"path"`
		DstAmount *string  `json:"dst_amount"`
		Fee       *string  `json:"fee"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return Bid{}, errors.Wrap(err, "failed to decode request body")
	}

	taker, err := parseAddress(body.Taker, "taker")
	if err != nil {
		return Bid{}, err
	}

	req := Bid{Taker: taker}

	if len(body.Path) > 0 {
		req.Path = make([]common.Address, len(body.Path))
		for i, hop := range body.Path {
			req.Path[i], err = parseAddress(hop, "path")
			if err != nil {
				return Bid{}, err
			}
		}
	}

	if body.DstAmount != nil {
		req.DstAmount, err = parseAmount(*body.DstAmount, "dst_amount")
		if err != nil {
			return Bid{}, err
		}
	}
	if body.Fee != nil {
		req.Fee, err = parseAmount(*body.Fee, "fee")
		if err != nil {
			return Bid{}, err
		}
	}

	return req, nil
}
