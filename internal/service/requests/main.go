package requests

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func OrderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, errors.Wrap(err, "failed to parse order id")
}

func parseAddress(raw, field string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.Errorf("invalid %s address %q", field, raw)
	}
	return common.HexToAddress(raw), nil
}

func parseAmount(raw, field string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, errors.Errorf("invalid %s value %q", field, raw)
	}
	return v, nil
}
