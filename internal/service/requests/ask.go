package requests

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Ask struct {
	Maker          common.Address
	SrcAsset       common.Address
	DstAsset       common.Address
	TotalSrcAmount *big.Int
	ChunkSrcAmount *big.Int
	DstRefAmount   *big.Int
}

func NewAsk(r *http.Request) (Ask, error) {
	var body struct {
		Maker          string `json:"maker"`
		SrcAsset       string `json:"src_asset"`
		DstAsset       string `json:"dst_asset"`
		TotalSrcAmount string `json:"total_src_amount"`
		ChunkSrcAmount string `json:"chunk_src_amount"`
		DstRefAmount   string `json:"dst_ref_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return Ask{}, errors.Wrap(err, "failed to decode request body")
	}

	maker, err := parseAddress(body.Maker, "maker")
	if err != nil {
		return Ask{}, err
	}
	srcAsset, err := parseAddress(body.SrcAsset, "src_asset")
	if err != nil {
		return Ask{}, err
	}
	dstAsset, err := parseAddress(body.DstAsset, "dst_asset")
	if err != nil {
		return Ask{}, err
	}
	totalSrc, err := parseAmount(body.TotalSrcAmount, "total_src_amount")
	if err != nil {
		return Ask{}, err
	}
	chunkSrc, err := parseAmount(body.ChunkSrcAmount, "chunk_src_amount")
	if err != nil {
		return Ask{}, err
	}
	dstRef, err := parseAmount(body.DstRefAmount, "dst_ref_amount")
	if err != nil {
		return Ask{}, err
	}

	return Ask{
		Maker:          maker,
		SrcAsset:       srcAsset,
		DstAsset:       dstAsset,
		TotalSrcAmount: totalSrc,
		ChunkSrcAmount: chunkSrc,
		DstRefAmount:   dstRef,
	}, nil
}
