package service

import (
	"github.com/defi-org-code/dotc/internal/data"
)

type orderResponse struct {
	ID       int64  `json:"id"`
	Maker    string `json:"maker"`
	SrcAsset string `json:"src_asset"`
	DstAsset string `json:"dst_asset"`

	TotalSrcAmount  string `json:"total_src_amount"`
	ChunkSrcAmount  string `json:"chunk_src_amount"`
	DstRefAmount    string `json:"dst_ref_amount"`
	FilledSrcAmount string `json:"filled_src_amount"`
	FilledDstAmount string `json:"filled_dst_amount"`
	CreatedAtBlock  uint64 `json:"created_at_block"`
	FullyFilled     bool   `json:"fully_filled"`

	Bid *bidResponse `json:"bid,omitempty"`
}

type bidResponse struct {
	Taker         string   `json:"taker"`
	Path          []string `json:"path"`
	DstAmount     string   `json:"dst_amount"`
	Fee           string   `json:"fee"`
	PlacedAtBlock uint64   `json:"placed_at_block"`
}

func newOrderResponse(o data.Order) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		Maker:           o.Maker.String(),
		SrcAsset:        o.SrcAsset.String(),
		DstAsset:        o.DstAsset.String(),
		TotalSrcAmount:  o.TotalSrcAmount.String(),
		ChunkSrcAmount:  o.ChunkSrcAmount.String(),
		DstRefAmount:    o.DstRefAmount.String(),
		FilledSrcAmount: o.FilledSrcAmount.String(),
		FilledDstAmount: o.FilledDstAmount.String(),
		CreatedAtBlock:  o.CreatedAtBlock,
		FullyFilled:     o.FullyFilled(),
	}

	if o.Bid != nil {
		path := make([]string, len(o.Bid.Path))
		for i, hop := range o.Bid.Path {
			path[i] = hop.String()
		}
		resp.Bid = &bidResponse{
			Taker:         o.Bid.Taker.String(),
			Path:          path,
			DstAmount:     o.Bid.DstAmount.String(),
			Fee:           o.Bid.Fee.String(),
			PlacedAtBlock: o.Bid.PlacedAtBlock,
		}
	}
	return resp
}
