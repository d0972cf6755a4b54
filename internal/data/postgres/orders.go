package postgres

import (
	"database/sql"
	"math/big"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/defi-org-code/dotc/internal/data"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/structs"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const ordersTable = "orders"

type orders struct {
	db *pgdb.DB
}

func NewOrders(db *pgdb.DB) data.Orders {
	return orders{db: db}
}

// row mirrors the orders table; amounts are stored as decimal strings since
// they exceed int64, the pending bid is embedded in nullable columns.
type row struct {
	ID       int64  `structs:"-" db:"id"`
	Maker    string `structs:"maker" db:"maker"`
	SrcAsset string `structs:"src_asset" db:"src_asset"`
	DstAsset string `structs:"dst_asset" db:"dst_asset"`

	TotalSrcAmount  string `structs:"total_src_amount" db:"total_src_amount"`
	ChunkSrcAmount  string `structs:"chunk_src_amount" db:"chunk_src_amount"`
	DstRefAmount    string `structs:"dst_ref_amount" db:"dst_ref_amount"`
	FilledSrcAmount string `structs:"filled_src_amount" db:"filled_src_amount"`
	FilledDstAmount string `structs:"filled_dst_amount" db:"filled_dst_amount"`
	CreatedAtBlock  int64  `structs:"created_at_block" db:"created_at_block"`

	BidTaker     sql.NullString `structs:"bid_taker,omitempty,omitnested" db:"bid_taker"`
	BidPath      sql.NullString `structs:"bid_path,omitempty,omitnested" db:"bid_path"`
	BidDstAmount sql.NullString `structs:"bid_dst_amount,omitempty,omitnested" db:"bid_dst_amount"`
	BidFee       sql.NullString `structs:"bid_fee,omitempty,omitnested" db:"bid_fee"`
	BidPlacedAt  sql.NullInt64  `structs:"bid_placed_at,omitempty,omitnested" db:"bid_placed_at"`
}

func (q orders) Insert(o data.Order) (int64, error) {
	stmt := squirrel.Insert(ordersTable).SetMap(structs.Map(toRow(o))).
		Suffix("RETURNING id")

	var id struct {
		ID int64 `db:"id"`
	}
	if err := q.db.Get(&id, stmt); err != nil {
		return 0, errors.Wrap(err, "failed to insert order")
	}
	return id.ID, nil
}

func (q orders) Get(id int64) (*data.Order, error) {
	var result row
	stmt := squirrel.Select("*").From(ordersTable).Where(squirrel.Eq{"id": id})

	if err := q.db.Get(&result, stmt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to select order")
	}

	o, err := fromRow(result)
	if err != nil {
		return nil, errors.Wrap(err, "failed to restore order from row")
	}
	return &o, nil
}

func (q orders) Update(o data.Order) error {
	stmt := squirrel.Update(ordersTable).SetMap(structs.Map(toRow(o))).
		Where(squirrel.Eq{"id": o.ID})
	err := q.db.Exec(stmt)
	return errors.Wrap(err, "failed to update order")
}

func (q orders) Select() ([]data.Order, error) {
	var rows []row
	stmt := squirrel.Select("*").From(ordersTable).OrderBy("id ASC")
	if err := q.db.Select(&rows, stmt); err != nil {
		return nil, errors.Wrap(err, "failed to select orders")
	}

	result := make([]data.Order, 0, len(rows))
	for _, r := range rows {
		o, err := fromRow(r)
		if err != nil {
			return nil, errors.Wrap(err, "failed to restore order from row")
		}
		result = append(result, o)
	}
	return result, nil
}

func toRow(o data.Order) row {
	r := row{
		ID:              o.ID,
		Maker:           o.Maker.String(),
		SrcAsset:        o.SrcAsset.String(),
		DstAsset:        o.DstAsset.String(),
		TotalSrcAmount:  o.TotalSrcAmount.String(),
		ChunkSrcAmount:  o.ChunkSrcAmount.String(),
		DstRefAmount:    o.DstRefAmount.String(),
		FilledSrcAmount: o.FilledSrcAmount.String(),
		FilledDstAmount: o.FilledDstAmount.String(),
		CreatedAtBlock:  int64(o.CreatedAtBlock),
	}

	if o.Bid != nil {
		path := make([]string, len(o.Bid.Path))
		for i, hop := range o.Bid.Path {
			path[i] = hop.String()
		}
		r.BidTaker = sql.NullString{String: o.Bid.Taker.String(), Valid: true}
		r.BidPath = sql.NullString{String: strings.Join(path, ","), Valid: true}
		r.BidDstAmount = sql.NullString{String: o.Bid.DstAmount.String(), Valid: true}
		r.BidFee = sql.NullString{String: o.Bid.Fee.String(), Valid: true}
		r.BidPlacedAt = sql.NullInt64{Int64: int64(o.Bid.PlacedAtBlock), Valid: true}
	}
	return r
}

func fromRow(r row) (data.Order, error) {
	o := data.Order{
		ID:             r.ID,
		Maker:          common.HexToAddress(r.Maker),
		SrcAsset:       common.HexToAddress(r.SrcAsset),
		DstAsset:       common.HexToAddress(r.DstAsset),
		CreatedAtBlock: uint64(r.CreatedAtBlock),
	}

	for _, f := range []struct {
		dst **big.Int
		src string
	}{
		{&o.TotalSrcAmount, r.TotalSrcAmount},
		{&o.ChunkSrcAmount, r.ChunkSrcAmount},
		{&o.DstRefAmount, r.DstRefAmount},
		{&o.FilledSrcAmount, r.FilledSrcAmount},
		{&o.FilledDstAmount, r.FilledDstAmount},
	} {
		v, ok := new(big.Int).SetString(f.src, 10)
		if !ok {
			return data.Order{}, errors.Errorf("invalid amount value %q", f.src)
		}
		*f.dst = v
	}

	if !r.BidTaker.Valid {
		return o, nil
	}

	dstAmount, ok := new(big.Int).SetString(r.BidDstAmount.String, 10)
	if !ok {
		return data.Order{}, errors.Errorf("invalid bid amount value %q", r.BidDstAmount.String)
	}
	fee, ok := new(big.Int).SetString(r.BidFee.String, 10)
	if !ok {
		return data.Order{}, errors.Errorf("invalid bid fee value %q", r.BidFee.String)
	}

	hops := strings.Split(r.BidPath.String, ",")
	path := make([]common.Address, len(hops))
	for i, hop := range hops {
		path[i] = common.HexToAddress(hop)
	}

	o.Bid = &data.Bid{
		Taker:         common.HexToAddress(r.BidTaker.String),
		Path:          path,
		DstAmount:     dstAmount,
		Fee:           fee,
		PlacedAtBlock: uint64(r.BidPlacedAt.Int64),
	}
	return o, nil
}
