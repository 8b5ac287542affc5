package entity

import (
	"github.com/gaze-network/uint128"
	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

// Currency enumerates payment tokens. 0 is the native currency; any other
// value is settled through the external payment-token collaborator.
type Currency uint32

const CurrencyNative Currency = 0

func (c Currency) IsNative() bool { return c == CurrencyNative }

// SaleItem is one asset offered within a batch sale, with its price expressed
// in smallest units of the given currency.
type SaleItem struct {
	Collection common.Address
	TokenID    uint64
	Price      uint128.Uint128
	Currency   Currency
}

// BatchSaleRequest is an ordered, non-empty sequence of sale items settled to
// one destination, all-or-nothing. Every item's asset must already carry a
// transfer approval to the executing contract.
type BatchSaleRequest struct {
	Destination crossaddr.CrossAddress
	Items       []SaleItem
}

// TransferReceipt reports one settled item of a successful batch.
type TransferReceipt struct {
	// Index is the 1-based position of the item within the batch.
	Index      int
	Collection common.Address
	TokenID    uint64
	From       crossaddr.CrossAddress
	To         crossaddr.CrossAddress
	Price      uint128.Uint128
	Currency   Currency
}
