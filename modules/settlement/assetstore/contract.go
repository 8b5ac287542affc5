// Package assetstore declares the external collaborators the settlement engine
// settles against: the asset-storage contract owning collections and tokens,
// and the payment-token contract settling non-native currencies. The engine
// only consumes these narrow interfaces; creation, mint and transfer fail
// loudly rather than silently no-op.
package assetstore

import (
	"context"

	"github.com/gaze-network/uint128"
	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

type CreateCollectionParams struct {
	Name        string
	Symbol      string
	Description string
	BaseURI     string
	Owner       crossaddr.CrossAddress
}

type MintTokenParams struct {
	Collection  common.Address
	TokenURI    string
	Name        string
	Description string
	Attributes  []entity.TokenAttribute
	Owner       crossaddr.CrossAddress
}

// Contract is the asset-storage collaborator.
type Contract interface {
	CreateCollection(ctx context.Context, params CreateCollectionParams) (common.Address, error)
	MintToken(ctx context.Context, params MintTokenParams) (uint64, error)
	OwnerOf(ctx context.Context, collection common.Address, tokenID uint64) (crossaddr.CrossAddress, error)
	// SetTransferApproval grants or revokes the operator's right to transfer
	// any of holder's tokens in the collection.
	SetTransferApproval(ctx context.Context, collection common.Address, holder crossaddr.CrossAddress, operator common.Address, approved bool) error
	IsApprovedForAll(ctx context.Context, collection common.Address, holder crossaddr.CrossAddress, operator common.Address) (bool, error)
	Transfer(ctx context.Context, collection common.Address, tokenID uint64, from, to crossaddr.CrossAddress) error
}

// PaymentContract settles prices denominated in non-native currencies.
type PaymentContract interface {
	TransferPayment(ctx context.Context, currency entity.Currency, from, to crossaddr.CrossAddress, amount uint128.Uint128) error
}
