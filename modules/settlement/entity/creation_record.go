package entity

import (
	"time"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

type CreationKind string

const (
	CreationKindCollection CreationKind = "collection"
	CreationKindToken      CreationKind = "token"
)

// CreationRecord is one entry of a contract's append-only creation log.
// Created exactly once per successful creation call, immutable afterwards.
// Discovery is "read the most recent N entries", not keyed lookup: the log is
// pruned to a bounded retention window.
type CreationRecord struct {
	ContractAddress common.Address
	Kind            CreationKind
	Creator         crossaddr.CrossAddress
	AssetAddress    common.Address
	// TokenID is set for token records only.
	TokenID     uint64
	BlockHeight int64
	Timestamp   time.Time
}
