package entity

import (
	"time"

	"github.com/gaze-network/uint128"
	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

// SponsoringMode defines who the contract absorbs execution cost for.
// Values mirror the platform's contract-helpers encoding.
type SponsoringMode int32

const (
	// SponsoringDisabled makes every caller pay their own cost.
	SponsoringDisabled SponsoringMode = 0
	// SponsoringAllowlisted sponsors only pre-registered callers.
	SponsoringAllowlisted SponsoringMode = 1
	// SponsoringGenerous sponsors any caller.
	SponsoringGenerous SponsoringMode = 2
)

func (m SponsoringMode) String() string {
	switch m {
	case SponsoringDisabled:
		return "disabled"
	case SponsoringAllowlisted:
		return "allowlisted"
	case SponsoringGenerous:
		return "generous"
	}
	return "unknown"
}

func (m SponsoringMode) IsValid() bool {
	switch m {
	case SponsoringDisabled, SponsoringAllowlisted, SponsoringGenerous:
		return true
	}
	return false
}

// SponsorConfig is the per-contract sponsorship policy. Mutated only by the
// contract's administrator; the new policy applies to the next evaluated call.
type SponsorConfig struct {
	Enabled bool
	Mode    SponsoringMode
	// RateLimitBlocks is the minimum spacing, in blocks, between sponsored
	// calls from the same caller. 0 means unlimited.
	RateLimitBlocks int64
}

// SponsorContract is one deployed sponsor contract instance: an escrow balance,
// a creation-fee configuration and a sponsorship policy under one administrator.
type SponsorContract struct {
	Address common.Address
	Admin   crossaddr.CrossAddress
	// Balance is the native value held by the contract. It funds sponsored
	// calls and accumulates collected creation fees. Never negative.
	Balance uint128.Uint128
	// FeeAmount is the fixed charge per gated creation. Zero disables the fee.
	FeeAmount  uint128.Uint128
	Sponsoring SponsorConfig
	CreatedAt  time.Time
}
