package entity

import (
	"time"

	"github.com/gaze-network/uint128"
	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

// TokenAttribute is one metadata trait minted onto a token.
type TokenAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// EventWindow is the immutable validity window of a time-boxed event.
// Minting is valid while StartTimestamp <= now < EndTimestamp.
type EventWindow struct {
	ContractAddress   common.Address
	CollectionAddress common.Address
	Host              crossaddr.CrossAddress
	StartTimestamp    time.Time
	EndTimestamp      time.Time
	// FeePaid is the value escrowed when the event was created. The fee buys
	// the right to run the event, not a successful mint.
	FeePaid uint128.Uint128
	// TokenImage and TokenAttributes are stamped onto every token minted
	// within the window.
	TokenImage      string
	TokenAttributes []TokenAttribute
}

// Contains reports whether t falls inside the half-open interval [start, end).
func (w EventWindow) Contains(t time.Time) bool {
	return !t.Before(w.StartTimestamp) && t.Before(w.EndTimestamp)
}
