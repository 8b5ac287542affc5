package usecase

import (
	"github.com/sponsornet/settlement-engine/modules/settlement/datagateway"
)

type Usecase struct {
	settlementDg datagateway.SettlementDataGateway
}

func New(settlementDg datagateway.SettlementDataGateway) *Usecase {
	return &Usecase{
		settlementDg: settlementDg,
	}
}
