package usecase

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
)

func (u *Usecase) GetSponsorContract(ctx context.Context, address common.Address) (*entity.SponsorContract, error) {
	contract, err := u.settlementDg.GetSponsorContract(ctx, address)
	if err != nil {
		return nil, errors.Wrap(err, "error during GetSponsorContract")
	}
	return contract, nil
}
