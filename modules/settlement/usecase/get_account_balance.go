package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"

	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

func (u *Usecase) GetAccountBalance(ctx context.Context, account crossaddr.CrossAddress) (uint128.Uint128, error) {
	balance, err := u.settlementDg.GetAccountBalance(ctx, account.Key())
	if err != nil {
		return uint128.Zero, errors.Wrap(err, "error during GetAccountBalance")
	}
	return balance, nil
}
