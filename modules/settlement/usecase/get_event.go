package usecase

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
)

func (u *Usecase) GetEventWindow(ctx context.Context, collection common.Address) (*entity.EventWindow, error) {
	window, err := u.settlementDg.GetEventWindow(ctx, collection)
	if err != nil {
		return nil, errors.Wrap(err, "error during GetEventWindow")
	}
	return window, nil
}
