package usecase

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
)

func (u *Usecase) GetRecentCreations(ctx context.Context, address common.Address, limit int) ([]entity.CreationRecord, error) {
	records, err := u.settlementDg.GetRecentCreationRecords(ctx, address, limit)
	if err != nil {
		return nil, errors.Wrap(err, "error during GetRecentCreationRecords")
	}
	return records, nil
}
