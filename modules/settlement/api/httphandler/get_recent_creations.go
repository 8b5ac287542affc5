package httphandler

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/sponsornet/settlement-engine/modules/settlement"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
)

type creationRecordResult struct {
	Kind         string    `json:"kind"`
	Creator      string    `json:"creator"`
	AssetAddress string    `json:"assetAddress"`
	TokenID      uint64    `json:"tokenId,omitempty"`
	BlockHeight  int64     `json:"blockHeight"`
	Timestamp    time.Time `json:"timestamp"`
}

type getRecentCreationsResult struct {
	Records []creationRecordResult `json:"records"`
}

type getRecentCreationsResponse = HttpResponse[getRecentCreationsResult]

func (h *HttpHandler) GetRecentCreations(ctx *fiber.Ctx) (err error) {
	address, err := parseAddressParam(ctx, "address")
	if err != nil {
		return errors.WithStack(err)
	}
	limit := ctx.QueryInt("limit", settlement.DefaultCreationLogRetention)

	records, err := h.usecase.GetRecentCreations(ctx.UserContext(), address, limit)
	if err != nil {
		return errors.Wrap(err, "error during GetRecentCreations")
	}

	resp := getRecentCreationsResponse{
		Result: &getRecentCreationsResult{
			Records: lo.Map(records, func(record entity.CreationRecord, _ int) creationRecordResult {
				return creationRecordResult{
					Kind:         string(record.Kind),
					Creator:      record.Creator.Key(),
					AssetAddress: record.AssetAddress.String(),
					TokenID:      record.TokenID,
					BlockHeight:  record.BlockHeight,
					Timestamp:    record.Timestamp,
				}
			}),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
