package httphandler

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
)

type getEventResult struct {
	Collection      string                  `json:"collection"`
	Contract        string                  `json:"contract"`
	Host            string                  `json:"host"`
	StartTimestamp  time.Time               `json:"startTimestamp"`
	EndTimestamp    time.Time               `json:"endTimestamp"`
	Active          bool                    `json:"active"`
	FeePaid         amountResult            `json:"feePaid"`
	TokenImage      string                  `json:"tokenImage"`
	TokenAttributes []entity.TokenAttribute `json:"tokenAttributes"`
}

type getEventResponse = HttpResponse[getEventResult]

func (h *HttpHandler) GetEvent(ctx *fiber.Ctx) (err error) {
	collection, err := common.HexToAddress(ctx.Params("collection"))
	if err != nil {
		return errs.NewPublicError("invalid collection parameter")
	}

	window, err := h.usecase.GetEventWindow(ctx.UserContext(), collection)
	if err != nil {
		return errors.Wrap(err, "error during GetEventWindow")
	}

	resp := getEventResponse{
		Result: &getEventResult{
			Collection:      window.CollectionAddress.String(),
			Contract:        window.ContractAddress.String(),
			Host:            window.Host.Key(),
			StartTimestamp:  window.StartTimestamp,
			EndTimestamp:    window.EndTimestamp,
			Active:          window.Contains(time.Now().UTC()),
			FeePaid:         formatAmount(window.FeePaid),
			TokenImage:      window.TokenImage,
			TokenAttributes: window.TokenAttributes,
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
