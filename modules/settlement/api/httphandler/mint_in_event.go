package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

type mintInEventRequest struct {
	callRequest
	Collection common.Address         `json:"collection"`
	Owner      crossaddr.CrossAddress `json:"owner"`
}

type mintInEventResult struct {
	Collection string `json:"collection"`
	TokenID    uint64 `json:"tokenId"`
}

type mintInEventResponse = HttpResponse[mintInEventResult]

func (h *HttpHandler) MintInEvent(ctx *fiber.Ctx) (err error) {
	address, err := parseAddressParam(ctx, "address")
	if err != nil {
		return errors.WithStack(err)
	}
	var req mintInEventRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.NewPublicError("unable to parse body: " + err.Error())
	}
	call, err := req.toCall()
	if err != nil {
		return errors.WithStack(err)
	}

	tokenID, err := h.engine.MintInEvent(ctx.UserContext(), call, address, req.Collection, req.Owner)
	if err != nil {
		return errors.Wrap(err, "error during MintInEvent")
	}

	resp := mintInEventResponse{
		Result: &mintInEventResult{
			Collection: req.Collection.String(),
			TokenID:    tokenID,
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
