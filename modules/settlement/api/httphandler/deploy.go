package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/sponsornet/settlement-engine/common/errs"
)

type deployRequest struct {
	callRequest
	FeeAmount string `json:"feeAmount"`
}

type deployResult struct {
	Address string `json:"address"`
}

type deployResponse = HttpResponse[deployResult]

func (h *HttpHandler) Deploy(ctx *fiber.Ctx) (err error) {
	var req deployRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.NewPublicError("unable to parse body: " + err.Error())
	}
	call, err := req.toCall()
	if err != nil {
		return errors.WithStack(err)
	}
	feeAmount, err := parseAmount(req.FeeAmount)
	if err != nil {
		return errors.WithStack(err)
	}

	address, err := h.engine.Deploy(ctx.UserContext(), call, feeAmount)
	if err != nil {
		return errors.Wrap(err, "error during Deploy")
	}

	resp := deployResponse{
		Result: &deployResult{
			Address: address.String(),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
