package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/sponsornet/settlement-engine/common/errs"
)

type withdrawRequest struct {
	callRequest
	Amount string `json:"amount"`
}

type withdrawResult struct {
	Balance amountResult `json:"balance"`
}

type withdrawResponse = HttpResponse[withdrawResult]

func (h *HttpHandler) Withdraw(ctx *fiber.Ctx) (err error) {
	address, err := parseAddressParam(ctx, "address")
	if err != nil {
		return errors.WithStack(err)
	}
	var req withdrawRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.NewPublicError("unable to parse body: " + err.Error())
	}
	call, err := req.toCall()
	if err != nil {
		return errors.WithStack(err)
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.engine.Withdraw(ctx.UserContext(), call, address, amount); err != nil {
		return errors.Wrap(err, "error during Withdraw")
	}
	contract, err := h.usecase.GetSponsorContract(ctx.UserContext(), address)
	if err != nil {
		return errors.Wrap(err, "error during GetSponsorContract")
	}

	resp := withdrawResponse{
		Result: &withdrawResult{
			Balance: formatAmount(contract.Balance),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
