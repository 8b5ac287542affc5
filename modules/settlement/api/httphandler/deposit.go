package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

type depositRequest struct {
	Account crossaddr.CrossAddress `json:"account"`
	Amount  string                 `json:"amount"`
}

type depositResult struct {
	Balance amountResult `json:"balance"`
}

type depositResponse = HttpResponse[depositResult]

func (h *HttpHandler) Deposit(ctx *fiber.Ctx) (err error) {
	var req depositRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.NewPublicError("unable to parse body: " + err.Error())
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.engine.Deposit(ctx.UserContext(), req.Account, amount); err != nil {
		return errors.Wrap(err, "error during Deposit")
	}
	balance, err := h.usecase.GetAccountBalance(ctx.UserContext(), req.Account)
	if err != nil {
		return errors.Wrap(err, "error during GetAccountBalance")
	}

	resp := depositResponse{
		Result: &depositResult{
			Balance: formatAmount(balance),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
