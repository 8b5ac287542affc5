package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

type setAllowlistedRequest struct {
	callRequest
	Account crossaddr.CrossAddress `json:"account"`
	Allowed bool                   `json:"allowed"`
}

type setAllowlistedResult struct {
	Account string `json:"account"`
	Allowed bool   `json:"allowed"`
}

type setAllowlistedResponse = HttpResponse[setAllowlistedResult]

func (h *HttpHandler) SetAllowlisted(ctx *fiber.Ctx) (err error) {
	address, err := parseAddressParam(ctx, "address")
	if err != nil {
		return errors.WithStack(err)
	}
	var req setAllowlistedRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.NewPublicError("unable to parse body: " + err.Error())
	}
	call, err := req.toCall()
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.engine.SetAllowlisted(ctx.UserContext(), call, address, req.Account, req.Allowed); err != nil {
		return errors.Wrap(err, "error during SetAllowlisted")
	}

	resp := setAllowlistedResponse{
		Result: &setAllowlistedResult{
			Account: req.Account.Key(),
			Allowed: req.Allowed,
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
