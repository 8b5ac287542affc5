package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

type mintTokenRequest struct {
	callRequest
	Collection       common.Address          `json:"collection"`
	TokenURI         string                  `json:"tokenUri"`
	TokenName        string                  `json:"tokenName"`
	TokenDescription string                  `json:"tokenDescription"`
	Attributes       []entity.TokenAttribute `json:"attributes"`
	Owner            crossaddr.CrossAddress  `json:"owner"`
}

type mintTokenResult struct {
	Collection string `json:"collection"`
	TokenID    uint64 `json:"tokenId"`
}

type mintTokenResponse = HttpResponse[mintTokenResult]

func (h *HttpHandler) MintToken(ctx *fiber.Ctx) (err error) {
	address, err := parseAddressParam(ctx, "address")
	if err != nil {
		return errors.WithStack(err)
	}
	var req mintTokenRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.NewPublicError("unable to parse body: " + err.Error())
	}
	call, err := req.toCall()
	if err != nil {
		return errors.WithStack(err)
	}

	tokenID, err := h.engine.MintToken(ctx.UserContext(), call, address, settlement.MintTokenParams{
		Collection:  req.Collection,
		TokenURI:    req.TokenURI,
		Name:        req.TokenName,
		Description: req.TokenDescription,
		Attributes:  req.Attributes,
		Owner:       req.Owner,
	})
	if err != nil {
		return errors.Wrap(err, "error during MintToken")
	}

	resp := mintTokenResponse{
		Result: &mintTokenResult{
			Collection: req.Collection.String(),
			TokenID:    tokenID,
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
