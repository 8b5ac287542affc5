package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

type createAndMintRequest struct {
	callRequest
	Name        string                 `json:"name"`
	Symbol      string                 `json:"symbol"`
	Description string                 `json:"description"`
	BaseURI     string                 `json:"baseUri"`
	Owner       crossaddr.CrossAddress `json:"owner"`

	TokenURI         string                  `json:"tokenUri"`
	TokenName        string                  `json:"tokenName"`
	TokenDescription string                  `json:"tokenDescription"`
	TokenAttributes  []entity.TokenAttribute `json:"tokenAttributes"`
}

type createAndMintResult struct {
	Collection string `json:"collection"`
	TokenID    uint64 `json:"tokenId"`
}

type createAndMintResponse = HttpResponse[createAndMintResult]

func (h *HttpHandler) CreateAndMint(ctx *fiber.Ctx) (err error) {
	address, err := parseAddressParam(ctx, "address")
	if err != nil {
		return errors.WithStack(err)
	}
	var req createAndMintRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.NewPublicError("unable to parse body: " + err.Error())
	}
	call, err := req.toCall()
	if err != nil {
		return errors.WithStack(err)
	}

	collection, tokenID, err := h.engine.CreateAndMint(ctx.UserContext(), call, address, settlement.CreateAndMintParams{
		Name:             req.Name,
		Symbol:           req.Symbol,
		Description:      req.Description,
		BaseURI:          req.BaseURI,
		Owner:            req.Owner,
		TokenURI:         req.TokenURI,
		TokenName:        req.TokenName,
		TokenDescription: req.TokenDescription,
		TokenAttributes:  req.TokenAttributes,
	})
	if err != nil {
		return errors.Wrap(err, "error during CreateAndMint")
	}

	resp := createAndMintResponse{
		Result: &createAndMintResult{
			Collection: collection.String(),
			TokenID:    tokenID,
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
