package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
)

type setSponsoringRequest struct {
	callRequest
	Enabled         bool  `json:"enabled"`
	Mode            int32 `json:"mode"`
	RateLimitBlocks int64 `json:"rateLimitBlocks"`
}

type setSponsoringResult struct {
	Sponsoring sponsoringResult `json:"sponsoring"`
}

type setSponsoringResponse = HttpResponse[setSponsoringResult]

func (h *HttpHandler) SetSponsoring(ctx *fiber.Ctx) (err error) {
	address, err := parseAddressParam(ctx, "address")
	if err != nil {
		return errors.WithStack(err)
	}
	var req setSponsoringRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.NewPublicError("unable to parse body: " + err.Error())
	}
	call, err := req.toCall()
	if err != nil {
		return errors.WithStack(err)
	}

	config := entity.SponsorConfig{
		Enabled:         req.Enabled,
		Mode:            entity.SponsoringMode(req.Mode),
		RateLimitBlocks: req.RateLimitBlocks,
	}
	if err := h.engine.SetSponsoring(ctx.UserContext(), call, address, config); err != nil {
		return errors.Wrap(err, "error during SetSponsoring")
	}

	resp := setSponsoringResponse{
		Result: &setSponsoringResult{
			Sponsoring: sponsoringResult{
				Enabled:         config.Enabled,
				Mode:            config.Mode.String(),
				RateLimitBlocks: config.RateLimitBlocks,
			},
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
