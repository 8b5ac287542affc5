package httphandler

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
)

type createEventRequest struct {
	callRequest
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	BaseURI     string `json:"baseUri"`

	StartTimestamp time.Time `json:"startTimestamp"`
	EndTimestamp   time.Time `json:"endTimestamp"`

	TokenImage      string                  `json:"tokenImage"`
	TokenAttributes []entity.TokenAttribute `json:"tokenAttributes"`
}

type createEventResult struct {
	Collection string `json:"collection"`
}

type createEventResponse = HttpResponse[createEventResult]

func (h *HttpHandler) CreateEvent(ctx *fiber.Ctx) (err error) {
	address, err := parseAddressParam(ctx, "address")
	if err != nil {
		return errors.WithStack(err)
	}
	var req createEventRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.NewPublicError("unable to parse body: " + err.Error())
	}
	call, err := req.toCall()
	if err != nil {
		return errors.WithStack(err)
	}

	collection, err := h.engine.CreateEvent(ctx.UserContext(), call, address, settlement.CreateEventParams{
		Name:            req.Name,
		Symbol:          req.Symbol,
		Description:     req.Description,
		BaseURI:         req.BaseURI,
		StartTimestamp:  req.StartTimestamp,
		EndTimestamp:    req.EndTimestamp,
		TokenImage:      req.TokenImage,
		TokenAttributes: req.TokenAttributes,
	})
	if err != nil {
		return errors.Wrap(err, "error during CreateEvent")
	}

	resp := createEventResponse{
		Result: &createEventResult{
			Collection: collection.String(),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
