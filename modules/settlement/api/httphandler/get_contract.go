package httphandler

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
)

type sponsoringResult struct {
	Enabled         bool   `json:"enabled"`
	Mode            string `json:"mode"`
	RateLimitBlocks int64  `json:"rateLimitBlocks"`
}

type getContractResult struct {
	Address    string           `json:"address"`
	Admin      string           `json:"admin"`
	Balance    amountResult     `json:"balance"`
	FeeAmount  amountResult     `json:"feeAmount"`
	Sponsoring sponsoringResult `json:"sponsoring"`
	CreatedAt  time.Time        `json:"createdAt"`
}

type getContractResponse = HttpResponse[getContractResult]

func (h *HttpHandler) GetContract(ctx *fiber.Ctx) (err error) {
	address, err := parseAddressParam(ctx, "address")
	if err != nil {
		return errors.WithStack(err)
	}

	contract, err := h.usecase.GetSponsorContract(ctx.UserContext(), address)
	if err != nil {
		return errors.Wrap(err, "error during GetSponsorContract")
	}

	resp := getContractResponse{
		Result: &getContractResult{
			Address:   contract.Address.String(),
			Admin:     contract.Admin.Key(),
			Balance:   formatAmount(contract.Balance),
			FeeAmount: formatAmount(contract.FeeAmount),
			Sponsoring: sponsoringResult{
				Enabled:         contract.Sponsoring.Enabled,
				Mode:            contract.Sponsoring.Mode.String(),
				RateLimitBlocks: contract.Sponsoring.RateLimitBlocks,
			},
			CreatedAt: contract.CreatedAt,
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
