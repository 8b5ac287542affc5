package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/gofiber/fiber/v2"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement"
	"github.com/sponsornet/settlement-engine/modules/settlement/usecase"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
	"github.com/sponsornet/settlement-engine/pkg/decimals"
)

// nativeDecimals is the display precision of the native currency.
const nativeDecimals = 18

type HttpHandler struct {
	engine  *settlement.Engine
	usecase *usecase.Usecase
}

func New(engine *settlement.Engine, usecase *usecase.Usecase) *HttpHandler {
	return &HttpHandler{
		engine:  engine,
		usecase: usecase,
	}
}

type HttpResponse[T any] struct {
	Error  *string `json:"error"`
	Result *T      `json:"result,omitempty"`
}

// callRequest is the wire form of a signed call: the caller's cross-address
// and the attached native value as a decimal string of smallest units.
type callRequest struct {
	Caller crossaddr.CrossAddress `json:"caller"`
	Value  string                 `json:"value"`
}

func (r callRequest) toCall() (settlement.Call, error) {
	value, err := parseAmount(r.Value)
	if err != nil {
		return settlement.Call{}, errors.WithStack(err)
	}
	return settlement.Call{Caller: r.Caller, Value: value}, nil
}

// parseAmount parses a decimal string of smallest units. Empty means zero.
func parseAmount(s string) (uint128.Uint128, error) {
	if s == "" {
		return uint128.Zero, nil
	}
	value, err := uint128.FromString(s)
	if err != nil {
		return uint128.Zero, errors.Wrapf(errs.InvalidArgument, "invalid amount %q", s)
	}
	return value, nil
}

func parseAddressParam(ctx *fiber.Ctx, name string) (common.Address, error) {
	address, err := common.HexToAddress(ctx.Params(name))
	if err != nil {
		return common.Address{}, errs.NewPublicError("invalid address parameter: " + name)
	}
	if address.IsZero() {
		return common.Address{}, errs.NewPublicError("address parameter must not be zero: " + name)
	}
	return address, nil
}

// formatAmount renders a smallest-unit amount alongside its display form.
type amountResult struct {
	Amount  string `json:"amount"`
	Decimal string `json:"decimal"`
}

func formatAmount(value uint128.Uint128) amountResult {
	return amountResult{
		Amount:  value.String(),
		Decimal: decimals.ToDecimal(value, nativeDecimals).String(),
	}
}
