package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

type batchSaleItemRequest struct {
	Collection common.Address `json:"collection"`
	TokenID    uint64         `json:"tokenId"`
	Price      string         `json:"price"`
	Currency   uint32         `json:"currency"`
}

type batchSettleRequest struct {
	callRequest
	Destination crossaddr.CrossAddress `json:"destination"`
	Items       []batchSaleItemRequest `json:"items"`
}

type transferReceiptResult struct {
	Index      int          `json:"index"`
	Collection string       `json:"collection"`
	TokenID    uint64       `json:"tokenId"`
	From       string       `json:"from"`
	To         string       `json:"to"`
	Price      amountResult `json:"price"`
	Currency   uint32       `json:"currency"`
}

type batchSettleResult struct {
	Receipts []transferReceiptResult `json:"receipts"`
}

type batchSettleResponse = HttpResponse[batchSettleResult]

func (h *HttpHandler) BatchSettle(ctx *fiber.Ctx) (err error) {
	address, err := parseAddressParam(ctx, "address")
	if err != nil {
		return errors.WithStack(err)
	}
	var req batchSettleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.NewPublicError("unable to parse body: " + err.Error())
	}
	call, err := req.toCall()
	if err != nil {
		return errors.WithStack(err)
	}

	items := make([]entity.SaleItem, 0, len(req.Items))
	for _, item := range req.Items {
		price, err := parseAmount(item.Price)
		if err != nil {
			return errors.WithStack(err)
		}
		items = append(items, entity.SaleItem{
			Collection: item.Collection,
			TokenID:    item.TokenID,
			Price:      price,
			Currency:   entity.Currency(item.Currency),
		})
	}

	receipts, err := h.engine.ExecuteBatch(ctx.UserContext(), call, address, entity.BatchSaleRequest{
		Destination: req.Destination,
		Items:       items,
	})
	if err != nil {
		return errors.Wrap(err, "error during ExecuteBatch")
	}

	resp := batchSettleResponse{
		Result: &batchSettleResult{
			Receipts: lo.Map(receipts, func(receipt entity.TransferReceipt, _ int) transferReceiptResult {
				return transferReceiptResult{
					Index:      receipt.Index,
					Collection: receipt.Collection.String(),
					TokenID:    receipt.TokenID,
					From:       receipt.From.Key(),
					To:         receipt.To.Key(),
					Price:      formatAmount(receipt.Price),
					Currency:   uint32(receipt.Currency),
				}
			}),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
