package errorhandler

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/pkg/logger"
	"github.com/sponsornet/settlement-engine/pkg/logger/slogx"
)

func NewHTTPErrorHandler() func(ctx *fiber.Ctx, err error) error {
	return func(ctx *fiber.Ctx, err error) error {
		if e := new(errs.PublicError); errors.As(err, &e) {
			return errors.WithStack(ctx.Status(http.StatusBadRequest).JSON(map[string]any{
				"error": e.Message(),
			}))
		}
		if e := new(fiber.Error); errors.As(err, &e) {
			return errors.WithStack(ctx.Status(e.Code).SendString(e.Error()))
		}
		if kind := new(errs.ErrorKind); errors.As(err, kind) {
			return errors.WithStack(ctx.Status(statusFromKind(*kind)).JSON(map[string]any{
				"error": err.Error(),
			}))
		}

		logger.ErrorContext(ctx.UserContext(), "Something went wrong, unhandled api error", err,
			slogx.String("event", "api_unhandled_error"),
		)

		return errors.WithStack(ctx.Status(http.StatusInternalServerError).JSON(map[string]any{
			"error": "Internal Server Error",
		}))
	}
}

func statusFromKind(kind errs.ErrorKind) int {
	switch kind {
	case errs.NotFound:
		return http.StatusNotFound
	case errs.Unauthorized:
		return http.StatusForbidden
	case errs.Duplicate, errs.ActionNotConfirmed:
		return http.StatusConflict
	case errs.InvalidArgument, errs.InvalidIdentity, errs.Unsupported,
		errs.InsufficientFee, errs.InsufficientFunds, errs.OutsideWindow,
		errs.BatchSettlementFailed:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
