package errors

import (
	"errors"

	"github.com/Behyna/giftledger/internal/api/contract"
	"github.com/Behyna/giftledger/internal/constants"
	"github.com/Behyna/giftledger/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const headerTrackID = "X-Track-Id"

func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var serviceErr service.Error
		if errors.As(err, &serviceErr) {
			return handleServiceError(c, serviceErr)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(contract.Response{
				Code:     constants.ErrCodeInvalidRequestBody,
				Category: string(constants.CategoryInvalidInput),
				Message:  fiberErr.Message,
				TrackID:  c.Get(headerTrackID),
			})
		}

		logger.Error("Unhandled request error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(contract.Response{
			Code:     constants.ErrCodeOperationFailed,
			Category: string(constants.CategoryInternal),
			Message:  constants.ErrMsgOperationFailed,
			TrackID:  c.Get(headerTrackID),
		})
	}
}

func handleServiceError(c *fiber.Ctx, err service.Error) error {
	return c.Status(constants.GetHTTPStatus(err.Code)).JSON(contract.Response{
		Code:     err.Code,
		Category: string(constants.GetCategory(err.Code)),
		Message:  constants.GetErrorMessage(err.Code),
		TrackID:  c.Get(headerTrackID),
	})
}
