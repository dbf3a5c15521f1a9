package v1

import (
	"net/http"

	"github.com/Behyna/giftledger/internal/api/contract"
	"github.com/Behyna/giftledger/internal/api/validator"
	"github.com/Behyna/giftledger/internal/config"
	"github.com/Behyna/giftledger/internal/constants"
	"github.com/Behyna/giftledger/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	HeaderTrackID     = "X-Track-Id"
	HeaderPrincipalID = "X-Principal-Id"
)

type Handler struct {
	logger       *zap.Logger
	giftCards    service.GiftCardService
	discounts    service.DiscountCodeService
	settlements  service.SettlementAggregator
	reconciler   service.ReconciliationEngine
	XValidator   validator.IXValidator
	provisioning service.ProvisioningPolicy
}

func NewHandler(cfg *config.Config, logger *zap.Logger, giftCards service.GiftCardService, discounts service.DiscountCodeService,
	settlements service.SettlementAggregator, reconciler service.ReconciliationEngine, XValidator validator.IXValidator) *Handler {
	return &Handler{
		logger:       logger,
		giftCards:    giftCards,
		discounts:    discounts,
		settlements:  settlements,
		reconciler:   reconciler,
		XValidator:   XValidator,
		provisioning: service.PolicyFromConfig(cfg.Ledger.AutoProvisionCustomers),
	}
}

func (h *Handler) Pong(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (h *Handler) ok(c *fiber.Ctx, message string, result any) error {
	return c.JSON(contract.Response{
		Successful: true,
		Code:       "success",
		Message:    message,
		TrackID:    c.Get(HeaderTrackID),
		Result:     result,
	})
}

func (h *Handler) invalid(c *fiber.Ctx, responseError contract.Response, request any) error {
	h.logger.Warn("Error Validator", zap.String("path", c.Path()), zap.String("code", responseError.Code), zap.Any("request", request))
	responseError.Category = string(constants.CategoryInvalidInput)
	responseError.TrackID = c.Get(HeaderTrackID)
	return c.JSON(responseError)
}

func (h *Handler) Debit(c *fiber.Ctx) error {
	var req DebitRequest
	if responseError := h.XValidator.Validator(&req, constants.MessageErrorFormat, c); responseError.Code != "" {
		return h.invalid(c, responseError, req)
	}

	tx, err := h.giftCards.Debit(c.UserContext(), service.DebitCommand{
		ClientTransactionID: req.ClientTransactionID,
		Amount:              req.Amount,
		Serial:              req.Serial,
		StoreID:             req.StoreID,
		CustomerPhone:       req.CustomerPhone,
		OrderAmount:         req.OrderAmount,
		CategoryIDs:         req.CategoryIDs,
		PrincipalID:         c.Get(HeaderPrincipalID),
		Provisioning:        h.provisioning,
	})
	if err != nil {
		return err
	}

	c.Status(http.StatusCreated)
	return h.ok(c, "gift card debited", tx)
}

func (h *Handler) Confirm(c *fiber.Ctx) error {
	return h.settle(c, service.Confirmation, "debit confirmed")
}

func (h *Handler) Reverse(c *fiber.Ctx) error {
	return h.settle(c, service.Reversal, "debit reversed")
}

func (h *Handler) Refund(c *fiber.Ctx) error {
	return h.settle(c, service.Refund, "debit refunded")
}

func (h *Handler) settle(c *fiber.Ctx, typ service.SettlementType, message string) error {
	var req SettleRequest
	if responseError := h.XValidator.Validator(&req, constants.MessageErrorFormat, c); responseError.Code != "" {
		return h.invalid(c, responseError, req)
	}

	tx, err := h.giftCards.Settle(c.UserContext(), service.SettleCommand{
		Type:                typ,
		ClientTransactionID: req.ClientTransactionID,
		TransactionID:       req.TransactionID,
		Amount:              req.Amount,
		Serial:              req.Serial,
		OrderAmount:         req.OrderAmount,
		PrincipalID:         c.Get(HeaderPrincipalID),
	})
	if err != nil {
		return err
	}

	return h.ok(c, message, tx)
}

func (h *Handler) Credit(c *fiber.Ctx) error {
	var req CreditRequest
	if responseError := h.XValidator.Validator(&req, constants.MessageErrorFormat, c); responseError.Code != "" {
		return h.invalid(c, responseError, req)
	}

	tx, err := h.giftCards.Credit(c.UserContext(), service.CreditCommand{
		ClientTransactionID: req.ClientTransactionID,
		Amount:              req.Amount,
		Serial:              req.Serial,
		StoreID:             req.StoreID,
		PrincipalID:         c.Get(HeaderPrincipalID),
	})
	if err != nil {
		return err
	}

	c.Status(http.StatusCreated)
	return h.ok(c, "gift card credited", tx)
}

func (h *Handler) Status(c *fiber.Ctx) error {
	status, err := h.giftCards.CheckStatus(c.UserContext(), c.Params("clientTransactionId"))
	if err != nil {
		return err
	}

	return h.ok(c, "", status)
}

func (h *Handler) History(c *fiber.Ctx) error {
	rows, err := h.giftCards.History(c.UserContext(), c.Params("serial"))
	if err != nil {
		return err
	}

	return h.ok(c, "", rows)
}

func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.giftCards.Balance(c.UserContext(), c.Params("serial"))
	if err != nil {
		return err
	}

	return h.ok(c, "", balance)
}

func (h *Handler) Redeem(c *fiber.Ctx) error {
	var req RedeemRequest
	if responseError := h.XValidator.Validator(&req, constants.MessageErrorFormat, c); responseError.Code != "" {
		return h.invalid(c, responseError, req)
	}

	tx, err := h.discounts.Redeem(c.UserContext(), service.RedeemCommand{
		ClientTransactionID: req.ClientTransactionID,
		Serial:              req.Serial,
		StoreID:             req.StoreID,
		CustomerPhone:       req.CustomerPhone,
		OrderAmount:         req.OrderAmount,
		CategoryIDs:         req.CategoryIDs,
		PrincipalID:         c.Get(HeaderPrincipalID),
		Provisioning:        h.provisioning,
	})
	if err != nil {
		return err
	}

	c.Status(http.StatusCreated)
	return h.ok(c, "discount code redeemed", tx)
}

func (h *Handler) ConfirmRedeem(c *fiber.Ctx) error {
	return h.settleRedeem(c, service.Confirmation, "redeem confirmed")
}

func (h *Handler) ReverseRedeem(c *fiber.Ctx) error {
	return h.settleRedeem(c, service.Reversal, "redeem reversed")
}

func (h *Handler) settleRedeem(c *fiber.Ctx, typ service.SettlementType, message string) error {
	var req SettleRedeemRequest
	if responseError := h.XValidator.Validator(&req, constants.MessageErrorFormat, c); responseError.Code != "" {
		return h.invalid(c, responseError, req)
	}

	tx, err := h.discounts.Settle(c.UserContext(), service.SettleRedeemCommand{
		Type:                typ,
		ClientTransactionID: req.ClientTransactionID,
		TransactionID:       req.TransactionID,
		Serial:              req.Serial,
		OrderAmount:         req.OrderAmount,
		PrincipalID:         c.Get(HeaderPrincipalID),
	})
	if err != nil {
		return err
	}

	return h.ok(c, message, tx)
}

func (h *Handler) RedeemStatus(c *fiber.Ctx) error {
	status, err := h.discounts.CheckStatus(c.UserContext(), c.Params("clientTransactionId"))
	if err != nil {
		return err
	}

	return h.ok(c, "", status)
}

func (h *Handler) SettlementReport(c *fiber.Ctx) error {
	var req SettlementReportRequest
	if err := c.QueryParser(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return h.invalid(c, contract.Response{Code: constants.ErrCodeInvalidRequestBody, Message: err.Error()}, req)
	}

	if errs := h.XValidator.Validate(&req); len(errs) > 0 {
		c.Status(http.StatusUnprocessableEntity)
		return h.invalid(c, contract.Response{Code: constants.ErrCodeValidationFailed, Message: constants.ErrMsgValidationFailed}, req)
	}

	start, end, err := req.window()
	if err != nil {
		c.Status(http.StatusUnprocessableEntity)
		return h.invalid(c, contract.Response{Code: constants.ErrCodeValidationFailed, Message: err.Error()}, req)
	}

	report, err := h.settlements.Report(c.UserContext(), service.SettlementReportQuery{
		Start:     start,
		End:       end,
		CompanyID: req.CompanyID,
		StoreID:   req.StoreID,
	})
	if err != nil {
		return err
	}

	return h.ok(c, "", report)
}

func (h *Handler) Reconcile(c *fiber.Ctx) error {
	var req ReconcileRequest
	if responseError := h.XValidator.Validator(&req, constants.MessageErrorFormat, c); responseError.Code != "" {
		return h.invalid(c, responseError, req)
	}

	result, err := h.reconciler.Run(c.UserContext(), req.Inspect)
	if err != nil {
		return err
	}

	return h.ok(c, "reconciliation finished", result)
}
