package mocks

import (
	"context"

	"github.com/Behyna/giftledger/internal/model"
	"github.com/Behyna/giftledger/internal/service"
	"github.com/stretchr/testify/mock"
)

type GiftCardService struct {
	mock.Mock
}

func (g *GiftCardService) Debit(ctx context.Context, cmd service.DebitCommand) (model.Transaction, error) {
	args := g.Called(ctx, cmd)
	return args.Get(0).(model.Transaction), args.Error(1)
}

func (g *GiftCardService) Settle(ctx context.Context, cmd service.SettleCommand) (model.Transaction, error) {
	args := g.Called(ctx, cmd)
	return args.Get(0).(model.Transaction), args.Error(1)
}

func (g *GiftCardService) Credit(ctx context.Context, cmd service.CreditCommand) (model.Transaction, error) {
	args := g.Called(ctx, cmd)
	return args.Get(0).(model.Transaction), args.Error(1)
}

func (g *GiftCardService) CheckStatus(ctx context.Context, clientTxID string) (service.StatusResult, error) {
	args := g.Called(ctx, clientTxID)
	return args.Get(0).(service.StatusResult), args.Error(1)
}

func (g *GiftCardService) History(ctx context.Context, serial string) ([]model.Transaction, error) {
	args := g.Called(ctx, serial)
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (g *GiftCardService) Balance(ctx context.Context, serial string) (service.BalanceResult, error) {
	args := g.Called(ctx, serial)
	return args.Get(0).(service.BalanceResult), args.Error(1)
}

type DiscountCodeService struct {
	mock.Mock
}

func (d *DiscountCodeService) Redeem(ctx context.Context, cmd service.RedeemCommand) (model.Transaction, error) {
	args := d.Called(ctx, cmd)
	return args.Get(0).(model.Transaction), args.Error(1)
}

func (d *DiscountCodeService) Settle(ctx context.Context, cmd service.SettleRedeemCommand) (model.Transaction, error) {
	args := d.Called(ctx, cmd)
	return args.Get(0).(model.Transaction), args.Error(1)
}

func (d *DiscountCodeService) CheckStatus(ctx context.Context, clientTxID string) (service.StatusResult, error) {
	args := d.Called(ctx, clientTxID)
	return args.Get(0).(service.StatusResult), args.Error(1)
}

type SettlementAggregator struct {
	mock.Mock
}

func (s *SettlementAggregator) Report(ctx context.Context, q service.SettlementReportQuery) (service.SettlementReport, error) {
	args := s.Called(ctx, q)
	return args.Get(0).(service.SettlementReport), args.Error(1)
}

type ReconciliationEngine struct {
	mock.Mock
}

func (r *ReconciliationEngine) Run(ctx context.Context, inspect bool) (service.ReconciliationResult, error) {
	args := r.Called(ctx, inspect)
	return args.Get(0).(service.ReconciliationResult), args.Error(1)
}
