package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Behyna/giftledger/internal/constants"
	"github.com/Behyna/giftledger/internal/model"
	"github.com/Behyna/giftledger/internal/service"
	"github.com/Behyna/giftledger/internal/testutil"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	phoneA = "09120000001"
	phoneB = "09120000002"
)

func debitCmd(clientTxID, serial string, storeID, amount int64, phone string) service.DebitCommand {
	return service.DebitCommand{
		ClientTransactionID: clientTxID,
		Amount:              amount,
		Serial:              serial,
		StoreID:             storeID,
		CustomerPhone:       phone,
		OrderAmount:         amount,
		Provisioning:        service.AutoProvision,
	}
}

func TestGiftCardService_Debit(t *testing.T) {
	ctx := context.Background()

	t.Run("debit decrements balance and binds owner", func(t *testing.T) {
		l := newLedger(t)
		store := l.fx.Store(l.fx.Company("acme").ID, "main")
		card := l.fx.GiftCard("GC-1", 1000)

		tx, err := l.cards.Debit(ctx, debitCmd("c-1", "GC-1", store.ID, 300, phoneA))

		require.NoError(t, err)
		assert.Equal(t, model.TxTypeDebit, tx.Type)
		assert.Equal(t, model.TxStatusPending, tx.Status)
		assert.Equal(t, int64(1000), tx.BalanceBefore)
		assert.NotEmpty(t, tx.TransactionID)

		fresh := l.fx.ReloadCard(card.ID)
		assert.Equal(t, int64(700), fresh.Balance)
		require.NotNil(t, fresh.CustomerID)
		assert.Equal(t, *tx.CustomerID, *fresh.CustomerID)
		assert.NotNil(t, fresh.LastUsedAt)
	})

	t.Run("retried debit is rejected and charged once", func(t *testing.T) {
		l := newLedger(t)
		store := l.fx.Store(l.fx.Company("acme").ID, "main")
		card := l.fx.GiftCard("GC-1", 1000)

		_, err := l.cards.Debit(ctx, debitCmd("c-1", "GC-1", store.ID, 100, phoneA))
		require.NoError(t, err)

		_, err = l.cards.Debit(ctx, debitCmd("c-1", "GC-1", store.ID, 100, phoneA))

		assertCode(t, constants.ErrCodeDuplicateClientTxID, err)
		assert.Equal(t, constants.CategoryConflict, constants.GetCategory(service.CodeOf(err)))
		assert.Equal(t, int64(900), l.fx.ReloadCard(card.ID).Balance)
		assert.Equal(t, int64(1), l.countRows(t, model.TxTypeDebit))
	})

	t.Run("ownership binds the first customer", func(t *testing.T) {
		l := newLedger(t)
		store := l.fx.Store(l.fx.Company("acme").ID, "main")
		l.fx.GiftCard("GC-1", 1000)

		_, err := l.cards.Debit(ctx, debitCmd("c-1", "GC-1", store.ID, 100, phoneA))
		require.NoError(t, err)

		_, err = l.cards.Debit(ctx, debitCmd("c-2", "GC-1", store.ID, 100, phoneB))
		assertCode(t, constants.ErrCodeCustomerMismatch, err)

		_, err = l.cards.Debit(ctx, debitCmd("c-3", "GC-1", store.ID, 100, phoneA))
		assert.NoError(t, err)
	})

	t.Run("first debit rebinds a preassigned owner", func(t *testing.T) {
		l := newLedger(t)
		store := l.fx.Store(l.fx.Company("acme").ID, "main")
		other := l.fx.Customer(phoneB)
		card := l.fx.GiftCard("GC-1", 1000, testutil.WithOwner(other.ID))

		first, err := l.cards.Debit(ctx, debitCmd("c-1", "GC-1", store.ID, 100, phoneA))
		require.NoError(t, err)

		fresh := l.fx.ReloadCard(card.ID)
		require.NotNil(t, fresh.CustomerID)
		assert.Equal(t, *first.CustomerID, *fresh.CustomerID)

		_, err = l.cards.Debit(ctx, debitCmd("c-2", "GC-1", store.ID, 100, phoneA))
		assert.NoError(t, err)

		_, err = l.cards.Debit(ctx, debitCmd("c-3", "GC-1", store.ID, 100, phoneB))
		assertCode(t, constants.ErrCodeCustomerMismatch, err)
	})

	t.Run("store-limited card", func(t *testing.T) {
		l := newLedger(t)
		company := l.fx.Company("acme")
		allowed := l.fx.Store(company.ID, "allowed")
		other := l.fx.Store(company.ID, "other")
		l.fx.GiftCard("GC-1", 1000, testutil.WithStores(allowed.ID))

		_, err := l.cards.Debit(ctx, debitCmd("c-1", "GC-1", other.ID, 100, phoneA))
		assertCode(t, constants.ErrCodeScopeViolation, err)

		_, err = l.cards.Debit(ctx, debitCmd("c-2", "GC-1", allowed.ID, 100, phoneA))
		assert.NoError(t, err)
	})

	t.Run("category-limited card", func(t *testing.T) {
		l := newLedger(t)
		store := l.fx.Store(l.fx.Company("acme").ID, "main")
		l.fx.GiftCard("GC-1", 1000, testutil.WithCategories(3))

		cmd := debitCmd("c-1", "GC-1", store.ID, 100, phoneA)
		cmd.CategoryIDs = []int64{3, 4}
		_, err := l.cards.Debit(ctx, cmd)
		assertCode(t, constants.ErrCodeScopeViolation, err)

		cmd = debitCmd("c-2", "GC-1", store.ID, 100, phoneA)
		cmd.CategoryIDs = []int64{3}
		_, err = l.cards.Debit(ctx, cmd)
		assert.NoError(t, err)
	})

	t.Run("used card without owner is a data integrity error", func(t *testing.T) {
		l := newLedger(t)
		store := l.fx.Store(l.fx.Company("acme").ID, "main")
		card := l.fx.GiftCard("GC-1", 1000)
		require.NoError(t, l.db.Model(card).Update("last_used_at", time.Now().UTC()).Error)

		_, err := l.cards.Debit(ctx, debitCmd("c-1", "GC-1", store.ID, 100, phoneA))

		assertCode(t, constants.ErrCodeDataIntegrity, err)
		assert.ErrorIs(t, err, service.ErrOwnerlessInstrument)
		assert.Equal(t, 1.0, prom.ToFloat64(l.metrics.DataIntegrityErrors.WithLabelValues(constants.ErrCodeDataIntegrity)))
		assert.Equal(t, int64(1000), l.fx.ReloadCard(card.ID).Balance)
		assert.Equal(t, int64(0), l.countRows(t, model.TxTypeDebit))
	})

	t.Run("rejections", func(t *testing.T) {
		l := newLedger(t)
		store := l.fx.Store(l.fx.Company("acme").ID, "main")
		l.fx.GiftCard("GC-LOW", 1000, testutil.WithBalance(50))
		l.fx.GiftCard("GC-BLOCKED", 1000, testutil.Blocked())
		l.fx.GiftCard("GC-INACTIVE", 1000, testutil.Inactive())
		l.fx.GiftCard("GC-EXPIRED", 1000, testutil.WithExpiry(time.Now().UTC().Add(-time.Hour)))
		l.fx.GiftCard("GC-OK", 1000)

		tests := []struct {
			name string
			cmd  service.DebitCommand
			want string
		}{
			{name: "insufficient balance", cmd: debitCmd("r-1", "GC-LOW", store.ID, 100, phoneA), want: constants.ErrCodeInsufficientBalance},
			{name: "blocked", cmd: debitCmd("r-2", "GC-BLOCKED", store.ID, 100, phoneA), want: constants.ErrCodeInstrumentBlocked},
			{name: "inactive", cmd: debitCmd("r-3", "GC-INACTIVE", store.ID, 100, phoneA), want: constants.ErrCodeInstrumentInactive},
			{name: "expired", cmd: debitCmd("r-4", "GC-EXPIRED", store.ID, 100, phoneA), want: constants.ErrCodeInstrumentExpired},
			{name: "unknown card", cmd: debitCmd("r-5", "GC-NONE", store.ID, 100, phoneA), want: constants.ErrCodeInstrumentNotFound},
			{name: "unknown store", cmd: debitCmd("r-6", "GC-OK", store.ID+100, 100, phoneA), want: constants.ErrCodeStoreNotFound},
			{name: "non-positive amount", cmd: debitCmd("r-7", "GC-OK", store.ID, 0, phoneA), want: constants.ErrCodeInvalidAmount},
			{name: "malformed phone", cmd: debitCmd("r-8", "GC-OK", store.ID, 100, "12ab"), want: constants.ErrCodeInvalidPhone},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := l.cards.Debit(ctx, tt.cmd)
				assertCode(t, tt.want, err)
			})
		}

		assert.Equal(t, int64(0), l.countRows(t, model.TxTypeDebit))
	})

	t.Run("failed debit provisions no customer", func(t *testing.T) {
		l := newLedger(t)
		company := l.fx.Company("acme")
		allowed := l.fx.Store(company.ID, "allowed")
		other := l.fx.Store(company.ID, "other")
		l.fx.GiftCard("GC-1", 1000, testutil.WithStores(allowed.ID))

		_, err := l.cards.Debit(ctx, debitCmd("c-1", "GC-NONE", allowed.ID, 100, phoneA))
		assertCode(t, constants.ErrCodeInstrumentNotFound, err)

		_, err = l.cards.Debit(ctx, debitCmd("c-2", "GC-1", other.ID, 100, phoneA))
		assertCode(t, constants.ErrCodeScopeViolation, err)

		var customers int64
		require.NoError(t, l.db.Model(&model.Customer{}).Count(&customers).Error)
		assert.Equal(t, int64(0), customers)
	})

	t.Run("lookup-only policy does not create customers", func(t *testing.T) {
		l := newLedger(t)
		store := l.fx.Store(l.fx.Company("acme").ID, "main")
		l.fx.GiftCard("GC-1", 1000)

		cmd := debitCmd("c-1", "GC-1", store.ID, 100, phoneA)
		cmd.Provisioning = service.LookupOnly
		_, err := l.cards.Debit(ctx, cmd)
		assertCode(t, constants.ErrCodeCustomerNotFound, err)

		l.fx.Customer(phoneA)
		_, err = l.cards.Debit(ctx, cmd)
		assert.NoError(t, err)
	})
}

func TestGiftCardService_ConcurrentDebits(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	store := l.fx.Store(l.fx.Company("acme").ID, "main")
	card := l.fx.GiftCard("GC-1", 500)
	l.fx.Customer(phoneA)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.cards.Debit(ctx, debitCmd(fmt.Sprintf("c-%d", i), "GC-1", store.ID, 100, phoneA))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, int64(0), l.fx.ReloadCard(card.ID).Balance)
	assert.Equal(t, int64(5), l.countRows(t, model.TxTypeDebit))
}

func TestGiftCardService_Settle(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*ledger, *model.GiftCard, model.Transaction) {
		l := newLedger(t)
		store := l.fx.Store(l.fx.Company("acme").ID, "main")
		card := l.fx.GiftCard("GC-1", 1000)
		debit, err := l.cards.Debit(ctx, debitCmd("c-1", "GC-1", store.ID, 100, phoneA))
		require.NoError(t, err)
		return l, card, debit
	}

	settle := func(typ service.SettlementType, debit model.Transaction) service.SettleCommand {
		return service.SettleCommand{
			Type:                typ,
			ClientTransactionID: debit.ClientTransactionID,
			TransactionID:       debit.TransactionID,
			Amount:              debit.Amount,
			Serial:              "GC-1",
			OrderAmount:         debit.OrderAmount,
		}
	}

	t.Run("confirmation", func(t *testing.T) {
		l, card, debit := setup(t)

		row, err := l.cards.Settle(ctx, settle(service.Confirmation, debit))

		require.NoError(t, err)
		assert.Equal(t, model.TxTypeConfirmation, row.Type)
		assert.Equal(t, model.TxStatusConfirmed, row.Status)
		assert.Equal(t, debit.TransactionID, row.TransactionID)
		require.NotNil(t, row.DebitID)
		assert.Equal(t, debit.ID, *row.DebitID)
		assert.Equal(t, debit.CustomerID, row.CustomerID)
		assert.Equal(t, debit.StoreID, row.StoreID)
		assert.Equal(t, model.TxStatusConfirmed, l.fx.Reload(&debit).Status)
		assert.Equal(t, int64(900), l.fx.ReloadCard(card.ID).Balance)
	})

	t.Run("reversal restores balance", func(t *testing.T) {
		l, card, debit := setup(t)

		row, err := l.cards.Settle(ctx, settle(service.Reversal, debit))

		require.NoError(t, err)
		assert.Equal(t, model.TxStatusReversed, row.Status)
		assert.Equal(t, int64(900), row.BalanceBefore)
		assert.Equal(t, model.TxStatusReversed, l.fx.Reload(&debit).Status)
		assert.Equal(t, int64(1000), l.fx.ReloadCard(card.ID).Balance)
	})

	t.Run("confirmation and reversal exclude each other", func(t *testing.T) {
		l, _, debit := setup(t)
		_, err := l.cards.Settle(ctx, settle(service.Confirmation, debit))
		require.NoError(t, err)

		_, err = l.cards.Settle(ctx, settle(service.Reversal, debit))
		assertCode(t, constants.ErrCodeAlreadyConfirmed, err)

		_, err = l.cards.Settle(ctx, settle(service.Confirmation, debit))
		assertCode(t, constants.ErrCodeAlreadyConfirmed, err)

		l2, card2, debit2 := setup(t)
		_, err = l2.cards.Settle(ctx, settle(service.Reversal, debit2))
		require.NoError(t, err)

		_, err = l2.cards.Settle(ctx, settle(service.Confirmation, debit2))
		assertCode(t, constants.ErrCodeAlreadyReversed, err)
		assert.Equal(t, int64(1000), l2.fx.ReloadCard(card2.ID).Balance)
	})

	t.Run("refund requires a confirmation", func(t *testing.T) {
		l, card, debit := setup(t)

		_, err := l.cards.Settle(ctx, settle(service.Refund, debit))
		assertCode(t, constants.ErrCodeNotYetConfirmed, err)
		assert.Equal(t, int64(900), l.fx.ReloadCard(card.ID).Balance)
	})

	t.Run("refund after confirmation", func(t *testing.T) {
		l, card, debit := setup(t)
		confirmation, err := l.cards.Settle(ctx, settle(service.Confirmation, debit))
		require.NoError(t, err)

		refund, err := l.cards.Settle(ctx, settle(service.Refund, debit))

		require.NoError(t, err)
		assert.Equal(t, model.TxStatusRefunded, refund.Status)
		assert.Equal(t, int64(1000), l.fx.ReloadCard(card.ID).Balance)
		assert.Equal(t, model.TxStatusRefunded, l.fx.Reload(&debit).Status)
		assert.Equal(t, model.TxStatusRefunded, l.fx.Reload(&confirmation).Status)

		_, err = l.cards.Settle(ctx, settle(service.Refund, debit))
		assertCode(t, constants.ErrCodeAlreadyRefunded, err)
	})

	t.Run("refund after reversal", func(t *testing.T) {
		l, _, debit := setup(t)
		_, err := l.cards.Settle(ctx, settle(service.Reversal, debit))
		require.NoError(t, err)

		_, err = l.cards.Settle(ctx, settle(service.Refund, debit))
		assertCode(t, constants.ErrCodeAlreadyReversed, err)
	})

	t.Run("lookup keys", func(t *testing.T) {
		l, _, debit := setup(t)

		cmd := settle(service.Reversal, debit)
		cmd.ClientTransactionID = "unknown"
		_, err := l.cards.Settle(ctx, cmd)
		assertCode(t, constants.ErrCodeTransactionNotFound, err)

		cmd = settle(service.Confirmation, debit)
		cmd.TransactionID = uuid.NewString()
		_, err = l.cards.Settle(ctx, cmd)
		assertCode(t, constants.ErrCodeTransactionNotFound, err)
	})

	t.Run("mismatched request", func(t *testing.T) {
		l, _, debit := setup(t)
		l.fx.GiftCard("GC-2", 1000)

		cmd := settle(service.Confirmation, debit)
		cmd.Amount = 99
		_, err := l.cards.Settle(ctx, cmd)
		assertCode(t, constants.ErrCodeTransactionMismatch, err)

		cmd = settle(service.Confirmation, debit)
		cmd.Serial = "GC-2"
		_, err = l.cards.Settle(ctx, cmd)
		assertCode(t, constants.ErrCodeTransactionMismatch, err)
	})

	t.Run("unsupported type", func(t *testing.T) {
		l, _, debit := setup(t)

		_, err := l.cards.Settle(ctx, settle(service.SettlementType("CHARGEBACK"), debit))
		assertCode(t, constants.ErrCodeUnsupportedType, err)
	})

	t.Run("restore above initial amount", func(t *testing.T) {
		l := newLedger(t)
		store := l.fx.Store(l.fx.Company("acme").ID, "main")
		card := l.fx.GiftCard("GC-1", 1000)
		debit := l.fx.Tx(model.Transaction{TransactionID: uuid.NewString(), ClientTransactionID: "c-1", Type: model.TxTypeDebit,
			Status: model.TxStatusPending, InstrumentID: card.ID, Amount: 100, StoreID: &store.ID})

		_, err := l.cards.Settle(ctx, settle(service.Reversal, *debit))

		assertCode(t, constants.ErrCodeAmountInconsistency, err)
		assert.Equal(t, 1.0, prom.ToFloat64(l.metrics.DataIntegrityErrors.WithLabelValues(constants.ErrCodeAmountInconsistency)))
		assert.Equal(t, int64(1000), l.fx.ReloadCard(card.ID).Balance)
		assert.Equal(t, model.TxStatusPending, l.fx.Reload(debit).Status)
	})
}

func TestGiftCardService_Credit(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	card := l.fx.GiftCard("GC-1", 1000, testutil.WithBalance(600))

	row, err := l.cards.Credit(ctx, service.CreditCommand{ClientTransactionID: "cr-1", Amount: 300, Serial: "GC-1"})
	require.NoError(t, err)
	assert.Equal(t, model.TxTypeCredit, row.Type)
	assert.Equal(t, model.TxStatusConfirmed, row.Status)
	assert.Equal(t, int64(600), row.BalanceBefore)
	assert.Equal(t, int64(900), l.fx.ReloadCard(card.ID).Balance)

	_, err = l.cards.Credit(ctx, service.CreditCommand{ClientTransactionID: "cr-2", Amount: 101, Serial: "GC-1"})
	assertCode(t, constants.ErrCodeInvalidAmount, err)

	_, err = l.cards.Credit(ctx, service.CreditCommand{ClientTransactionID: "cr-1", Amount: 50, Serial: "GC-1"})
	assertCode(t, constants.ErrCodeDuplicateClientTxID, err)
	assert.Equal(t, int64(900), l.fx.ReloadCard(card.ID).Balance)
}

func TestGiftCardService_Queries(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	store := l.fx.Store(l.fx.Company("acme").ID, "main")
	l.fx.GiftCard("GC-1", 1000)

	debit, err := l.cards.Debit(ctx, debitCmd("c-1", "GC-1", store.ID, 250, phoneA))
	require.NoError(t, err)
	_, err = l.cards.Settle(ctx, service.SettleCommand{Type: service.Confirmation, TransactionID: debit.TransactionID,
		Amount: 250, Serial: "GC-1"})
	require.NoError(t, err)

	t.Run("check status", func(t *testing.T) {
		status, err := l.cards.CheckStatus(ctx, "c-1")

		require.NoError(t, err)
		assert.Equal(t, debit.ID, status.Opening.ID)
		assert.Equal(t, model.TxStatusConfirmed, status.Status)
		require.Len(t, status.Settlements, 1)
		assert.Equal(t, model.TxTypeConfirmation, status.Settlements[0].Type)

		_, err = l.cards.CheckStatus(ctx, "missing")
		assertCode(t, constants.ErrCodeTransactionNotFound, err)
	})

	t.Run("history", func(t *testing.T) {
		rows, err := l.cards.History(ctx, "GC-1")

		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, model.TxTypeDebit, rows[0].Type)
		assert.Equal(t, model.TxTypeConfirmation, rows[1].Type)

		_, err = l.cards.History(ctx, "GC-NONE")
		assertCode(t, constants.ErrCodeInstrumentNotFound, err)
	})

	t.Run("balance", func(t *testing.T) {
		bal, err := l.cards.Balance(ctx, "GC-1")

		require.NoError(t, err)
		assert.Equal(t, int64(750), bal.Balance)
		assert.Equal(t, int64(1000), bal.InitialAmount)
		assert.NotNil(t, bal.LastUsedAt)
	})
}
