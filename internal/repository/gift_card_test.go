package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/Behyna/giftledger/internal/repository"
	"github.com/Behyna/giftledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGiftCardRepository_Find(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.NewFixture(t, db)
	repo := repository.NewGiftCardRepository(db)
	ctx := context.Background()

	card := fx.GiftCard("GC-1", 1000, testutil.WithStores(5, 6), testutil.WithCategories(9))

	t.Run("by serial preloads allow-lists", func(t *testing.T) {
		got, err := repo.FindBySerial(ctx, "GC-1")

		require.NoError(t, err)
		assert.Equal(t, card.ID, got.ID)
		assert.ElementsMatch(t, []int64{5, 6}, got.Scope().StoreIDs)
		assert.Equal(t, []int64{9}, got.Scope().CategoryIDs)
	})

	t.Run("by id", func(t *testing.T) {
		got, err := repo.FindByID(ctx, card.ID)

		require.NoError(t, err)
		assert.Equal(t, "GC-1", got.Serial)
	})

	t.Run("missing serial", func(t *testing.T) {
		_, err := repo.FindBySerial(ctx, "nope")

		assert.ErrorIs(t, err, repository.ErrGiftCardNotFound)
	})

	t.Run("for update inside a transaction", func(t *testing.T) {
		tm := repository.NewTransactionManager(db)
		err := tm.WithTx(ctx, func(ctx context.Context) error {
			got, err := repo.FindBySerialForUpdate(ctx, "GC-1")
			require.NoError(t, err)
			assert.Equal(t, card.ID, got.ID)
			return nil
		})

		assert.NoError(t, err)
	})
}

func TestGiftCardRepository_AdjustBalance(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.NewFixture(t, db)
	repo := repository.NewGiftCardRepository(db)
	ctx := context.Background()

	card := fx.GiftCard("GC-2", 1000, testutil.WithBalance(400))

	tests := []struct {
		name    string
		delta   int64
		want    int64
		wantErr error
	}{
		{name: "debit within balance", delta: -150, want: 250},
		{name: "debit to zero", delta: -250, want: 0},
		{name: "debit below zero", delta: -1, want: 0, wantErr: repository.ErrInsufficientBalance},
		{name: "restore up to initial amount", delta: 1000, want: 1000},
		{name: "restore above initial amount", delta: 1, want: 1000, wantErr: repository.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.AdjustBalance(ctx, card.ID, tt.delta)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, fx.ReloadCard(card.ID).Balance)
		})
	}
}

// Two callers that both read the same balance without holding the row lock
// must not overdraw the card: the guard is evaluated against the stored
// balance, not the one each caller saw.
func TestGiftCardRepository_AdjustBalanceRejectsStaleDelta(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.NewFixture(t, db)
	repo := repository.NewGiftCardRepository(db)
	ctx := context.Background()

	fx.GiftCard("GC-STALE", 100)

	first, err := repo.FindBySerial(ctx, "GC-STALE")
	require.NoError(t, err)
	second, err := repo.FindBySerial(ctx, "GC-STALE")
	require.NoError(t, err)
	require.GreaterOrEqual(t, first.Balance, int64(80))
	require.GreaterOrEqual(t, second.Balance, int64(80))

	require.NoError(t, repo.AdjustBalance(ctx, first.ID, -80))
	assert.ErrorIs(t, repo.AdjustBalance(ctx, second.ID, -80), repository.ErrInsufficientBalance)
	assert.Equal(t, int64(20), fx.ReloadCard(first.ID).Balance)

	require.NoError(t, repo.AdjustBalance(ctx, first.ID, 80))
	assert.ErrorIs(t, repo.AdjustBalance(ctx, second.ID, 80), repository.ErrInsufficientBalance)
	assert.Equal(t, int64(100), fx.ReloadCard(first.ID).Balance)
}

func TestGiftCardRepository_MarkUsed(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.NewFixture(t, db)
	repo := repository.NewGiftCardRepository(db)
	ctx := context.Background()

	card := fx.GiftCard("GC-3", 500)
	first := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.MarkUsed(ctx, card.ID, 11, first))
	require.NoError(t, repo.MarkUsed(ctx, card.ID, 22, first.Add(time.Minute)))

	got := fx.ReloadCard(card.ID)
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, int64(11), *got.CustomerID, "owner is bound by the first use only")
	require.NotNil(t, got.LastUsedAt)
	assert.True(t, got.LastUsedAt.Equal(first.Add(time.Minute)))

	assert.ErrorIs(t, repo.MarkUsed(ctx, 9999, 11, first), repository.ErrNoRowsAffected)

	t.Run("first use replaces a preassigned owner", func(t *testing.T) {
		card := fx.GiftCard("GC-4", 500, testutil.WithOwner(33))

		require.NoError(t, repo.MarkUsed(ctx, card.ID, 11, first))

		got := fx.ReloadCard(card.ID)
		require.NotNil(t, got.CustomerID)
		assert.Equal(t, int64(11), *got.CustomerID)
	})
}
