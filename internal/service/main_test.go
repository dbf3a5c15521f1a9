package service_test

import (
	"testing"

	"github.com/Behyna/giftledger/internal/metrics"
	"github.com/Behyna/giftledger/internal/model"
	"github.com/Behyna/giftledger/internal/repository"
	"github.com/Behyna/giftledger/internal/service"
	"github.com/Behyna/giftledger/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ledger struct {
	db      *gorm.DB
	fx      *testutil.Fixture
	metrics *metrics.Metrics
	cards   service.GiftCardService
	codes   service.DiscountCodeService
	report  service.SettlementAggregator
	txs     repository.TransactionRepository
}

func newLedger(t *testing.T) *ledger {
	t.Helper()

	db := testutil.NewDB(t)
	logger := zap.NewNop()
	m := metrics.NewMetrics(prometheus.NewRegistry())

	tm := repository.NewTransactionManager(db)
	txs := repository.NewTransactionRepository(db)
	stores := repository.NewStoreRepository(db)
	customers := service.NewCustomerResolver(repository.NewCustomerRepository(db), logger)

	return &ledger{
		db:      db,
		fx:      testutil.NewFixture(t, db),
		metrics: m,
		cards:   service.NewGiftCardService(tm, repository.NewGiftCardRepository(db), txs, stores, customers, logger, m),
		codes:   service.NewDiscountCodeService(tm, repository.NewDiscountCodeRepository(db), txs, stores, customers, logger, m),
		report:  service.NewSettlementAggregator(txs, logger, m),
		txs:     txs,
	}
}

func (l *ledger) countRows(t *testing.T, typ model.TxType) int64 {
	t.Helper()

	var n int64
	require.NoError(t, l.db.Model(&model.Transaction{}).Where("type = ?", typ).Count(&n).Error)
	return n
}

func assertCode(t *testing.T, want string, err error) {
	t.Helper()

	require.Error(t, err)
	assert.Equal(t, want, service.CodeOf(err), err.Error())
}
