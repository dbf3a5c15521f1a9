package service

import (
	"context"
	"sort"
	"time"

	"github.com/Behyna/giftledger/internal/constants"
	"github.com/Behyna/giftledger/internal/metrics"
	"github.com/Behyna/giftledger/internal/repository"
	"go.uber.org/zap"
)

type StorePosition struct {
	StoreID    int64 `json:"store_id"`
	Receivable int64 `json:"receivable"`
}

// CompanyPosition is one company's side of the report. NetAmount is
// Receivable - Payable.
type CompanyPosition struct {
	CompanyID  int64           `json:"company_id"`
	Payable    int64           `json:"payable"`
	Receivable int64           `json:"receivable"`
	NetAmount  int64           `json:"net_amount"`
	Stores     []StorePosition `json:"stores"`
}

type SettlementReport struct {
	Start           time.Time         `json:"start"`
	End             time.Time         `json:"end"`
	Companies       []CompanyPosition `json:"companies"`
	TotalPayable    int64             `json:"total_payable"`
	TotalReceivable int64             `json:"total_receivable"`
	NetTotal        int64             `json:"net_total"`
	Transactions    int               `json:"transactions"`
}

type SettlementAggregator interface {
	Report(ctx context.Context, q SettlementReportQuery) (SettlementReport, error)
}

type settlementAggregator struct {
	txs     repository.TransactionRepository
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewSettlementAggregator(txs repository.TransactionRepository, log *zap.Logger, metrics *metrics.Metrics) SettlementAggregator {
	return &settlementAggregator{txs: txs, log: log, metrics: metrics}
}

type companyBucket struct {
	payable    int64
	receivable int64
	stores     map[int64]int64
}

// Report folds confirmed gift card debits in [Start, End) into per-company
// payable and receivable positions. Debits redeemed inside the issuing
// company, or on cards with no issuing company, are skipped. It only reads.
func (a *settlementAggregator) Report(ctx context.Context, q SettlementReportQuery) (SettlementReport, error) {
	start := time.Now()

	if !q.End.After(q.Start) {
		return SettlementReport{}, NewServiceError(constants.ErrCodeValidationFailed, ErrInvalidWindow)
	}

	buckets := make(map[int64]*companyBucket)
	bucket := func(id int64) *companyBucket {
		b, ok := buckets[id]
		if !ok {
			b = &companyBucket{stores: make(map[int64]int64)}
			buckets[id] = b
		}
		return b
	}

	counted := 0
	err := a.txs.StreamSettlementRows(ctx, repository.SettlementQuery{
		Start:     q.Start,
		End:       q.End,
		CompanyID: q.CompanyID,
		StoreID:   q.StoreID,
	}, func(row repository.SettlementRow) error {
		if row.IssuerCompanyID == nil || *row.IssuerCompanyID == row.UsageCompanyID {
			return nil
		}

		bucket(*row.IssuerCompanyID).payable += row.Amount

		usage := bucket(row.UsageCompanyID)
		usage.receivable += row.Amount
		usage.stores[row.StoreID] += row.Amount

		counted++
		return nil
	})
	if err != nil {
		a.log.Error("Failed to stream settlement rows", zap.Error(err))
		return SettlementReport{}, NewServiceError(constants.ErrCodeOperationFailed, err)
	}

	report := SettlementReport{Start: q.Start, End: q.End, Transactions: counted, Companies: make([]CompanyPosition, 0, len(buckets))}
	for id, b := range buckets {
		pos := CompanyPosition{
			CompanyID:  id,
			Payable:    b.payable,
			Receivable: b.receivable,
			NetAmount:  b.receivable - b.payable,
			Stores:     make([]StorePosition, 0, len(b.stores)),
		}
		for storeID, amount := range b.stores {
			pos.Stores = append(pos.Stores, StorePosition{StoreID: storeID, Receivable: amount})
		}
		sort.Slice(pos.Stores, func(i, j int) bool { return pos.Stores[i].StoreID < pos.Stores[j].StoreID })

		report.Companies = append(report.Companies, pos)
		report.TotalPayable += pos.Payable
		report.TotalReceivable += pos.Receivable
		report.NetTotal += pos.NetAmount
	}
	sort.Slice(report.Companies, func(i, j int) bool { return report.Companies[i].CompanyID < report.Companies[j].CompanyID })

	a.metrics.RecordSettlementReport(time.Since(start))
	a.log.Info("Settlement report built",
		zap.Time("start", q.Start),
		zap.Time("end", q.End),
		zap.Int("companies", len(report.Companies)),
		zap.Int("transactions", counted),
		zap.Duration("duration", time.Since(start)),
	)

	return report, nil
}
