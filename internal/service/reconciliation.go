package service

import (
	"context"
	"time"

	"github.com/Behyna/giftledger/internal/constants"
	"github.com/Behyna/giftledger/internal/metrics"
	"github.com/Behyna/giftledger/internal/model"
	"github.com/Behyna/giftledger/internal/repository"
	"go.uber.org/zap"
)

const (
	reconcileModeInspect = "inspect"
	reconcileModeRepair  = "repair"
)

type ReconciliationResult struct {
	Inspect   bool                `json:"inspect"`
	Refunded  int                 `json:"refunded"`
	Confirmed int                 `json:"confirmed"`
	Reversed  int                 `json:"reversed"`
	Orphaned  int                 `json:"orphaned"`
	Orphans   []model.Transaction `json:"orphans"`
}

func (r ReconciliationResult) fixes() map[string]int {
	return map[string]int{
		"refunded":  r.Refunded,
		"confirmed": r.Confirmed,
		"reversed":  r.Reversed,
		"orphaned":  r.Orphaned,
	}
}

// ReviewPublisher hands irrecoverable rows to manual review.
type ReviewPublisher interface {
	PublishOrphan(ctx context.Context, row model.Transaction) error
}

type ReconciliationEngine interface {
	Run(ctx context.Context, inspect bool) (ReconciliationResult, error)
}

type reconciliationEngine struct {
	txManager repository.TxManager
	txs       repository.TransactionRepository
	review    ReviewPublisher
	batchSize int
	log       *zap.Logger
	metrics   *metrics.Metrics
}

// NewReconciliationEngine builds the engine. review may be nil, in which case
// orphans are only marked Unknown.
func NewReconciliationEngine(txManager repository.TxManager, txs repository.TransactionRepository, review ReviewPublisher,
	batchSize int, log *zap.Logger, metrics *metrics.Metrics) ReconciliationEngine {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &reconciliationEngine{
		txManager: txManager,
		txs:       txs,
		review:    review,
		batchSize: batchSize,
		log:       log,
		metrics:   metrics,
	}
}

// Run heals pending opening rows whose settlement rows already exist, then
// marks settlement rows without an opening row Unknown. Per chain the
// furthest-progressed settlement wins: Refund, then Confirmation, then
// Reversal. Inspect counts what would change without writing anything.
func (e *reconciliationEngine) Run(ctx context.Context, inspect bool) (ReconciliationResult, error) {
	start := time.Now()
	mode := reconcileModeRepair
	if inspect {
		mode = reconcileModeInspect
	}

	result := ReconciliationResult{Inspect: inspect, Orphans: []model.Transaction{}}
	err := e.run(ctx, inspect, &result)

	status := "success"
	if err != nil {
		status = "error"
		e.log.Error("Reconciliation run failed",
			zap.String("mode", mode),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}
	e.metrics.RecordReconciliation(mode, status, result.fixes())

	if err != nil {
		return result, err
	}

	e.log.Info("Reconciliation run completed",
		zap.String("mode", mode),
		zap.Int("refunded", result.Refunded),
		zap.Int("confirmed", result.Confirmed),
		zap.Int("reversed", result.Reversed),
		zap.Int("orphaned", result.Orphaned),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}

func (e *reconciliationEngine) run(ctx context.Context, inspect bool, result *ReconciliationResult) error {
	var afterID int64
	for {
		pending, err := e.txs.FindPendingWithSettlements(ctx, afterID, e.batchSize)
		if err != nil {
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		for i := range pending {
			afterID = pending[i].ID

			status, err := e.heal(ctx, pending[i], inspect)
			if err != nil {
				return err
			}

			switch status {
			case model.TxStatusRefunded:
				result.Refunded++
			case model.TxStatusConfirmed:
				result.Confirmed++
			case model.TxStatusReversed:
				result.Reversed++
			}
		}

		if len(pending) < e.batchSize {
			break
		}
	}

	afterID = 0
	for {
		orphans, err := e.txs.FindOrphanSettlements(ctx, afterID, e.batchSize)
		if err != nil {
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		for _, orphan := range orphans {
			afterID = orphan.ID

			if !inspect {
				flagged, err := e.flag(ctx, orphan)
				if err != nil {
					return err
				}
				if !flagged {
					continue
				}
				orphan.Status = model.TxStatusUnknown
			}

			result.Orphaned++
			result.Orphans = append(result.Orphans, orphan)
		}

		if len(orphans) < e.batchSize {
			break
		}
	}

	return nil
}

// heal settles one pending chain and returns the status its opening row ends
// in, or "" when there was nothing to do. In repair mode the opening row is
// re-read under lock so a chain settled concurrently is left alone.
func (e *reconciliationEngine) heal(ctx context.Context, opening model.Transaction, inspect bool) (model.TxStatus, error) {
	var healed model.TxStatus

	fix := func(ctx context.Context) error {
		current := &opening
		if !inspect {
			locked, err := e.txs.FindOpeningForUpdate(ctx, repository.OpeningLookup{
				Type:          opening.Type,
				TransactionID: opening.TransactionID,
			})
			if err != nil {
				return NewServiceError(constants.ErrCodeOperationFailed, err)
			}
			if locked.Status != model.TxStatusPending {
				return nil
			}
			current = locked
		}

		settlements, err := e.txs.FindSettlements(ctx, current.TransactionID)
		if err != nil {
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		target, rows := resolveChain(chainOf(settlements))
		if target == "" {
			return nil
		}

		healed = target
		if inspect {
			return nil
		}

		if err := e.txs.UpdateStatus(ctx, current.ID, target); err != nil {
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		for _, row := range rows {
			if row.Status == target {
				continue
			}
			if err := e.txs.UpdateStatus(ctx, row.ID, target); err != nil {
				return NewServiceError(constants.ErrCodeOperationFailed, err)
			}
		}

		e.log.Warn("Pending chain reconciled",
			zap.String("transaction_id", current.TransactionID),
			zap.Int64("opening_id", current.ID),
			zap.String("status", string(target)),
		)

		return nil
	}

	if inspect {
		return healed, fix(ctx)
	}

	return healed, e.txManager.WithTx(ctx, fix)
}

// resolveChain picks the status a pending chain settles into and the
// settlement rows that move with it.
func resolveChain(c chain) (model.TxStatus, []*model.Transaction) {
	switch {
	case c.refund != nil:
		rows := []*model.Transaction{c.refund}
		if c.confirmation != nil {
			rows = append(rows, c.confirmation)
		}
		return model.TxStatusRefunded, rows
	case c.confirmation != nil:
		return model.TxStatusConfirmed, []*model.Transaction{c.confirmation}
	case c.reversal != nil:
		return model.TxStatusReversed, []*model.Transaction{c.reversal}
	default:
		return "", nil
	}
}

// flag publishes an orphan for review and marks it Unknown under the row
// lock. A row another run already flagged is skipped and false is returned.
// A failed publish rolls back, leaving the row to the next run.
func (e *reconciliationEngine) flag(ctx context.Context, orphan model.Transaction) (bool, error) {
	var flagged bool

	err := e.txManager.WithTx(ctx, func(ctx context.Context) error {
		current, err := e.txs.FindByIDForUpdate(ctx, orphan.ID)
		if err != nil {
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}
		if current.Status == model.TxStatusUnknown {
			return nil
		}

		if e.review != nil {
			if err := e.review.PublishOrphan(ctx, *current); err != nil {
				return NewServiceError(constants.ErrCodeOperationFailed, err)
			}
		}

		if err := e.txs.UpdateStatus(ctx, current.ID, model.TxStatusUnknown); err != nil {
			return NewServiceError(constants.ErrCodeOperationFailed, err)
		}

		flagged = true
		e.log.Error("Orphan settlement row marked unknown",
			zap.Int64("id", current.ID),
			zap.String("transaction_id", current.TransactionID),
			zap.String("type", string(current.Type)),
			zap.Int64("amount", current.Amount),
		)

		return nil
	})

	return flagged, err
}
