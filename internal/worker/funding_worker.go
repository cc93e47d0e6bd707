package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tobenna/launchpad/internal/domain"
	"github.com/tobenna/launchpad/internal/observability"
	"github.com/tobenna/launchpad/internal/service"
)

// FundingWorker verifies wallet balances for projects stuck in FUNDING.
// It catches transfers that landed on chain but were never recorded, for
// example when the process died between a confirmed transfer and its
// bookkeeping, or when wallets were funded out of band.
type FundingWorker struct {
	funding      *service.FundingService
	store        service.FundingStore
	pollInterval time.Duration
	batchSize    int32
	stopCh       chan struct{}
}

func NewFundingWorker(funding *service.FundingService, store service.FundingStore) *FundingWorker {
	return &FundingWorker{
		funding:      funding,
		store:        store,
		pollInterval: 30 * time.Second,
		batchSize:    20,
		stopCh:       make(chan struct{}),
	}
}

// WithPollInterval sets the poll interval for the worker.
func (w *FundingWorker) WithPollInterval(interval time.Duration) *FundingWorker {
	w.pollInterval = interval
	return w
}

// WithBatchSize caps how many projects a single pass verifies.
func (w *FundingWorker) WithBatchSize(size int32) *FundingWorker {
	w.batchSize = size
	return w
}

// Start runs the verification loop until Stop is called or the context is
// canceled.
func (w *FundingWorker) Start(ctx context.Context) {
	zap.L().Info("funding worker starting",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Int32("batch_size", w.batchSize))

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("funding worker stopping: context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("funding worker stopping")
			return
		case <-ticker.C:
			if err := w.ProcessOnce(ctx); err != nil {
				observability.IncrementWorkerRun("funding_verify", "error")
				zap.L().Error("funding worker pass failed", zap.Error(err))
			} else {
				observability.IncrementWorkerRun("funding_verify", "ok")
			}
		}
	}
}

// Stop signals the worker to stop.
func (w *FundingWorker) Stop() {
	close(w.stopCh)
}

// ProcessOnce verifies one batch of FUNDING projects immediately.
func (w *FundingWorker) ProcessOnce(ctx context.Context) error {
	projects, err := w.store.ListProjectsInStatus(ctx, domain.ProjectStatusFunding, w.batchSize)
	if err != nil {
		return fmt.Errorf("list funding projects: %w", err)
	}
	for _, project := range projects {
		status, err := w.funding.Verify(ctx, project.ID)
		if err != nil {
			zap.L().Warn("funding verification failed",
				zap.String("project_id", project.ID.String()),
				zap.Error(err))
			continue
		}
		if status.AllFunded {
			zap.L().Info("funding verified complete",
				zap.String("project_id", project.ID.String()),
				zap.Int("wallets", status.Total))
		}
	}
	return nil
}

// Run starts the worker in a goroutine and returns its stop function.
func (w *FundingWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *FundingWorker) String() string {
	return fmt.Sprintf("FundingWorker(interval=%v, batch=%d)", w.pollInterval, w.batchSize)
}
