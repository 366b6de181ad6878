package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/resultatbasen/ingest/internal/domain/result"
	"github.com/resultatbasen/ingest/internal/platform/logging"
)

// CleanupInput selects the cleanup pass behavior.
type CleanupInput struct {
	MaxWorkers int
	// DryRun reports what would be deleted without touching the store.
	DryRun bool
}

type CleanupReport struct {
	Found         int   `json:"found"`
	Deleted       int64 `json:"deleted"`
	FailedBatches int   `json:"failed_batches"`
	WorkerCount   int   `json:"worker_count"`
	DryRun        bool  `json:"dry_run"`
}

// CleanupService removes result rows that predate the current
// normalization rules: OK rows carrying a non-positive canonical value
// or an empty display string. Deletes target already-resolved ids and
// carry no ordering requirement, so batches run over a small bounded
// worker pool.
type CleanupService struct {
	resultRepo result.Repository
	logger     *logging.Logger
	batchSize  int
	scanLimit  int
}

func NewCleanupService(resultRepo result.Repository, batchSize int, logger *logging.Logger) *CleanupService {
	if batchSize <= 0 {
		batchSize = 500
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CleanupService{
		resultRepo: resultRepo,
		logger:     logger,
		batchSize:  batchSize,
		scanLimit:  50000,
	}
}

func (s *CleanupService) Run(ctx context.Context, input CleanupInput) (CleanupReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CleanupService.Run")
	defer span.End()

	report := CleanupReport{
		DryRun:      input.DryRun,
		WorkerCount: normalizeCleanupWorkerCount(input.MaxWorkers),
	}

	for {
		ids, err := s.resultRepo.ListCorruptIDs(ctx, s.scanLimit)
		if err != nil {
			return report, fmt.Errorf("list corrupt results: %w", err)
		}
		if len(ids) == 0 {
			break
		}
		report.Found += len(ids)

		if input.DryRun {
			// One pass is enough; nothing shrinks without deletes.
			break
		}

		deleted, failed, err := s.deleteBatches(ctx, ids, report.WorkerCount)
		report.Deleted += deleted
		report.FailedBatches += failed
		if err != nil {
			return report, err
		}
		if deleted == 0 {
			// Every batch failed; bail out instead of rescanning the
			// same rows forever.
			break
		}
	}

	s.logger.InfoContext(ctx, "cleanup finished",
		"found", report.Found,
		"deleted", report.Deleted,
		"failed_batches", report.FailedBatches,
		"dry_run", report.DryRun)
	return report, nil
}

func (s *CleanupService) deleteBatches(ctx context.Context, ids []int64, workerCount int) (int64, int, error) {
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return 0, 0, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		workers sync.WaitGroup
		deleted atomic.Int64
		failed  atomic.Int32
	)
	for start := 0; start < len(ids); start += s.batchSize {
		end := start + s.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			n, err := s.resultRepo.DeleteByIDs(ctx, batch)
			if err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "delete batch failed",
					"size", len(batch), "error", err)
				return
			}
			deleted.Add(n)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return deleted.Load(), int(failed.Load()), fmt.Errorf("submit delete batch: %w", err)
		}
	}
	workers.Wait()

	return deleted.Load(), int(failed.Load()), nil
}

func normalizeCleanupWorkerCount(value int) int {
	if value <= 0 {
		return 2
	}
	if value > 8 {
		return 8
	}
	return value
}
