package usecase_test

import (
	"context"
	"testing"

	"github.com/resultatbasen/ingest/internal/domain/result"
	"github.com/resultatbasen/ingest/internal/infrastructure/repository/memory"
	"github.com/resultatbasen/ingest/internal/platform/logging"
	"github.com/resultatbasen/ingest/internal/usecase"
)

func seedResults(t *testing.T, repo *memory.ResultRepository) (corrupt, healthy int) {
	t.Helper()
	ctx := context.Background()

	rows := []result.Result{
		{AthleteID: 1, EventID: 1, Round: "final", Heat: 1, Status: result.StatusOK, Display: "10.47", Value: 1047},
		{AthleteID: 1, EventID: 1, Round: "final", Heat: 2, Status: result.StatusOK, Display: "", Value: 1047},
		{AthleteID: 1, EventID: 1, Round: "final", Heat: 3, Status: result.StatusOK, Display: "10.47", Value: 0},
		{AthleteID: 1, EventID: 2, Round: "final", Heat: 1, Status: result.StatusDNS, Display: "DNS", Value: 0},
	}
	for _, row := range rows {
		if ok, err := repo.Insert(ctx, row); err != nil || !ok {
			t.Fatalf("seed insert: ok=%t err=%v", ok, err)
		}
	}
	// Status rows legitimately carry a zero value; only OK rows with a
	// non-positive value or empty display are corrupt.
	return 2, 2
}

func TestCleanupRun_DeletesCorruptRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := memory.NewResultRepository()
	corrupt, healthy := seedResults(t, repo)

	svc := usecase.NewCleanupService(repo, 1, logging.NewNop())
	report, err := svc.Run(ctx, usecase.CleanupInput{MaxWorkers: 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.Found != corrupt {
		t.Fatalf("found: got %d, want %d", report.Found, corrupt)
	}
	if report.Deleted != int64(corrupt) {
		t.Fatalf("deleted: got %d, want %d", report.Deleted, corrupt)
	}
	if report.FailedBatches != 0 {
		t.Fatalf("failed batches: got %d, want 0", report.FailedBatches)
	}

	remaining, _ := repo.Count(ctx)
	if remaining != int64(healthy) {
		t.Fatalf("remaining rows: got %d, want %d", remaining, healthy)
	}
}

func TestCleanupRun_DryRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := memory.NewResultRepository()
	corrupt, _ := seedResults(t, repo)
	before, _ := repo.Count(ctx)

	svc := usecase.NewCleanupService(repo, 0, logging.NewNop())
	report, err := svc.Run(ctx, usecase.CleanupInput{DryRun: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.Found != corrupt {
		t.Fatalf("found: got %d, want %d", report.Found, corrupt)
	}
	if report.Deleted != 0 {
		t.Fatalf("dry run deleted %d rows", report.Deleted)
	}
	after, _ := repo.Count(ctx)
	if after != before {
		t.Fatalf("dry run changed the store: %d -> %d", before, after)
	}
}

func TestCleanupRun_NothingToDo(t *testing.T) {
	t.Parallel()

	repo := memory.NewResultRepository()
	svc := usecase.NewCleanupService(repo, 0, logging.NewNop())

	report, err := svc.Run(context.Background(), usecase.CleanupInput{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Found != 0 || report.Deleted != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestCleanupRun_WorkerCountClamped(t *testing.T) {
	t.Parallel()

	repo := memory.NewResultRepository()
	svc := usecase.NewCleanupService(repo, 0, logging.NewNop())

	report, err := svc.Run(context.Background(), usecase.CleanupInput{MaxWorkers: 100})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.WorkerCount != 8 {
		t.Fatalf("worker count: got %d, want 8", report.WorkerCount)
	}

	report, err = svc.Run(context.Background(), usecase.CleanupInput{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.WorkerCount != 2 {
		t.Fatalf("default worker count: got %d, want 2", report.WorkerCount)
	}
}
