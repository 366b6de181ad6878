package usecase_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/resultatbasen/ingest/internal/infrastructure/repository/memory"
	"github.com/resultatbasen/ingest/internal/platform/logging"
	"github.com/resultatbasen/ingest/internal/usecase"
)

type fakeSourceClient struct {
	search  map[string][]string
	fail    map[string]bool
	fetched []string
}

func (c *fakeSourceClient) SearchAthleteIDs(_ context.Context, letter string) ([]string, error) {
	return c.search[letter], nil
}

func (c *fakeSourceClient) FetchAthletePage(_ context.Context, externalID string) (usecase.SourcePage, error) {
	c.fetched = append(c.fetched, externalID)
	if c.fail[externalID] {
		return usecase.SourcePage{}, fmt.Errorf("fetch %s: boom", externalID)
	}
	return usecase.SourcePage{
		Records: []usecase.RawRecord{
			{EventName: "100m", Performance: "10,47", Approved: true},
		},
	}, nil
}

type scanFixture struct {
	scan        *usecase.ScanService
	client      *fakeSourceClient
	checkpoints *memory.CheckpointStore
	results     *memory.ResultRepository
}

func newScanFixture(t *testing.T, client *fakeSourceClient, interval int) scanFixture {
	t.Helper()

	p := newPipeline(t, 100, false)
	checkpoints := memory.NewCheckpointStore()
	return scanFixture{
		scan:        usecase.NewScanService(client, p.ingest, checkpoints, p.results, interval, logging.NewNop()),
		client:      client,
		checkpoints: checkpoints,
		results:     p.results,
	}
}

func TestScanRun_IDsStream(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	client := &fakeSourceClient{}
	f := newScanFixture(t, client, 2)

	report, err := f.scan.Run(ctx, usecase.ScanInput{Stream: usecase.StreamIDs, Range: "3-7"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.Units != 5 || report.StartCursor != 0 || report.FailedUnits != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(client.fetched) != 5 {
		t.Fatalf("fetched: got %v", client.fetched)
	}
	if report.Counts.Imported != 5 {
		t.Fatalf("imported: got %d, want 5", report.Counts.Imported)
	}

	cp, ok, err := f.checkpoints.Load(ctx, "ids-3-7")
	if err != nil || !ok {
		t.Fatalf("load checkpoint: ok=%t err=%v", ok, err)
	}
	if cp.Cursor != 5 || cp.Total != 5 {
		t.Fatalf("final checkpoint: %+v", cp)
	}
}

func TestScanRun_ResumesFromCheckpoint(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	client := &fakeSourceClient{}
	f := newScanFixture(t, client, 10)

	if err := f.checkpoints.Save(ctx, "ids-3-7", usecase.Checkpoint{Cursor: 2, Total: 5}); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}

	report, err := f.scan.Run(ctx, usecase.ScanInput{Stream: usecase.StreamIDs, Range: "3-7"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.StartCursor != 2 {
		t.Fatalf("start cursor: got %d, want 2", report.StartCursor)
	}
	// Units 3 and 4 were already done; only 5, 6, 7 are fetched.
	want := []string{"5", "6", "7"}
	if len(client.fetched) != len(want) {
		t.Fatalf("fetched: got %v, want %v", client.fetched, want)
	}
	for i, id := range want {
		if client.fetched[i] != id {
			t.Fatalf("fetched[%d]: got %s, want %s", i, client.fetched[i], id)
		}
	}
}

func TestScanRun_FailedUnitIsSkipped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	client := &fakeSourceClient{fail: map[string]bool{"2": true}}
	f := newScanFixture(t, client, 10)

	report, err := f.scan.Run(ctx, usecase.ScanInput{Stream: usecase.StreamIDs, Range: "1-3"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.FailedUnits != 1 {
		t.Fatalf("failed units: got %d, want 1", report.FailedUnits)
	}
	if report.Counts.Imported != 2 {
		t.Fatalf("imported: got %d, want 2", report.Counts.Imported)
	}

	// The run still completes and the checkpoint covers the whole range.
	cp, ok, _ := f.checkpoints.Load(ctx, "ids-1-3")
	if !ok || cp.Cursor != 3 {
		t.Fatalf("checkpoint after failed unit: ok=%t %+v", ok, cp)
	}
}

func TestScanRun_LettersStreamDeduplicates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	client := &fakeSourceClient{
		search: map[string][]string{
			"A": {"10", "11"},
			"B": {"11", "12"},
		},
	}
	f := newScanFixture(t, client, 10)

	report, err := f.scan.Run(ctx, usecase.ScanInput{Stream: usecase.StreamLetters, Range: "a-b"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Units != 3 {
		t.Fatalf("units: got %d, want 3", report.Units)
	}
	if len(client.fetched) != 3 {
		t.Fatalf("fetched: got %v", client.fetched)
	}
}

func TestScanRun_RejectsUnknownStream(t *testing.T) {
	t.Parallel()

	f := newScanFixture(t, &fakeSourceClient{}, 10)
	if _, err := f.scan.Run(context.Background(), usecase.ScanInput{Stream: "bogus", Range: "a"}); err == nil {
		t.Fatalf("expected error for unknown stream")
	}
}

func TestProgress(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	client := &fakeSourceClient{}
	f := newScanFixture(t, client, 10)

	if _, err := f.scan.Run(ctx, usecase.ScanInput{Stream: usecase.StreamIDs, Range: "1-2"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	progress, err := f.scan.Progress(ctx)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.Results != 2 {
		t.Fatalf("results: got %d, want 2", progress.Results)
	}
	if _, ok := progress.Checkpoints["ids-1-2"]; !ok {
		t.Fatalf("expected checkpoint for ids-1-2, got %v", progress.Checkpoints)
	}
}
