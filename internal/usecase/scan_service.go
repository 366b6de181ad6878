package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/resultatbasen/ingest/internal/domain/result"
	"github.com/resultatbasen/ingest/internal/platform/logging"
)

// SourceClient is the results site seen through its two operations.
// Retries, backoff and request pacing live behind this interface.
type SourceClient interface {
	SearchAthleteIDs(ctx context.Context, letter string) ([]string, error)
	FetchAthletePage(ctx context.Context, externalID string) (SourcePage, error)
}

// Checkpoint is the persisted progress marker for one scan stream.
type Checkpoint struct {
	Cursor    int       `json:"cursor"`
	Total     int       `json:"total"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckpointStore persists scan progress between runs.
type CheckpointStore interface {
	Load(ctx context.Context, stream string) (Checkpoint, bool, error)
	Save(ctx context.Context, stream string, cp Checkpoint) error
	List(ctx context.Context) (map[string]Checkpoint, error)
}

// ScanInput names one scan: a stream kind and its range, e.g.
// {letters A-F} or {ids 1000-2000}.
type ScanInput struct {
	Stream string
	Range  string
}

const (
	StreamLetters = "letters"
	StreamIDs     = "ids"
)

// ScanReport is the final tally of one scan run.
type ScanReport struct {
	Stream      string       `json:"stream"`
	Units       int          `json:"units"`
	StartCursor int          `json:"start_cursor"`
	FailedUnits int          `json:"failed_units"`
	Counts      IngestCounts `json:"counts"`
}

// ProgressReport summarizes persisted scan state for the operator.
type ProgressReport struct {
	Results     int64                 `json:"results"`
	Checkpoints map[string]Checkpoint `json:"checkpoints"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// ScanService drives a sequential scan over an enumerated unit list,
// checkpointing between units. One logical worker; the source site's
// request pacing is a hard constraint, so units are never fetched in
// parallel.
type ScanService struct {
	client      SourceClient
	ingest      *IngestService
	checkpoints CheckpointStore
	resultRepo  result.Repository
	logger      *logging.Logger
	interval    int
}

func NewScanService(
	client SourceClient,
	ingest *IngestService,
	checkpoints CheckpointStore,
	resultRepo result.Repository,
	checkpointInterval int,
	logger *logging.Logger,
) *ScanService {
	if checkpointInterval <= 0 {
		checkpointInterval = 50
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ScanService{
		client:      client,
		ingest:      ingest,
		checkpoints: checkpoints,
		resultRepo:  resultRepo,
		logger:      logger,
		interval:    checkpointInterval,
	}
}

// Run enumerates the stream's units, resumes from the persisted
// cursor and processes the rest. A unit whose fetch fails after the
// client's own retries is counted and skipped, never fatal; the
// checkpoint only ever moves past completed units.
func (s *ScanService) Run(ctx context.Context, input ScanInput) (ScanReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScanService.Run")
	defer span.End()

	units, err := s.enumerate(ctx, input)
	if err != nil {
		return ScanReport{}, err
	}
	streamKey := checkpointKey(input)

	cursor := 0
	if cp, ok, err := s.checkpoints.Load(ctx, streamKey); err != nil {
		return ScanReport{}, fmt.Errorf("load checkpoint %s: %w", streamKey, err)
	} else if ok {
		cursor = cp.Cursor
		if cursor > len(units) {
			cursor = len(units)
		}
	}

	report := ScanReport{
		Stream:      streamKey,
		Units:       len(units),
		StartCursor: cursor,
	}
	s.logger.InfoContext(ctx, "scan starting",
		"stream", streamKey, "units", len(units), "cursor", cursor)

	sinceCheckpoint := 0
	for i := cursor; i < len(units); i++ {
		if err := ctx.Err(); err != nil {
			// Interrupted; the checkpoint stays at the last completed
			// batch and the next run picks up from there.
			break
		}

		before := s.ingest.Counts()
		if err := s.processUnit(ctx, units[i]); err != nil {
			report.FailedUnits++
			s.logger.WarnContext(ctx, "unit failed, skipping",
				"stream", streamKey, "unit", units[i], "error", err)
		} else {
			after := s.ingest.Counts()
			delta := after.Diff(before)
			s.logger.InfoContext(ctx, "unit done",
				"stream", streamKey, "unit", units[i],
				"processed", delta.Processed, "imported", delta.Imported,
				"skipped", delta.SkippedTotal(), "errors", delta.Errors)
		}

		sinceCheckpoint++
		if sinceCheckpoint >= s.interval {
			if err := s.persist(ctx, streamKey, i+1, len(units)); err != nil {
				return report, err
			}
			sinceCheckpoint = 0
		}
	}

	if err := s.ingest.Flush(ctx); err != nil {
		return report, fmt.Errorf("final flush: %w", err)
	}
	done := len(units)
	if err := ctx.Err(); err == nil {
		if err := s.checkpoints.Save(ctx, streamKey, Checkpoint{
			Cursor:    done,
			Total:     len(units),
			UpdatedAt: time.Now().UTC(),
		}); err != nil {
			return report, fmt.Errorf("save checkpoint %s: %w", streamKey, err)
		}
	}

	report.Counts = s.ingest.Counts()
	s.logger.InfoContext(ctx, "scan finished",
		"stream", streamKey,
		"processed", report.Counts.Processed,
		"imported", report.Counts.Imported,
		"skipped", report.Counts.SkippedTotal(),
		"errors", report.Counts.Errors,
		"failed_units", report.FailedUnits)
	return report, nil
}

// Progress reads the persisted checkpoints and the stored result
// count without touching the source site.
func (s *ScanService) Progress(ctx context.Context) (ProgressReport, error) {
	checkpoints, err := s.checkpoints.List(ctx)
	if err != nil {
		return ProgressReport{}, fmt.Errorf("list checkpoints: %w", err)
	}
	count, err := s.resultRepo.Count(ctx)
	if err != nil {
		return ProgressReport{}, fmt.Errorf("count results: %w", err)
	}
	return ProgressReport{
		Results:     count,
		Checkpoints: checkpoints,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (s *ScanService) processUnit(ctx context.Context, externalID string) error {
	page, err := s.client.FetchAthletePage(ctx, externalID)
	if err != nil {
		return err
	}
	if page.Athlete.ExternalID == "" {
		page.Athlete.ExternalID = externalID
	}
	if err := s.ingest.IngestPage(ctx, page); err != nil {
		return err
	}
	return nil
}

// persist flushes buffered results before the checkpoint moves, so the
// cursor never claims units whose rows are still in memory.
func (s *ScanService) persist(ctx context.Context, streamKey string, cursor, total int) error {
	if err := s.ingest.Flush(ctx); err != nil {
		return fmt.Errorf("flush before checkpoint: %w", err)
	}
	if err := s.checkpoints.Save(ctx, streamKey, Checkpoint{
		Cursor:    cursor,
		Total:     total,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", streamKey, err)
	}
	return nil
}

// enumerate expands the input range into the ordered unit list the
// cursor indexes. Letters discover athlete ids per letter; the ids
// stream enumerates the numeric range directly.
func (s *ScanService) enumerate(ctx context.Context, input ScanInput) ([]string, error) {
	switch input.Stream {
	case StreamLetters:
		letters, err := parseLetterRange(input.Range)
		if err != nil {
			return nil, err
		}
		var units []string
		seen := make(map[string]struct{})
		for _, letter := range letters {
			ids, err := s.client.SearchAthleteIDs(ctx, letter)
			if err != nil {
				return nil, fmt.Errorf("discover ids for %q: %w", letter, err)
			}
			for _, id := range ids {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				units = append(units, id)
			}
		}
		return units, nil
	case StreamIDs:
		return parseIDRange(input.Range)
	default:
		return nil, fmt.Errorf("%w: unknown stream %q", ErrInvalidInput, input.Stream)
	}
}

func checkpointKey(input ScanInput) string {
	return input.Stream + "-" + strings.ToLower(input.Range)
}

func parseLetterRange(r string) ([]string, error) {
	r = strings.ToUpper(strings.TrimSpace(r))
	if r == "" {
		return nil, fmt.Errorf("%w: empty letter range", ErrInvalidInput)
	}
	lo, hi, ok := strings.Cut(r, "-")
	if !ok {
		hi = lo
	}
	loRunes, hiRunes := []rune(lo), []rune(hi)
	if len(loRunes) != 1 || len(hiRunes) != 1 || loRunes[0] > hiRunes[0] {
		return nil, fmt.Errorf("%w: bad letter range %q", ErrInvalidInput, r)
	}
	var letters []string
	for c := loRunes[0]; c <= hiRunes[0]; c++ {
		letters = append(letters, string(c))
	}
	return letters, nil
}

func parseIDRange(r string) ([]string, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(r), "-")
	if !ok {
		hi = lo
	}
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return nil, fmt.Errorf("%w: bad id range %q", ErrInvalidInput, r)
	}
	to, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil || to < from || from < 0 {
		return nil, fmt.Errorf("%w: bad id range %q", ErrInvalidInput, r)
	}
	units := make([]string, 0, to-from+1)
	for id := from; id <= to; id++ {
		units = append(units, strconv.Itoa(id))
	}
	return units, nil
}
