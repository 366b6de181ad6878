package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/resultatbasen/ingest/internal/domain/performance"
	"github.com/resultatbasen/ingest/internal/domain/result"
	"github.com/resultatbasen/ingest/internal/platform/logging"
)

// RawRecord is one result row as extracted from a source page, before
// normalization or entity resolution. All fields are source text.
type RawRecord struct {
	EventName   string `validate:"required"`
	Indoor      bool
	Performance string `validate:"required"`
	Wind        string
	Placement   string
	Club        string
	Date        string
	VenueTitle  string
	VenueText   string
	Approved    bool
}

// SourcePage is the extractor's output for one athlete page.
type SourcePage struct {
	Athlete     RawAthlete
	Records     []RawRecord
	DroppedRows int
}

// IngestCounts is the per-run tally surfaced to the operator. Skips
// are grouped by reason so the unmapped-name and unparseable sets stay
// inspectable after a run.
type IngestCounts struct {
	Processed int
	Imported  int
	Errors    int
	Skipped   map[string]int
}

func (c *IngestCounts) skip(reason string) {
	if c.Skipped == nil {
		c.Skipped = make(map[string]int)
	}
	c.Skipped[reason]++
}

func (c *IngestCounts) SkippedTotal() int {
	total := 0
	for _, n := range c.Skipped {
		total += n
	}
	return total
}

// Snapshot returns a copy safe to diff against a later snapshot.
func (c *IngestCounts) Snapshot() IngestCounts {
	out := *c
	out.Skipped = make(map[string]int, len(c.Skipped))
	for k, v := range c.Skipped {
		out.Skipped[k] = v
	}
	return out
}

// Diff returns the counts accumulated since the earlier snapshot.
func (c *IngestCounts) Diff(earlier IngestCounts) IngestCounts {
	out := IngestCounts{
		Processed: c.Processed - earlier.Processed,
		Imported:  c.Imported - earlier.Imported,
		Errors:    c.Errors - earlier.Errors,
		Skipped:   make(map[string]int),
	}
	for k, v := range c.Skipped {
		if d := v - earlier.Skipped[k]; d != 0 {
			out.Skipped[k] = d
		}
	}
	return out
}

// IngestService turns raw page records into result rows. It is the
// only writer of results; everything else in the run goes through it.
type IngestService struct {
	resolver   *EntityResolver
	resultRepo result.Repository
	validate   *validator.Validate
	logger     *logging.Logger
	batchSize  int
	dryRun     bool

	pending []result.Result
	counts  IngestCounts
}

func NewIngestService(
	resolver *EntityResolver,
	resultRepo result.Repository,
	batchSize int,
	dryRun bool,
	logger *logging.Logger,
) *IngestService {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestService{
		resolver:   resolver,
		resultRepo: resultRepo,
		validate:   validator.New(),
		logger:     logger,
		batchSize:  batchSize,
		dryRun:     dryRun,
	}
}

// Counts returns a snapshot of the cumulative run counters.
func (s *IngestService) Counts() IngestCounts {
	return s.counts.Snapshot()
}

// IngestPage runs one extracted page through the pipeline. Record
// failures are counted, never returned; the error covers store-level
// flush failures only.
func (s *IngestService) IngestPage(ctx context.Context, page SourcePage) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestService.IngestPage")
	defer span.End()

	for i := 0; i < page.DroppedRows; i++ {
		s.counts.skip(SkipInvalidRecord)
	}

	for _, rec := range page.Records {
		s.counts.Processed++
		if err := s.ingestRecord(ctx, page.Athlete, rec); err != nil {
			return err
		}
		if len(s.pending) >= s.batchSize {
			if err := s.Flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *IngestService) ingestRecord(ctx context.Context, rawAthlete RawAthlete, rec RawRecord) error {
	if err := s.validate.Struct(rec); err != nil {
		s.counts.skip(SkipInvalidRecord)
		return nil
	}

	ev, err := s.resolver.ResolveEvent(rec.EventName)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
			s.counts.skip(SkipUnknownEvent)
			s.logger.DebugContext(ctx, "unknown event", "name", rec.EventName)
			return nil
		}
		return err
	}

	perfText := strings.TrimSpace(rec.Performance)
	status, isStatus := result.IsStatusToken(perfText)

	var canonical performance.Canonical
	if isStatus {
		canonical = performance.Canonical{Display: status}
	} else {
		canonical, err = performance.Normalize(perfText, ev.Kind, ev.Class)
		if err != nil {
			switch {
			case errors.Is(err, performance.ErrAmbiguous):
				s.counts.skip(SkipAmbiguous)
			default:
				s.counts.skip(SkipUnparseable)
			}
			s.logger.DebugContext(ctx, "performance rejected",
				"raw", perfText, "event", ev.Code, "error", err)
			return nil
		}
		status = result.StatusOK
	}

	athleteID, err := s.resolver.ResolveAthlete(ctx, rawAthlete)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			s.counts.skip(SkipInvalidRecord)
			return nil
		}
		s.counts.Errors++
		s.logger.WarnContext(ctx, "athlete resolution failed",
			"external_id", rawAthlete.ExternalID, "error", err)
		return nil
	}

	clubID, err := s.resolver.ResolveClub(ctx, rec.Club)
	if err != nil {
		s.counts.Errors++
		s.logger.WarnContext(ctx, "club resolution failed", "name", rec.Club, "error", err)
		return nil
	}

	var (
		meetID   *int64
		seasonID *int64
	)
	if date, ok := parseRecordDate(rec.Date); ok {
		meetID, err = s.resolver.ResolveMeet(ctx, meetName(rec), date, rec.Indoor)
		if err != nil {
			s.counts.Errors++
			s.logger.WarnContext(ctx, "meet resolution failed", "record_date", rec.Date, "error", err)
			return nil
		}
		seasonID, err = s.resolver.ResolveSeason(ctx, date.Year(), rec.Indoor)
		if err != nil {
			s.counts.Errors++
			s.logger.WarnContext(ctx, "season resolution failed", "year", date.Year(), "error", err)
			return nil
		}
	}

	var wind *float64
	if ev.WindMeasured {
		wind = canonical.Wind
		if wind == nil {
			wind = performance.ParseWind(rec.Wind)
		}
	}

	s.pending = append(s.pending, result.Result{
		AthleteID: athleteID,
		EventID:   ev.ID,
		MeetID:    meetID,
		SeasonID:  seasonID,
		ClubID:    clubID,
		Display:   canonical.Display,
		Value:     canonical.Value,
		Wind:      wind,
		Placement: parsePlacement(rec.Placement),
		Round:     result.DefaultRound,
		Heat:      result.DefaultHeat,
		Status:    status,
		Verified:  rec.Approved,
	})
	return nil
}

// Flush writes the buffered results. A failing batch is retried once
// per half, then record by record, so one bad record cannot block the
// rest of its batch. Persistent single-record failures are counted.
func (s *IngestService) Flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	batch := s.pending
	s.pending = nil

	if s.dryRun {
		s.counts.Imported += len(batch)
		return nil
	}

	inserted, err := s.resultRepo.InsertBatch(ctx, batch)
	if err == nil {
		s.recordBatch(len(batch), inserted)
		return nil
	}
	s.logger.WarnContext(ctx, "batch insert failed, splitting",
		"size", len(batch), "error", err)

	for _, half := range splitBatch(batch) {
		inserted, err := s.resultRepo.InsertBatch(ctx, half)
		if err == nil {
			s.recordBatch(len(half), inserted)
			continue
		}
		s.logger.WarnContext(ctx, "half batch insert failed, going record by record",
			"size", len(half), "error", err)
		for _, item := range half {
			ok, err := s.resultRepo.Insert(ctx, item)
			switch {
			case err != nil:
				s.counts.Errors++
				s.logger.ErrorContext(ctx, "result insert failed",
					"athlete_id", item.AthleteID, "event_id", item.EventID, "error", err)
			case ok:
				s.counts.Imported++
			default:
				s.counts.skip(SkipAlreadyImported)
			}
		}
	}
	return nil
}

func (s *IngestService) recordBatch(size, inserted int) {
	s.counts.Imported += inserted
	for i := inserted; i < size; i++ {
		s.counts.skip(SkipAlreadyImported)
	}
}

func splitBatch(batch []result.Result) [][]result.Result {
	if len(batch) < 2 {
		return [][]result.Result{batch}
	}
	mid := len(batch) / 2
	return [][]result.Result{batch[:mid], batch[mid:]}
}

// meetName prefers the title attribute's fuller form over the cell
// text, keeping the city-prefixed name when the source provides it.
func meetName(rec RawRecord) string {
	if t := strings.TrimSpace(rec.VenueTitle); t != "" {
		return t
	}
	return strings.TrimSpace(rec.VenueText)
}

var recordDateLayouts = []string{"02.01.2006", "2006-01-02"}

func parseRecordDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range recordDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parsePlacement(raw string) *int {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "."))
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}
