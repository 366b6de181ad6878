package usecase_test

import (
	"context"
	"testing"

	"github.com/resultatbasen/ingest/internal/domain/event"
	"github.com/resultatbasen/ingest/internal/infrastructure/repository/memory"
	"github.com/resultatbasen/ingest/internal/platform/logging"
	"github.com/resultatbasen/ingest/internal/usecase"
)

func seedEvents() []event.Event {
	return []event.Event{
		{Code: "100M", Name: "100m", Kind: event.KindTime, Class: event.ClassSprint, WindMeasured: true},
		{Code: "800M", Name: "800m", Kind: event.KindTime, Class: event.ClassMiddle},
		{Code: "10KM", Name: "10km", Kind: event.KindTime, Class: event.ClassNone},
		{Code: "LENGDE", Name: "Lengde", Kind: event.KindDistance, Class: event.ClassNone, WindMeasured: true},
		{Code: "KULE", Name: "Kule", Kind: event.KindDistance, Class: event.ClassNone},
		{Code: "KULE 7.26KG", Name: "Kule 7,26kg", Kind: event.KindDistance, Class: event.ClassNone},
		{Code: "TIKAMP", Name: "Tikamp", Kind: event.KindPoints, Class: event.ClassNone},
	}
}

type pipeline struct {
	ingest   *usecase.IngestService
	resolver *usecase.EntityResolver
	results  *memory.ResultRepository
	athletes *memory.AthleteRepository
}

func newPipeline(t *testing.T, batchSize int, dryRun bool) pipeline {
	t.Helper()

	athletes := memory.NewAthleteRepository(nil)
	resolver := usecase.NewEntityResolver(
		athletes,
		memory.NewClubRepository(nil),
		memory.NewEventRepository(seedEvents()),
		memory.NewMeetRepository(nil),
		memory.NewSeasonRepository(nil),
		logging.NewNop(),
	)
	if err := resolver.Warm(context.Background()); err != nil {
		t.Fatalf("warm resolver: %v", err)
	}

	results := memory.NewResultRepository()
	return pipeline{
		ingest:   usecase.NewIngestService(resolver, results, batchSize, dryRun, logging.NewNop()),
		resolver: resolver,
		results:  results,
		athletes: athletes,
	}
}

func testPage() usecase.SourcePage {
	return usecase.SourcePage{
		Athlete: usecase.RawAthlete{
			ExternalID: "4711",
			FirstName:  "Kari",
			LastName:   "Nordmann",
			BirthYear:  1995,
		},
		Records: []usecase.RawRecord{
			{
				EventName:   "100m",
				Performance: "10,47",
				Wind:        "+1,2",
				Placement:   "1.",
				Club:        "IL Tyrving",
				Date:        "15.06.2019",
				VenueText:   "Oslo, NM Friidrett",
				Approved:    true,
			},
			{
				EventName:   "800m",
				Performance: "2,03,1",
				Club:        "IL Tyrving",
				Date:        "2019-06-16",
				Approved:    true,
			},
		},
	}
}

func TestIngestPage_ImportsAndIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newPipeline(t, 100, false)

	if err := p.ingest.IngestPage(ctx, testPage()); err != nil {
		t.Fatalf("ingest page: %v", err)
	}
	if err := p.ingest.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	counts := p.ingest.Counts()
	if counts.Imported != 2 {
		t.Fatalf("imported: got %d, want 2", counts.Imported)
	}

	// Re-running the same page must not create new rows.
	if err := p.ingest.IngestPage(ctx, testPage()); err != nil {
		t.Fatalf("re-ingest page: %v", err)
	}
	if err := p.ingest.Flush(ctx); err != nil {
		t.Fatalf("re-flush: %v", err)
	}

	counts = p.ingest.Counts()
	if counts.Imported != 2 {
		t.Fatalf("imported after rerun: got %d, want 2", counts.Imported)
	}
	if counts.Skipped[usecase.SkipAlreadyImported] != 2 {
		t.Fatalf("already imported skips: got %d, want 2", counts.Skipped[usecase.SkipAlreadyImported])
	}

	stored, err := p.results.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if stored != 2 {
		t.Fatalf("stored rows: got %d, want 2", stored)
	}
}

func TestIngestPage_CanonicalRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newPipeline(t, 100, false)

	if err := p.ingest.IngestPage(ctx, testPage()); err != nil {
		t.Fatalf("ingest page: %v", err)
	}
	if err := p.ingest.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	rows := p.results.ListAll()
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}

	sprint := rows[0]
	if sprint.Display != "10.47" || sprint.Value != 1047 {
		t.Fatalf("sprint canonical: %q / %d", sprint.Display, sprint.Value)
	}
	if sprint.Wind == nil || *sprint.Wind != 1.2 {
		t.Fatalf("sprint wind: %v", sprint.Wind)
	}
	if sprint.Placement == nil || *sprint.Placement != 1 {
		t.Fatalf("sprint placement: %v", sprint.Placement)
	}
	if sprint.MeetID == nil || sprint.SeasonID == nil || sprint.ClubID == nil {
		t.Fatalf("sprint references missing: meet=%v season=%v club=%v",
			sprint.MeetID, sprint.SeasonID, sprint.ClubID)
	}
	if sprint.Round != "final" || sprint.Heat != 1 {
		t.Fatalf("sprint round/heat: %q/%d", sprint.Round, sprint.Heat)
	}
	if !sprint.Verified {
		t.Fatalf("sprint must carry the page's approval")
	}

	middle := rows[1]
	if middle.Display != "2:03.1" || middle.Value != 12310 {
		t.Fatalf("middle canonical: %q / %d", middle.Display, middle.Value)
	}
	if middle.Wind != nil {
		t.Fatalf("non wind-measured event must not record wind: %v", *middle.Wind)
	}
}

func TestIngestPage_SkipReasons(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newPipeline(t, 100, false)

	page := usecase.SourcePage{
		Athlete:     usecase.RawAthlete{ExternalID: "99"},
		DroppedRows: 2,
		Records: []usecase.RawRecord{
			{EventName: "Krokket", Performance: "10,47"},
			{EventName: "100m", Performance: "9999"},
			{EventName: "10km", Performance: "3.45"},
			{EventName: "100m", Performance: ""},
		},
	}
	if err := p.ingest.IngestPage(ctx, page); err != nil {
		t.Fatalf("ingest page: %v", err)
	}
	if err := p.ingest.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	counts := p.ingest.Counts()
	if counts.Imported != 0 {
		t.Fatalf("imported: got %d, want 0", counts.Imported)
	}
	if got := counts.Skipped[usecase.SkipUnknownEvent]; got != 1 {
		t.Fatalf("unknown event skips: got %d, want 1", got)
	}
	if got := counts.Skipped[usecase.SkipUnparseable]; got != 1 {
		t.Fatalf("unparseable skips: got %d, want 1", got)
	}
	if got := counts.Skipped[usecase.SkipAmbiguous]; got != 1 {
		t.Fatalf("ambiguous skips: got %d, want 1", got)
	}
	if got := counts.Skipped[usecase.SkipInvalidRecord]; got != 3 {
		t.Fatalf("invalid record skips: got %d, want 3", got)
	}
}

func TestIngestPage_StatusToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newPipeline(t, 100, false)

	page := usecase.SourcePage{
		Athlete: usecase.RawAthlete{ExternalID: "7"},
		Records: []usecase.RawRecord{
			{EventName: "100m", Performance: "DNS"},
		},
	}
	if err := p.ingest.IngestPage(ctx, page); err != nil {
		t.Fatalf("ingest page: %v", err)
	}
	if err := p.ingest.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	rows := p.results.ListAll()
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(rows))
	}
	if rows[0].Status != "DNS" || rows[0].Display != "DNS" || rows[0].Value != 0 {
		t.Fatalf("status row: status=%q display=%q value=%d",
			rows[0].Status, rows[0].Display, rows[0].Value)
	}
}

func TestIngestPage_GenericEventFallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newPipeline(t, 100, false)

	page := usecase.SourcePage{
		Athlete: usecase.RawAthlete{ExternalID: "8"},
		Records: []usecase.RawRecord{
			// Specific code exists in the taxonomy; it must win.
			{EventName: "Kule 7,26kg", Performance: "18.44"},
			// No "KULE 6KG" in the taxonomy; generic KULE picks it up.
			{EventName: "Kule 6kg", Performance: "19.02"},
		},
	}
	if err := p.ingest.IngestPage(ctx, page); err != nil {
		t.Fatalf("ingest page: %v", err)
	}
	if err := p.ingest.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	rows := p.results.ListAll()
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	if rows[0].EventID == rows[1].EventID {
		t.Fatalf("specific and generic throws must map to different events")
	}
}

func TestFlush_BinarySplitFallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newPipeline(t, 100, false)

	page := usecase.SourcePage{
		Athlete: usecase.RawAthlete{ExternalID: "11"},
		Records: []usecase.RawRecord{
			{EventName: "100m", Performance: "10,47", Date: "01.06.2019", VenueText: "Stevne A"},
			{EventName: "800m", Performance: "2,03,1", Date: "02.06.2019", VenueText: "Stevne B"},
			{EventName: "Lengde", Performance: "6.72", Date: "03.06.2019", VenueText: "Stevne C"},
			{EventName: "Kule", Performance: "15.20", Date: "04.06.2019", VenueText: "Stevne D"},
		},
	}
	if err := p.ingest.IngestPage(ctx, page); err != nil {
		t.Fatalf("ingest page: %v", err)
	}

	// Full batch fails, both halves fail, per-record inserts succeed.
	p.results.FailBatches = 3
	if err := p.ingest.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	counts := p.ingest.Counts()
	if counts.Imported != 4 {
		t.Fatalf("imported: got %d, want 4", counts.Imported)
	}
	if counts.Errors != 0 {
		t.Fatalf("errors: got %d, want 0", counts.Errors)
	}
	stored, _ := p.results.Count(ctx)
	if stored != 4 {
		t.Fatalf("stored rows: got %d, want 4", stored)
	}
}

func TestFlush_DryRunWritesNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newPipeline(t, 100, true)

	if err := p.ingest.IngestPage(ctx, testPage()); err != nil {
		t.Fatalf("ingest page: %v", err)
	}
	if err := p.ingest.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	counts := p.ingest.Counts()
	if counts.Imported != 2 {
		t.Fatalf("imported: got %d, want 2", counts.Imported)
	}
	stored, _ := p.results.Count(ctx)
	if stored != 0 {
		t.Fatalf("dry run must not write, got %d rows", stored)
	}
}

func TestIngestPage_RoundHeatCollapse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newPipeline(t, 100, false)

	// Same athlete, event and meet twice on one page: the defaulted
	// (round, heat) slot admits exactly one row.
	rec := usecase.RawRecord{
		EventName:   "100m",
		Performance: "10,47",
		Date:        "15.06.2019",
		VenueText:   "NM Friidrett",
	}
	page := usecase.SourcePage{
		Athlete: usecase.RawAthlete{ExternalID: "12"},
		Records: []usecase.RawRecord{rec, rec},
	}
	if err := p.ingest.IngestPage(ctx, page); err != nil {
		t.Fatalf("ingest page: %v", err)
	}
	if err := p.ingest.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	counts := p.ingest.Counts()
	if counts.Imported != 1 {
		t.Fatalf("imported: got %d, want 1", counts.Imported)
	}
	if counts.Skipped[usecase.SkipAlreadyImported] != 1 {
		t.Fatalf("already imported skips: got %d, want 1",
			counts.Skipped[usecase.SkipAlreadyImported])
	}
}
