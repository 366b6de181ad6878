package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resultatbasen/ingest/internal/domain/athlete"
	"github.com/resultatbasen/ingest/internal/infrastructure/repository/memory"
	"github.com/resultatbasen/ingest/internal/platform/logging"
	"github.com/resultatbasen/ingest/internal/usecase"
)

func newResolver(t *testing.T, athletes *memory.AthleteRepository) *usecase.EntityResolver {
	t.Helper()

	if athletes == nil {
		athletes = memory.NewAthleteRepository(nil)
	}
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
	return resolver
}

func TestResolveAthlete_CreatesOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newResolver(t, nil)

	raw := usecase.RawAthlete{ExternalID: "4711", FirstName: "Kari", LastName: "Nordmann"}
	id1, err := r.ResolveAthlete(ctx, raw)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	id2, err := r.ResolveAthlete(ctx, raw)
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("ids differ: %d vs %d", id1, id2)
	}
}

func TestResolveAthlete_AdoptsConflictingRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// The row exists in the store but not in the resolver's cache,
	// which is the shape a lost creation race takes.
	athletes := memory.NewAthleteRepository([]athlete.Athlete{
		{ExternalID: "4711", FirstName: "Kari", LastName: "Nordmann"},
	})
	resolver := usecase.NewEntityResolver(
		athletes,
		memory.NewClubRepository(nil),
		memory.NewEventRepository(seedEvents()),
		memory.NewMeetRepository(nil),
		memory.NewSeasonRepository(nil),
		logging.NewNop(),
	)

	id, err := resolver.ResolveAthlete(ctx, usecase.RawAthlete{ExternalID: "4711"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	existing, err := athletes.GetByExternalID(ctx, "4711")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if id != existing.ID {
		t.Fatalf("expected adopted id %d, got %d", existing.ID, id)
	}
}

func TestResolveAthlete_BackfillsBirthYear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	athletes := memory.NewAthleteRepository(nil)
	r := newResolver(t, athletes)

	if _, err := r.ResolveAthlete(ctx, usecase.RawAthlete{ExternalID: "5"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := r.ResolveAthlete(ctx, usecase.RawAthlete{ExternalID: "5", BirthYear: 1987}); err != nil {
		t.Fatalf("resolve with year: %v", err)
	}

	got, err := athletes.GetByExternalID(ctx, "5")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.BirthYear == nil || *got.BirthYear != 1987 {
		t.Fatalf("birth year not backfilled: %v", got.BirthYear)
	}
}

func TestResolveAthlete_RequiresExternalID(t *testing.T) {
	t.Parallel()
	r := newResolver(t, nil)

	if _, err := r.ResolveAthlete(context.Background(), usecase.RawAthlete{}); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestResolveClub_EmptyNameResolvesToNil(t *testing.T) {
	t.Parallel()
	r := newResolver(t, nil)

	id, err := r.ResolveClub(context.Background(), "   ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != nil {
		t.Fatalf("expected nil club id, got %d", *id)
	}
}

func TestResolveClub_NormalizesWhitespace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newResolver(t, nil)

	id1, err := r.ResolveClub(ctx, "IL  Tyrving")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	id2, err := r.ResolveClub(ctx, " IL Tyrving ")
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if *id1 != *id2 {
		t.Fatalf("ids differ: %d vs %d", *id1, *id2)
	}
}

func TestResolveEvent_SpecificWinsOverGeneric(t *testing.T) {
	t.Parallel()
	r := newResolver(t, nil)

	specific, err := r.ResolveEvent("Kule 7,26kg")
	if err != nil {
		t.Fatalf("resolve specific: %v", err)
	}
	if specific.Code != "KULE 7.26KG" {
		t.Fatalf("unexpected code: %s", specific.Code)
	}

	// An absent specific code falls back to the generic implement.
	fallback, err := r.ResolveEvent("Kule 6kg")
	if err != nil {
		t.Fatalf("resolve fallback: %v", err)
	}
	if fallback.Code != "KULE" {
		t.Fatalf("unexpected fallback code: %s", fallback.Code)
	}

	if _, err := r.ResolveEvent("Krokket"); !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveMeet_CityPrefixCollapses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newResolver(t, nil)
	date := time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC)

	id1, err := r.ResolveMeet(ctx, "Oslo, NM Friidrett", date, false)
	if err != nil {
		t.Fatalf("resolve prefixed: %v", err)
	}
	id2, err := r.ResolveMeet(ctx, "NM Friidrett", date, false)
	if err != nil {
		t.Fatalf("resolve bare: %v", err)
	}
	if *id1 != *id2 {
		t.Fatalf("prefixed and bare names resolved to different meets: %d vs %d", *id1, *id2)
	}

	// Different date, different meet.
	id3, err := r.ResolveMeet(ctx, "NM Friidrett", date.AddDate(0, 0, 1), false)
	if err != nil {
		t.Fatalf("resolve other date: %v", err)
	}
	if *id3 == *id1 {
		t.Fatalf("different dates must not share a meet")
	}
}

func TestResolveSeason(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newResolver(t, nil)

	outdoor, err := r.ResolveSeason(ctx, 2019, false)
	if err != nil {
		t.Fatalf("resolve outdoor: %v", err)
	}
	indoor, err := r.ResolveSeason(ctx, 2019, true)
	if err != nil {
		t.Fatalf("resolve indoor: %v", err)
	}
	if *outdoor == *indoor {
		t.Fatalf("indoor and outdoor seasons must differ")
	}

	again, err := r.ResolveSeason(ctx, 2019, false)
	if err != nil {
		t.Fatalf("resolve outdoor again: %v", err)
	}
	if *again != *outdoor {
		t.Fatalf("season not cached: %d vs %d", *again, *outdoor)
	}

	none, err := r.ResolveSeason(ctx, 0, false)
	if err != nil || none != nil {
		t.Fatalf("zero year must resolve to nil, got %v err=%v", none, err)
	}
}
