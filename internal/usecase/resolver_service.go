package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/resultatbasen/ingest/internal/domain/athlete"
	"github.com/resultatbasen/ingest/internal/domain/club"
	"github.com/resultatbasen/ingest/internal/domain/event"
	"github.com/resultatbasen/ingest/internal/domain/meet"
	"github.com/resultatbasen/ingest/internal/domain/season"
	"github.com/resultatbasen/ingest/internal/platform/logging"
)

// EntityResolver maps natural keys to durable entity ids, creating
// missing entities exactly once. It owns its caches and lives for one
// run; the pipeline stages receive it by reference. The caches are the
// only shared mutable state in a run and are safe under the sequential
// scan model (cleanup only reads them).
type EntityResolver struct {
	athleteRepo athlete.Repository
	clubRepo    club.Repository
	eventRepo   event.Repository
	meetRepo    meet.Repository
	seasonRepo  season.Repository
	logger      *logging.Logger

	athleteIDByExternal map[string]int64
	athleteHasBirthYear map[int64]bool
	clubIDByName        map[string]int64
	eventByCode         map[string]event.Event
	meetIDByKey         map[string]int64
	seasonIDByKey       map[string]int64
}

func NewEntityResolver(
	athleteRepo athlete.Repository,
	clubRepo club.Repository,
	eventRepo event.Repository,
	meetRepo meet.Repository,
	seasonRepo season.Repository,
	logger *logging.Logger,
) *EntityResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &EntityResolver{
		athleteRepo:         athleteRepo,
		clubRepo:            clubRepo,
		eventRepo:           eventRepo,
		meetRepo:            meetRepo,
		seasonRepo:          seasonRepo,
		logger:              logger,
		athleteIDByExternal: make(map[string]int64),
		athleteHasBirthYear: make(map[int64]bool),
		clubIDByName:        make(map[string]int64),
		eventByCode:         make(map[string]event.Event),
		meetIDByKey:         make(map[string]int64),
		seasonIDByKey:       make(map[string]int64),
	}
}

// Warm preloads all caches from the store. Called once at run start.
func (r *EntityResolver) Warm(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntityResolver.Warm")
	defer span.End()

	athletes, err := r.athleteRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("preload athletes: %w", err)
	}
	for _, a := range athletes {
		if a.ExternalID != "" {
			r.athleteIDByExternal[a.ExternalID] = a.ID
		}
		r.athleteHasBirthYear[a.ID] = a.BirthYear != nil
	}

	clubs, err := r.clubRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("preload clubs: %w", err)
	}
	for _, c := range clubs {
		r.clubIDByName[club.NormalizeName(c.Name)] = c.ID
	}

	events, err := r.eventRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("preload events: %w", err)
	}
	for _, e := range events {
		r.eventByCode[e.Code] = e
	}

	meets, err := r.meetRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("preload meets: %w", err)
	}
	for _, m := range meets {
		r.meetIDByKey[meet.Key(m.Name, m.StartDate)] = m.ID
	}

	seasons, err := r.seasonRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("preload seasons: %w", err)
	}
	for _, s := range seasons {
		r.seasonIDByKey[season.Key(s.Year, s.Indoor)] = s.ID
	}

	r.logger.InfoContext(ctx, "entity caches warmed",
		"athletes", len(r.athleteIDByExternal),
		"clubs", len(r.clubIDByName),
		"events", len(r.eventByCode),
		"meets", len(r.meetIDByKey),
		"seasons", len(r.seasonIDByKey),
	)
	return nil
}

// RawAthlete is the athlete identity as seen on a result page.
type RawAthlete struct {
	ExternalID  string
	FirstName   string
	LastName    string
	BirthYear   int
	Nationality string
}

// ResolveAthlete returns the id for the external identifier, creating
// the athlete on first sight. A birth year seen later on a
// higher-confidence page is back-filled without touching identity.
func (r *EntityResolver) ResolveAthlete(ctx context.Context, raw RawAthlete) (int64, error) {
	externalID := strings.TrimSpace(raw.ExternalID)
	if externalID == "" {
		return 0, fmt.Errorf("%w: athlete external id is required", ErrInvalidInput)
	}

	if id, ok := r.athleteIDByExternal[externalID]; ok {
		r.maybeBackfillBirthYear(ctx, id, raw.BirthYear)
		return id, nil
	}

	a := athlete.Athlete{
		ExternalID:  externalID,
		FirstName:   strings.TrimSpace(raw.FirstName),
		LastName:    strings.TrimSpace(raw.LastName),
		Nationality: strings.TrimSpace(raw.Nationality),
	}
	if raw.BirthYear > 0 {
		year := raw.BirthYear
		a.BirthYear = &year
	}

	id, err := r.athleteRepo.Create(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("create athlete %s: %w", externalID, err)
	}
	if id == 0 {
		// Lost a creation race; adopt the winning row.
		existing, err := r.athleteRepo.GetByExternalID(ctx, externalID)
		if err != nil {
			return 0, fmt.Errorf("re-query athlete %s after conflict: %w", externalID, err)
		}
		id = existing.ID
	}

	r.athleteIDByExternal[externalID] = id
	r.athleteHasBirthYear[id] = a.BirthYear != nil
	return id, nil
}

func (r *EntityResolver) maybeBackfillBirthYear(ctx context.Context, id int64, year int) {
	if year <= 0 || r.athleteHasBirthYear[id] {
		return
	}
	if err := r.athleteRepo.BackfillBirthYear(ctx, id, year); err != nil {
		r.logger.WarnContext(ctx, "birth year backfill failed", "athlete_id", id, "error", err)
		return
	}
	r.athleteHasBirthYear[id] = true
}

// ResolveClub returns the club id for a display name, creating it on
// first reference. An empty name resolves to nil.
func (r *EntityResolver) ResolveClub(ctx context.Context, name string) (*int64, error) {
	normalized := club.NormalizeName(name)
	if normalized == "" {
		return nil, nil
	}

	if id, ok := r.clubIDByName[normalized]; ok {
		return &id, nil
	}

	id, err := r.clubRepo.Create(ctx, club.Club{Name: normalized})
	if err != nil {
		return nil, fmt.Errorf("create club %q: %w", normalized, err)
	}
	if id == 0 {
		existing, err := r.clubRepo.GetByName(ctx, normalized)
		if err != nil {
			return nil, fmt.Errorf("re-query club %q after conflict: %w", normalized, err)
		}
		id = existing.ID
	}

	r.clubIDByName[normalized] = id
	return &id, nil
}

// ResolveEvent maps a source event name to the taxonomy. A specific
// weight/height-qualified code falls back to the generic code only
// when the specific code is entirely absent from the store; a generic
// code never swallows an existing specific one.
func (r *EntityResolver) ResolveEvent(name string) (event.Event, error) {
	code := event.CodeFromName(name)
	if code == "" {
		return event.Event{}, fmt.Errorf("%w: empty event name", ErrInvalidInput)
	}

	if e, ok := r.eventByCode[code]; ok {
		return e, nil
	}
	if generic := event.GenericCode(code); generic != code {
		if e, ok := r.eventByCode[generic]; ok {
			return e, nil
		}
	}
	return event.Event{}, fmt.Errorf("%w: event %q", ErrNotFound, name)
}

// ResolveMeet collapses city-prefixed and bare meet names onto one row
// when the date matches, creating with the fuller form so the
// canonical name stays maximally informative.
func (r *EntityResolver) ResolveMeet(ctx context.Context, name string, date time.Time, indoor bool) (*int64, error) {
	trimmed := strings.Join(strings.Fields(name), " ")
	if trimmed == "" || date.IsZero() {
		return nil, nil
	}

	key := meet.Key(trimmed, date)
	if id, ok := r.meetIDByKey[key]; ok {
		return &id, nil
	}

	city, bare := splitCityPrefix(trimmed)
	m := meet.Meet{
		Name:      trimmed,
		City:      city,
		StartDate: date,
		Indoor:    indoor,
	}
	if city == "" {
		m.Name = bare
	}

	id, err := r.meetRepo.Create(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("create meet %q: %w", trimmed, err)
	}
	if id == 0 {
		existing, err := r.meetRepo.GetByKey(ctx, meet.NameKey(trimmed), date)
		if err != nil {
			return nil, fmt.Errorf("re-query meet %q after conflict: %w", trimmed, err)
		}
		id = existing.ID
	}

	r.meetIDByKey[key] = id
	return &id, nil
}

// ResolveSeason lazily creates the (year, indoor) season.
func (r *EntityResolver) ResolveSeason(ctx context.Context, year int, indoor bool) (*int64, error) {
	if year <= 0 {
		return nil, nil
	}

	key := season.Key(year, indoor)
	if id, ok := r.seasonIDByKey[key]; ok {
		return &id, nil
	}

	id, err := r.seasonRepo.Create(ctx, season.Season{Year: year, Indoor: indoor})
	if err != nil {
		return nil, fmt.Errorf("create season %d indoor=%t: %w", year, indoor, err)
	}
	if id == 0 {
		existing, err := r.seasonRepo.Get(ctx, year, indoor)
		if err != nil {
			return nil, fmt.Errorf("re-query season %d after conflict: %w", year, err)
		}
		id = existing.ID
	}

	r.seasonIDByKey[key] = id
	return &id, nil
}

// splitCityPrefix separates a leading "<city>, " segment when it looks
// like a place name, mirroring meet.NameKey.
func splitCityPrefix(name string) (city, rest string) {
	idx := strings.Index(name, ", ")
	if idx <= 0 {
		return "", name
	}
	head := name[:idx]
	tail := name[idx+2:]
	if tail == "" || meet.NameKey(name) == strings.ToLower(name) {
		return "", name
	}
	return head, tail
}
