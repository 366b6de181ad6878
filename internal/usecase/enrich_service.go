package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/resultatbasen/ingest/internal/domain/athlete"
	"github.com/resultatbasen/ingest/internal/platform/logging"
)

type EnrichReport struct {
	Examined int  `json:"examined"`
	Updated  int  `json:"updated"`
	Unknown  int  `json:"unknown"`
	DryRun   bool `json:"dry_run"`
}

// EnrichService back-fills athlete gender from the given-name
// frequency table. It is a best-effort pass over already-imported
// rows and never runs as part of ingestion; an unknown name simply
// stays unknown.
type EnrichService struct {
	athleteRepo athlete.Repository
	names       athlete.GivenNameIndex
	logger      *logging.Logger
	pageSize    int
}

func NewEnrichService(athleteRepo athlete.Repository, names athlete.GivenNameIndex, logger *logging.Logger) *EnrichService {
	if logger == nil {
		logger = logging.Default()
	}
	return &EnrichService{
		athleteRepo: athleteRepo,
		names:       names,
		logger:      logger,
		pageSize:    1000,
	}
}

func (s *EnrichService) Run(ctx context.Context, dryRun bool) (EnrichReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EnrichService.Run")
	defer span.End()

	report := EnrichReport{DryRun: dryRun}
	seen := make(map[int64]struct{})
	for {
		athletes, err := s.athleteRepo.ListMissingGender(ctx, s.pageSize)
		if err != nil {
			return report, fmt.Errorf("list athletes missing gender: %w", err)
		}

		// Unknown names stay in the unresolved set, so pages repeat
		// them; stop once a page brings nothing new.
		newThisPage := 0
		for _, a := range athletes {
			if _, done := seen[a.ID]; done {
				continue
			}
			seen[a.ID] = struct{}{}
			newThisPage++
			report.Examined++

			gender, err := s.names.GenderByGivenName(ctx, givenName(a.FirstName))
			if err != nil {
				return report, fmt.Errorf("lookup given name for athlete %d: %w", a.ID, err)
			}
			if gender == athlete.GenderUnknown {
				report.Unknown++
				continue
			}

			if !dryRun {
				if err := s.athleteRepo.UpdateGender(ctx, a.ID, gender); err != nil {
					return report, fmt.Errorf("update gender for athlete %d: %w", a.ID, err)
				}
			}
			report.Updated++
		}

		if newThisPage == 0 {
			break
		}
	}

	s.logger.InfoContext(ctx, "gender enrichment finished",
		"examined", report.Examined,
		"updated", report.Updated,
		"unknown", report.Unknown,
		"dry_run", report.DryRun)
	return report, nil
}

// givenName takes the first space-separated token of the first name,
// since the source concatenates middle names into the field.
func givenName(firstName string) string {
	fields := strings.Fields(firstName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
