package athlete

import "time"

const (
	GenderFemale  = "F"
	GenderMale    = "M"
	GenderUnknown = ""
)

// Athlete is created on the first encountered result. Birth year and
// date may be back-filled later from a higher-confidence source
// without changing identity.
type Athlete struct {
	ID          int64
	ExternalID  string
	FirstName   string
	LastName    string
	BirthYear   *int
	BirthDate   *time.Time
	Gender      string
	Nationality string
}
