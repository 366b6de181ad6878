package result

const (
	StatusOK  = "OK"
	StatusDNS = "DNS"
	StatusDNF = "DNF"
	StatusDQ  = "DQ"
	StatusNM  = "NM"
)

// Round/heat sentinels applied when the source carries no round
// information, so that repeated imports collapse onto one logical slot.
const (
	DefaultRound = "final"
	DefaultHeat  = 1
)

// Result is one recorded performance. Unique on
// (athlete, event, meet, round, heat); the upsert path relies on the
// store enforcing that.
type Result struct {
	ID        int64
	AthleteID int64
	EventID   int64
	MeetID    *int64
	SeasonID  *int64
	ClubID    *int64
	// Display preserves the source's textual precision; Value is the
	// canonical sortable number (hundredths of a second for time,
	// centimeters for distance, raw points for points).
	Display   string
	Value     int64
	Wind      *float64
	Placement *int
	Round     string
	Heat      int
	Status    string
	Verified  bool
}

// IsStatusToken reports whether a raw performance cell is one of the
// non-performance status markers.
func IsStatusToken(s string) (string, bool) {
	switch s {
	case StatusDNS, StatusDNF, StatusDQ, StatusNM:
		return s, true
	default:
		return "", false
	}
}
