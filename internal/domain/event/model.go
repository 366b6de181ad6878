package event

import (
	"strings"
)

// Kind tells how a performance for this event is measured and sorted.
type Kind string

const (
	KindTime     Kind = "time"     // lower is better
	KindDistance Kind = "distance" // higher is better
	KindPoints   Kind = "points"   // higher is better
)

// Class is the coarse timing class used to disambiguate two-group
// performance strings such as "8.44" (minutes.seconds for middle
// distance, plain seconds for sprints).
type Class string

const (
	ClassSprint   Class = "sprint"
	ClassMiddle   Class = "middle"
	ClassMarathon Class = "marathon"
	// ClassNone marks field events and events where a two-group value
	// must never be reinterpreted as minutes.
	ClassNone Class = "none"
)

// Event is a competition rule with the implement weight or hurdle
// height baked into the code. Two source names that differ only in
// legacy notation share one code; names with different underlying
// rules never do.
type Event struct {
	ID           int64
	Code         string
	Name         string
	Kind         Kind
	Class        Class
	Category     string
	Indoor       bool
	Outdoor      bool
	WindMeasured bool
}

// MinuteBounds returns the plausible total-minute range for a
// two-group time value of this class. The bounds were derived from
// observed data and are kept here so they can be revised in one place.
func (c Class) MinuteBounds() (lo, hi int, ok bool) {
	switch c {
	case ClassMiddle:
		return 1, 20, true
	case ClassMarathon:
		return 60, 360, true
	default:
		return 0, 0, false
	}
}

// CodeFromName maps a source event name to its stable code: uppercase,
// single-space separated, decimal commas unified to periods, so that
// "Kule 7,26kg" and "KULE 7.26KG" resolve identically.
func CodeFromName(name string) string {
	code := strings.ToUpper(strings.TrimSpace(name))
	code = strings.Join(strings.Fields(code), " ")
	code = strings.ReplaceAll(code, ",", ".")
	return code
}

// GenericCode strips a trailing weight/height qualifier from a
// specific code ("KULE 7.26KG" -> "KULE"). It returns the input
// unchanged when no qualifier is present.
func GenericCode(code string) string {
	idx := strings.LastIndex(code, " ")
	if idx <= 0 {
		return code
	}
	tail := code[idx+1:]
	if !startsWithDigit(tail) {
		return code
	}
	return code[:idx]
}

func startsWithDigit(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}
