package performance

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/resultatbasen/ingest/internal/domain/event"
)

var (
	// ErrUnparseable marks a raw performance that cannot be read as a
	// value at all, including zeros and the site's error codes.
	ErrUnparseable = errors.New("unparseable performance")
	// ErrAmbiguous marks a two-group numeric that has no event-class
	// context to decide between seconds and minutes. Guessing here is
	// what corrupted the historical data, so the caller must skip.
	ErrAmbiguous = errors.New("ambiguous performance")
)

// Canonical is the precision-preserving display string paired with the
// sortable value: hundredths of a second for time, centimeters for
// distance, raw points for points.
type Canonical struct {
	Display string
	Value   int64
	Wind    *float64
}

// Values the source emits in place of a missing measurement.
var knownErrorCodes = map[string]struct{}{
	"9999":  {},
	"99999": {},
	"99.99": {},
	"99,99": {},
}

var (
	windGroupRegex  = regexp.MustCompile(`\(([-+]?\d+(?:[.,]\d+)?)\)\s*$`)
	unitSuffixRegex = regexp.MustCompile(`(?i)\s*(m|p|pts|poeng)$`)
	markerRegex     = regexp.MustCompile(`[*hx\x{2020}]+$`)
	numericRegex    = regexp.MustCompile(`^\d+$`)
)

// Normalize converts a raw textual performance into its canonical
// form. kind selects the measurement model; class disambiguates
// two-group time values (bounds derived from observed corrections,
// see event.Class).
func Normalize(raw string, kind event.Kind, class event.Class) (Canonical, error) {
	cleaned, wind := stripAnnotations(raw)
	if cleaned == "" {
		return Canonical{}, fmt.Errorf("%w: empty after cleaning %q", ErrUnparseable, raw)
	}
	if _, bad := knownErrorCodes[cleaned]; bad {
		return Canonical{}, fmt.Errorf("%w: site error code %q", ErrUnparseable, cleaned)
	}

	var (
		out Canonical
		err error
	)
	switch {
	case strings.ContainsRune(cleaned, ':'):
		out, err = parseColonTime(cleaned)
	case kind == event.KindTime:
		out, err = parseSeparatedTime(cleaned, class)
	default:
		out, err = parseDecimal(cleaned, kind)
	}
	if err != nil {
		return Canonical{}, err
	}
	if out.Value <= 0 {
		return Canonical{}, fmt.Errorf("%w: zero value %q", ErrUnparseable, raw)
	}

	out.Wind = wind
	return out, nil
}

// ParseWind reads a signed decimal wind reading ("+1,2", "-0.5",
// "1.2"). Unreadable input yields nil; the caller records no wind.
func ParseWind(raw string) *float64 {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "()")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// stripAnnotations removes trailing legality markers, unit suffixes
// and a trailing parenthesized wind group, returning the cleaned value
// and the wind if one was embedded.
func stripAnnotations(raw string) (string, *float64) {
	s := strings.TrimSpace(raw)

	var wind *float64
	if m := windGroupRegex.FindStringSubmatch(s); m != nil {
		wind = ParseWind(m[1])
		s = strings.TrimSpace(s[:len(s)-len(m[0])])
	}
	s = unitSuffixRegex.ReplaceAllString(s, "")
	s = markerRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s), wind
}

// parseColonTime handles "m:ss", "m:ss.f", "h:mm:ss" and
// "h:mm:ss.f" forms.
func parseColonTime(s string) (Canonical, error) {
	body, frac := splitFraction(s)

	parts := strings.Split(body, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Canonical{}, fmt.Errorf("%w: malformed time %q", ErrUnparseable, s)
	}

	groups := make([]int, len(parts))
	for i, p := range parts {
		v, err := parseGroup(p)
		if err != nil {
			return Canonical{}, err
		}
		if i > 0 && v >= 60 {
			return Canonical{}, fmt.Errorf("%w: group %q out of range in %q", ErrUnparseable, p, s)
		}
		groups[i] = v
	}

	var seconds int64
	if len(groups) == 3 {
		seconds = int64(groups[0])*3600 + int64(groups[1])*60 + int64(groups[2])
	} else {
		seconds = int64(groups[0])*60 + int64(groups[1])
	}

	value, fracDisplay, err := applyFraction(seconds, frac)
	if err != nil {
		return Canonical{}, err
	}
	return Canonical{
		Display: timeDisplay(groups, fracDisplay),
		Value:   value,
	}, nil
}

// parseSeparatedTime handles period/comma separated time values, the
// historically inconsistent form. Three groups are always
// minutes,seconds,fraction; two groups depend on the event class.
func parseSeparatedTime(s string, class event.Class) (Canonical, error) {
	groups := splitGroups(s)
	for _, g := range groups {
		if !numericRegex.MatchString(g) {
			return Canonical{}, fmt.Errorf("%w: non-numeric group in %q", ErrUnparseable, s)
		}
	}

	switch len(groups) {
	case 1:
		v, err := parseGroup(groups[0])
		if err != nil {
			return Canonical{}, err
		}
		return Canonical{Display: strconv.Itoa(v), Value: int64(v) * 100}, nil
	case 2:
		return parseTwoGroupTime(groups[0], groups[1], class, s)
	case 3:
		return parseThreeGroupTime(groups[0], groups[1], groups[2], s)
	default:
		return Canonical{}, fmt.Errorf("%w: too many groups in %q", ErrUnparseable, s)
	}
}

// parseThreeGroupTime reads minutes, seconds and a fractional group
// whose digit count carries the timing precision: one digit is manual
// (tenths), two digits electronic (hundredths). The display keeps that
// precision rather than padding to a false one.
func parseThreeGroupTime(mg, sg, fg, raw string) (Canonical, error) {
	m, err := parseGroup(mg)
	if err != nil {
		return Canonical{}, err
	}
	sec, err := parseGroup(sg)
	if err != nil {
		return Canonical{}, err
	}
	if sec >= 60 {
		return Canonical{}, fmt.Errorf("%w: seconds %q out of range in %q", ErrUnparseable, sg, raw)
	}

	seconds := int64(m)*60 + int64(sec)
	value, fracDisplay, err := applyFraction(seconds, fg)
	if err != nil {
		return Canonical{}, err
	}
	return Canonical{
		Display: timeDisplay([]int{m, sec}, fracDisplay),
		Value:   value,
	}, nil
}

// parseTwoGroupTime resolves the historically dangerous "M.SS" form.
// The interpretation is driven solely by the event class; without one
// the value is rejected rather than guessed.
func parseTwoGroupTime(first, second string, class event.Class, raw string) (Canonical, error) {
	lo, hi, bounded := class.MinuteBounds()

	if bounded && len(second) == 2 {
		a, err := parseGroup(first)
		if err != nil {
			return Canonical{}, err
		}
		b, err := parseGroup(second)
		if err != nil {
			return Canonical{}, err
		}

		if class == event.ClassMarathon {
			// hour.minute form; bounds are expressed in total minutes.
			// The display carries the hours so "2.45" renders as a
			// 2h45m duration, not a 2m45s one.
			total := a*60 + b
			if b < 60 && total >= lo && total <= hi {
				return Canonical{
					Display: timeDisplay([]int{a, b, 0}, ""),
					Value:   int64(total) * 60 * 100,
				}, nil
			}
		} else if b < 60 && a >= lo && a <= hi {
			return Canonical{
				Display: timeDisplay([]int{a, b}, ""),
				Value:   (int64(a)*60 + int64(b)) * 100,
			}, nil
		}
	}

	if class == event.ClassSprint || bounded {
		// Sprints are always plain seconds; bounded classes fall back
		// to seconds when the minute reading is implausible.
		return parseDecimalSeconds(first, second)
	}

	return Canonical{}, fmt.Errorf("%w: %q has no event-class context", ErrAmbiguous, raw)
}

func parseDecimalSeconds(whole, frac string) (Canonical, error) {
	w, err := parseGroup(whole)
	if err != nil {
		return Canonical{}, err
	}
	value, fracDisplay, err := applyFraction(int64(w), frac)
	if err != nil {
		return Canonical{}, err
	}
	return Canonical{
		Display: strconv.Itoa(w) + "." + fracDisplay,
		Value:   value,
	}, nil
}

// parseDecimal handles distance and points values, where a single
// separator is always a decimal point and no minute reinterpretation
// ever applies.
func parseDecimal(s string, kind event.Kind) (Canonical, error) {
	groups := splitGroups(s)
	for _, g := range groups {
		if !numericRegex.MatchString(g) {
			return Canonical{}, fmt.Errorf("%w: non-numeric group in %q", ErrUnparseable, s)
		}
	}

	switch len(groups) {
	case 1:
		v, err := parseGroup(groups[0])
		if err != nil {
			return Canonical{}, err
		}
		if kind == event.KindPoints {
			return Canonical{Display: strconv.Itoa(v), Value: int64(v)}, nil
		}
		return Canonical{Display: strconv.Itoa(v), Value: int64(v) * 100}, nil
	case 2:
		whole, err := parseGroup(groups[0])
		if err != nil {
			return Canonical{}, err
		}
		frac := groups[1]
		if len(frac) > 2 {
			return Canonical{}, fmt.Errorf("%w: fraction %q too precise in %q", ErrUnparseable, frac, s)
		}
		f, err := parseGroup(frac)
		if err != nil {
			return Canonical{}, err
		}
		centis := int64(f)
		if len(frac) == 1 {
			centis *= 10
		}
		display := strconv.Itoa(whole) + "." + frac
		if kind == event.KindPoints {
			// Points are whole numbers; a fractional group would be a
			// source artifact and is rounded away.
			return Canonical{Display: display, Value: int64(whole)}, nil
		}
		return Canonical{Display: display, Value: int64(whole)*100 + centis}, nil
	default:
		return Canonical{}, fmt.Errorf("%w: too many groups in %q", ErrUnparseable, s)
	}
}

// splitFraction separates a trailing fractional group written after a
// period or comma, leaving colon groups intact.
func splitFraction(s string) (body, frac string) {
	idx := strings.LastIndexAny(s, ".,")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}

func splitGroups(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == ','
	})
}

func parseGroup(g string) (int, error) {
	if g == "" || !numericRegex.MatchString(g) {
		return 0, fmt.Errorf("%w: bad numeric group %q", ErrUnparseable, g)
	}
	v, err := strconv.Atoi(g)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrUnparseable, g, err)
	}
	return v, nil
}

// applyFraction converts whole seconds plus a fractional group into
// hundredths, returning the display form of the fraction unchanged so
// manual tenths never masquerade as electronic hundredths.
func applyFraction(seconds int64, frac string) (int64, string, error) {
	switch len(frac) {
	case 0:
		return seconds * 100, "", nil
	case 1:
		v, err := parseGroup(frac)
		if err != nil {
			return 0, "", err
		}
		return seconds*100 + int64(v)*10, frac, nil
	case 2:
		v, err := parseGroup(frac)
		if err != nil {
			return 0, "", err
		}
		return seconds*100 + int64(v), frac, nil
	default:
		return 0, "", fmt.Errorf("%w: fraction %q too precise", ErrUnparseable, frac)
	}
}

// timeDisplay renders groups as "m:ss" or "h:mm:ss", appending the
// fraction exactly as captured.
func timeDisplay(groups []int, frac string) string {
	var b strings.Builder
	for i, g := range groups {
		if i == 0 {
			b.WriteString(strconv.Itoa(g))
			continue
		}
		b.WriteByte(':')
		if g < 10 {
			b.WriteByte('0')
		}
		b.WriteString(strconv.Itoa(g))
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
