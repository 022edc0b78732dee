// Package coordtext parses free-form RA/Dec text into canonical
// "HH:MM:SS DD:MM:SS" form and into decimal degrees.
//
// Accepted inputs:
//
//	19:53:55 18:47:00        colon sexagesimal
//	19 53 55 18 47 00        space separated (5 fields pads dec seconds)
//	19:53:55/18:47:00        slash separated
//	195355 184700            compact, optional leading sign
//	19.8986 18.7833          decimal hours and degrees
//	d 298.479 18.7833        decimal, RA already in degrees
package coordtext

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/soniakeys/unit"

	"github.com/litescript/ls-skyplan/internal/astro"
)

// ErrCoordinateSyntax is wrapped by every parse failure.
var ErrCoordinateSyntax = errors.New("coordinate syntax")

// SyntaxError reports unparseable coordinate text.
type SyntaxError struct {
	Input  string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid coordinates %q: %s", e.Input, e.Reason)
}

func (e *SyntaxError) Unwrap() error { return ErrCoordinateSyntax }

// minCompactDigits is the shortest digit run treated as HHMM[SS] rather
// than a decimal number.
const minCompactDigits = 4

// Canonicalize rewrites input as "HH:MM:SS DD:MM:SS" with every field
// zero-padded to two integer digits and two decimals when fractional.
// Canonicalize is idempotent.
func Canonicalize(input string) (string, error) {
	canon, _, err := canonicalize(input)
	return canon, err
}

// Parse converts coordinate text to decimal degrees. RA is normalized to
// [0, 360).
func Parse(input string) (astro.Equatorial, error) {
	_, eq, err := canonicalize(input)
	return eq, err
}

// IsCoordinateText reports whether text looks like coordinates rather than
// an object name.
func IsCoordinateText(text string) bool {
	s := strings.TrimSpace(text)
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || strings.HasPrefix(s, "d ")
}

func canonicalize(input string) (string, astro.Equatorial, error) {
	fail := func(reason string) (string, astro.Equatorial, error) {
		return "", astro.Equatorial{}, &SyntaxError{Input: input, Reason: reason}
	}

	s := collapseSpaces(input)
	if s == "" {
		return fail("empty input")
	}

	degrees := false
	if s[0] == 'd' {
		degrees = true
		s = collapseSpaces(s[1:])
	}

	if parts := strings.Split(s, "/"); len(parts) == 2 {
		s = collapseSpaces(parts[0] + " " + parts[1])
	}

	tokens := strings.Split(s, " ")
	var raText, decText string
	switch len(tokens) {
	case 2:
		var err error
		if raText, err = expandToken(tokens[0], degrees); err != nil {
			return fail(err.Error())
		}
		if decText, err = expandToken(tokens[1], false); err != nil {
			return fail(err.Error())
		}
	case 6:
		raText = strings.Join(tokens[0:3], ":")
		decText = strings.Join(tokens[3:6], ":")
	case 5:
		// Dec seconds missing.
		raText = strings.Join(tokens[0:3], ":")
		decText = strings.Join(tokens[3:5], ":") + ":0"
	default:
		return fail(fmt.Sprintf("expected 2, 5 or 6 fields, got %d", len(tokens)))
	}

	ra, err := normalizeGroup(raText)
	if err != nil {
		return fail("ra: " + err.Error())
	}
	dec, err := normalizeGroup(decText)
	if err != nil {
		return fail("dec: " + err.Error())
	}

	raHours, err := groupValue(ra)
	if err != nil {
		return fail("ra: " + err.Error())
	}
	decDeg, err := groupValue(dec)
	if err != nil {
		return fail("dec: " + err.Error())
	}
	if math.Abs(decDeg) > 90 {
		return fail(fmt.Sprintf("declination %.4f out of range", decDeg))
	}

	eq := astro.Equatorial{
		RADeg:  unit.RAFromHour(raHours).Deg(),
		DecDeg: decDeg,
	}
	return ra + " " + dec, eq, nil
}

// expandToken turns a single RA or Dec token into colon form. Tokens that
// already contain colons pass through.
func expandToken(tok string, degreesToHours bool) (string, error) {
	if strings.Contains(tok, ":") {
		return tok, nil
	}
	if isCompact(tok) {
		return splitCompact(tok), nil
	}
	return decimalToSexagesimal(tok, degreesToHours)
}

func isCompact(tok string) bool {
	digits := strings.TrimLeft(tok, "+-")
	if len(tok)-len(digits) > 1 || len(digits) < minCompactDigits {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// splitCompact splits [-]HHMM[SS...] into [-]HH:MM:SS.
func splitCompact(tok string) string {
	sign := ""
	if tok[0] == '-' || tok[0] == '+' {
		sign, tok = tok[:1], tok[1:]
	}
	sec := tok[4:]
	if sec == "" {
		sec = "00"
	}
	return sign + tok[0:2] + ":" + tok[2:4] + ":" + sec
}

func decimalToSexagesimal(tok string, degreesToHours bool) (string, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("%q is not a number", tok)
	}
	if degreesToHours {
		v = unit.RAFromDeg(v).Hour()
	}

	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	h := math.Floor(v)
	rem := (v - h) * 60
	m := math.Floor(rem)
	s := math.Round((rem-m)*60*100) / 100
	if s >= 60 {
		s -= 60
		m++
	}
	if m >= 60 {
		m -= 60
		h++
	}
	return fmt.Sprintf("%s%02d:%02d:%05.2f", sign, int(h), int(m), s), nil
}

// normalizeGroup pads a colon separated group to exactly three fields with
// fixed widths.
func normalizeGroup(g string) (string, error) {
	fields := strings.Split(g, ":")
	switch len(fields) {
	case 1:
		fields = append(fields, "00", "00")
	case 2:
		mins, secs, err := splitFractionalMinutes(fields[1])
		if err != nil {
			return "", err
		}
		fields = []string{fields[0], mins, secs}
	case 3:
	default:
		return "", fmt.Errorf("too many fields in %q", g)
	}

	for i, f := range fields {
		fixed, err := fixField(f, i == 0)
		if err != nil {
			return "", err
		}
		fields[i] = fixed
	}
	return strings.Join(fields, ":"), nil
}

// splitFractionalMinutes converts "MM.fff" into whole minutes and seconds.
func splitFractionalMinutes(f string) (string, string, error) {
	if !strings.Contains(f, ".") {
		return f, "00", nil
	}
	v, err := strconv.ParseFloat(f, 64)
	if err != nil || v < 0 {
		return "", "", fmt.Errorf("%q is not a valid minutes value", f)
	}
	whole := math.Floor(v)
	secs := math.Round((v-whole)*60*100) / 100
	if secs >= 60 {
		secs -= 60
		whole++
	}
	return strconv.Itoa(int(whole)), strconv.FormatFloat(secs, 'f', 2, 64), nil
}

// fixField zero-pads the integer part to two digits and truncates or pads
// decimals to two. A sign is only allowed on the leading field.
func fixField(f string, leading bool) (string, error) {
	sign := ""
	switch {
	case strings.HasPrefix(f, "-"):
		sign, f = "-", f[1:]
	case strings.HasPrefix(f, "+"):
		f = f[1:]
	}
	if sign != "" && !leading {
		return "", fmt.Errorf("unexpected sign in %q", f)
	}

	intPart, frac, hasFrac := strings.Cut(f, ".")
	if intPart == "" && !hasFrac {
		return "", errors.New("empty field")
	}
	if !allDigits(intPart) || !allDigits(frac) {
		return "", fmt.Errorf("%q is not a number", f)
	}

	if len(intPart) < 2 {
		intPart = strings.Repeat("0", 2-len(intPart)) + intPart
	}
	if !hasFrac {
		return sign + intPart, nil
	}
	return sign + intPart + "." + (frac + "00")[:2], nil
}

// groupValue evaluates a normalized "[-]DD:MM:SS.ss" group. The sign is
// taken from the text so "-00:30:00" stays negative.
func groupValue(g string) (float64, error) {
	fields := strings.Split(g, ":")
	neg := strings.HasPrefix(fields[0], "-")

	var vals [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimPrefix(f, "-"), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", f)
		}
		vals[i] = v
	}
	if vals[1] >= 60 || vals[2] >= 60 {
		return 0, fmt.Errorf("minutes or seconds out of range in %q", g)
	}

	v := vals[0] + vals[1]/60 + vals[2]/3600
	if neg {
		v = -v
	}
	return v, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
