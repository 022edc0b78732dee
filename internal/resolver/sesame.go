package resolver

import (
	"strings"
)

const (
	// scanWindow bounds how far past a marker coordinates are searched for.
	scanWindow = 100

	// minCoordinateRun is the shortest coordinate run accepted from a
	// "J2000" line.
	minCoordinateRun = 12
)

// parseSesame extracts the J2000 coordinate pair from a name resolver
// response. Two shapes are understood: an XML fragment carrying
// <jpos>...</jpos>, and plain text where "J2000" is followed by a colon and a
// sexagesimal run.
func parseSesame(body string) (string, bool) {
	if coords, ok := parseJPos(body); ok {
		return coords, true
	}
	return parseJ2000Line(body)
}

func parseJPos(body string) (string, bool) {
	const openTag, closeTag = "<jpos>", "</jpos>"

	start := strings.Index(body, openTag)
	if start < 0 {
		return "", false
	}
	rest := body[start+len(openTag):]
	end := strings.Index(window(rest), closeTag)
	if end < 0 {
		return "", false
	}
	coords := strings.TrimSpace(rest[:end])
	return coords, coords != ""
}

func parseJ2000Line(body string) (string, bool) {
	i := strings.Index(body, "J2000")
	if i < 0 {
		return "", false
	}
	rest := body[i+len("J2000"):]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return "", false
	}
	text := strings.Join(strings.Fields(window(rest[colon+1:])), " ")

	n := 0
	for n < len(text) && isCoordinateChar(text[n]) {
		n++
	}
	run := strings.TrimSpace(text[:n])
	if len(run) < minCoordinateRun {
		return "", false
	}
	return run, true
}

func window(s string) string {
	if len(s) > scanWindow {
		return s[:scanWindow]
	}
	return s
}

func isCoordinateChar(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == ' '
}
