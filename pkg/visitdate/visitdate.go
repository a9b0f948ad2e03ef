// Package visitdate handles the two date spellings accepted for visit
// records: ISO (2006-01-02) and US-style (01-02-2006), with or without
// leading zeros on month and day. Stored values are canonicalised to
// zero-padded ISO; display always uses MM-DD-YYYY.
package visitdate

import (
	"strings"
	"time"
)

const (
	ISOLayout     = "2006-01-02"
	DisplayLayout = "01-02-2006"
)

// Parse layouts take one or two digit months and days.
var layouts = []string{"2006-1-2", "1-2-2006"}

// Parse tries each accepted layout in turn.
func Parse(s string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize returns the ISO form of s when it parses. Unrecognised input is
// returned trimmed but otherwise unchanged.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if t, ok := Parse(s); ok {
		return t.Format(ISOLayout)
	}
	return s
}

// Display renders s as MM-DD-YYYY. Values in neither accepted layout pass
// through untouched.
func Display(s string) string {
	if t, ok := Parse(s); ok {
		return t.Format(DisplayLayout)
	}
	return s
}

// DisplayOptional is Display for values that may be absent.
func DisplayOptional(s *string) *string {
	if s == nil {
		return nil
	}
	out := Display(*s)
	return &out
}
