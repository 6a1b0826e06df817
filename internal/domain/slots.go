package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IntentDiningSuggestions is the only intent the dialog fulfils.
const IntentDiningSuggestions = "DiningSuggestionsIntent"

// Slot names a single field collected by the dialog.
type Slot string

const (
	SlotLocation       Slot = "Location"
	SlotCuisine        Slot = "Cuisine"
	SlotDiningTime     Slot = "DiningTime"
	SlotNumberOfPeople Slot = "NumberOfPeople"
	SlotEmail          Slot = "Email"
)

// SlotOrder is the fixed priority in which missing slots are elicited.
var SlotOrder = []Slot{SlotLocation, SlotCuisine, SlotDiningTime, SlotNumberOfPeople, SlotEmail}

// Supported values, lower-case. Matching is case-insensitive.
var (
	Locations = []string{"new york", "seattle", "san francisco", "chicago", "boston", "miami"}
	Cuisines  = []string{"italian", "chinese", "mexican", "indian", "american", "japanese"}
)

// Party size bounds, inclusive.
const (
	MinPartySize = 1
	MaxPartySize = 20
)

// CanonicalLocation returns the lower-case enumeration value matching s.
func CanonicalLocation(s string) (string, bool) { return lookup(Locations, s) }

// CanonicalCuisine returns the lower-case enumeration value matching s.
func CanonicalCuisine(s string) (string, bool) { return lookup(Cuisines, s) }

func lookup(values []string, s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range values {
		if v == s {
			return v, true
		}
	}
	return "", false
}

// DisplayChoices renders an enumeration for users, e.g.
// "Italian, Chinese, or Japanese".
func DisplayChoices(values []string) string {
	title := cases.Title(language.English)
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = title.String(v)
	}
	switch len(out) {
	case 0:
		return ""
	case 1:
		return out[0]
	}
	return strings.Join(out[:len(out)-1], ", ") + ", or " + out[len(out)-1]
}
