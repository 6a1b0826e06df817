package dialog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-dining-concierge/internal/domain"
)

// Validation messages shown to the user when a slot is rejected.
const (
	MsgInvalidCuisine     = "We only support Italian, Chinese, Mexican, Indian, American, or Japanese cuisines."
	MsgInvalidDiningTime  = "The dining time format is invalid. Please use HH:MM (24-hour) or H:MM AM/PM format."
	MsgPartySizeNotNumber = "The number of people should be a valid integer."
	MsgPartySizeTooSmall  = "The number of people should be a positive integer. Please provide a valid number."
	MsgPartySizeTooLarge  = "We do not support bookings for more than 20 people. Please enter a smaller number."
)

// Accepted dining time shapes. time.Parse alone is too lenient ("15:04"
// accepts a one-digit hour), so the shape is checked first.
var (
	time24Re = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	time12Re = regexp.MustCompile(`(?i)^(0?[1-9]|1[0-2]):[0-5]\d (AM|PM)$`)
)

// SlotValues are the normalized slot values of one turn; nil means unset.
type SlotValues struct {
	Location       *string
	Cuisine        *string
	DiningTime     *string
	NumberOfPeople *string
	Email          *string
}

// SlotValuesFrom normalizes wire slots.
func SlotValuesFrom(s Slots) SlotValues {
	return SlotValues{
		Location:       s[string(domain.SlotLocation)].Ptr(),
		Cuisine:        s[string(domain.SlotCuisine)].Ptr(),
		DiningTime:     s[string(domain.SlotDiningTime)].Ptr(),
		NumberOfPeople: s[string(domain.SlotNumberOfPeople)].Ptr(),
		Email:          s[string(domain.SlotEmail)].Ptr(),
	}
}

// Get returns the value of the named slot.
func (v SlotValues) Get(slot domain.Slot) *string {
	switch slot {
	case domain.SlotLocation:
		return v.Location
	case domain.SlotCuisine:
		return v.Cuisine
	case domain.SlotDiningTime:
		return v.DiningTime
	case domain.SlotNumberOfPeople:
		return v.NumberOfPeople
	case domain.SlotEmail:
		return v.Email
	}
	return nil
}

// FirstMissing returns the first unset slot in elicitation order.
func (v SlotValues) FirstMissing() (domain.Slot, bool) {
	for _, slot := range domain.SlotOrder {
		if present(v.Get(slot)) {
			continue
		}
		return slot, true
	}
	return "", false
}

// ValidationResult is the outcome of Validate. ViolatedSlot and Message are
// set only when IsValid is false.
type ValidationResult struct {
	IsValid      bool
	ViolatedSlot *domain.Slot
	Message      *string
}

// Validate checks the non-empty slots in the fixed order Location, Cuisine,
// DiningTime, NumberOfPeople and returns the first failure. Empty slots are
// not a validation failure. Email is accepted as-is.
func Validate(in SlotValues) ValidationResult {
	if present(in.Location) {
		if _, ok := domain.CanonicalLocation(*in.Location); !ok {
			return invalid(domain.SlotLocation, LocationMessage(*in.Location))
		}
	}
	if present(in.Cuisine) {
		if _, ok := domain.CanonicalCuisine(*in.Cuisine); !ok {
			return invalid(domain.SlotCuisine, MsgInvalidCuisine)
		}
	}
	if present(in.DiningTime) && !ValidDiningTime(*in.DiningTime) {
		return invalid(domain.SlotDiningTime, MsgInvalidDiningTime)
	}
	if present(in.NumberOfPeople) {
		if _, msg := ParsePartySize(*in.NumberOfPeople); msg != "" {
			return invalid(domain.SlotNumberOfPeople, msg)
		}
	}
	return ValidationResult{IsValid: true}
}

// LocationMessage is the rejection message for an unsupported location.
func LocationMessage(value string) string {
	return fmt.Sprintf("We do not support %s. Please choose from: %s.", value, domain.DisplayChoices(domain.Locations))
}

// ValidDiningTime reports whether s is HH:MM (24-hour) or H:MM AM/PM.
func ValidDiningTime(s string) bool {
	s = strings.TrimSpace(s)
	if time24Re.MatchString(s) {
		_, err := time.Parse("15:04", s)
		return err == nil
	}
	if time12Re.MatchString(s) {
		_, err := time.Parse("3:04 PM", strings.ToUpper(s))
		return err == nil
	}
	return false
}

// ParsePartySize parses a party size. On failure the returned message
// explains why; it is empty on success.
func ParsePartySize(s string) (int, string) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	switch {
	case err != nil:
		return 0, MsgPartySizeNotNumber
	case n < domain.MinPartySize:
		return n, MsgPartySizeTooSmall
	case n > domain.MaxPartySize:
		return n, MsgPartySizeTooLarge
	}
	return n, ""
}

func present(p *string) bool { return p != nil && strings.TrimSpace(*p) != "" }

func invalid(slot domain.Slot, msg string) ValidationResult {
	return ValidationResult{ViolatedSlot: &slot, Message: &msg}
}
