// Package slots extracts reservation fields from free-text user input.
//
// Every parser is total: a missing or invalid value is reported through the
// boolean result, never through an error or a panic.
package slots

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Weekdays in lookup order. ParseDay returns the first one contained in the
// input, which is not necessarily the first one the user typed.
var weekdays = []time.Weekday{
	time.Sunday,
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
}

const (
	LabelToday    = "Today"
	LabelTomorrow = "Tomorrow"

	MinGuests = 1
	MaxGuests = 20

	minPhoneLength = 7
)

var (
	timePattern   = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(?i:(am|pm))?`)
	digitsPattern = regexp.MustCompile(`\d+`)
	phonePattern  = regexp.MustCompile(`[\d\s\-+()]{7,}`)
)

// Day is a resolved day phrase. Label is what the user will see echoed
// back: the weekday itself, or "Today"/"Tomorrow".
type Day struct {
	Name  string
	Label string
}

// ParseDay finds a weekday name, "today" or "tomorrow" in input.
// now anchors today/tomorrow resolution.
func ParseDay(input string, now time.Time) (Day, bool) {
	lower := strings.ToLower(strings.TrimSpace(input))

	for _, wd := range weekdays {
		name := wd.String()
		if strings.Contains(lower, strings.ToLower(name)) {
			return Day{Name: name, Label: name}, true
		}
	}

	if strings.Contains(lower, "today") {
		return Day{Name: now.Weekday().String(), Label: LabelToday}, true
	}
	if strings.Contains(lower, "tomorrow") {
		return Day{Name: now.AddDate(0, 0, 1).Weekday().String(), Label: LabelTomorrow}, true
	}

	return Day{}, false
}

// ParseTime reads the first "H[:MM][am|pm]" token and formats it as
// "H:MM AM|PM". Without a meridiem, hours below 6 are taken as PM.
func ParseTime(input string) (string, bool) {
	m := timePattern.FindStringSubmatch(input)
	if m == nil {
		return "", false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return "", false
	}

	minutes := "00"
	if m[2] != "" {
		mins, err := strconv.Atoi(m[2])
		if err != nil || mins > 59 {
			return "", false
		}
		minutes = m[2]
	}

	meridiem := strings.ToUpper(m[3])
	switch {
	case meridiem == "PM" && hour < 12:
		hour += 12
	case meridiem == "AM" && hour == 12:
		hour = 0
	case meridiem == "" && hour < 6:
		hour += 12
	}

	display := hour
	if display > 12 {
		display -= 12
	} else if display == 0 {
		display = 12
	}

	if meridiem == "" {
		meridiem = "AM"
		if hour >= 12 {
			meridiem = "PM"
		}
	}

	return strconv.Itoa(display) + ":" + minutes + " " + meridiem, true
}

// ParseGuests returns the first number in input when it is a valid party size.
func ParseGuests(input string) (int, bool) {
	digits := digitsPattern.FindString(input)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < MinGuests || n > MaxGuests {
		return 0, false
	}
	return n, true
}

// ParsePhone returns the first run of at least seven phone characters
// (digits, spaces, "-", "+", "(", ")"), trimmed.
func ParsePhone(input string) (string, bool) {
	for _, match := range phonePattern.FindAllString(input, -1) {
		// a run of blanks qualifies for the pattern but is not a number
		if !strings.ContainsAny(match, "0123456789") {
			continue
		}
		return strings.TrimSpace(match), true
	}
	return "", false
}
