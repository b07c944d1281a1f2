package restaurant

import (
	"fmt"
	"strings"
)

// DefaultName is used when no restaurant name is configured
const DefaultName = "La Maison"

// Info holds the static facts the assistant can quote
type Info struct {
	Name       string
	ClosedDays []string
}

// NewInfo returns Info for the named restaurant, closed on the given weekdays
func NewInfo(name string, closedDays []string) Info {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	return Info{Name: name, ClosedDays: normalizeDays(closedDays)}
}

// Hours returns the opening hours text
func (i Info) Hours() string {
	opening := "We are open every day"
	if len(i.ClosedDays) > 0 {
		opening = fmt.Sprintf("We are open every day except %s", strings.Join(i.ClosedDays, ", "))
	}
	return opening + ":\n" +
		"- **Lunch:** 12:00 PM - 3:00 PM\n" +
		"- **Dinner:** 7:00 PM - 10:00 PM\n\n" +
		"Would you like to make a reservation?"
}

// IsClosed reports whether the restaurant is closed on the weekday
func (i Info) IsClosed(day string) bool {
	for _, d := range i.ClosedDays {
		if strings.EqualFold(d, day) {
			return true
		}
	}
	return false
}

func normalizeDays(days []string) []string {
	var out []string
	for _, d := range days {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		out = append(out, strings.ToUpper(d[:1])+strings.ToLower(d[1:]))
	}
	return out
}
