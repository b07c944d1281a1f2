package restaurant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/room4-2/lamaison/dialog"
)

const (
	// DefaultSeatsPerSlot is the number of covers per seating
	DefaultSeatsPerSlot = 40

	maxAlternatives = 3

	slotValidDay    = "Please choose a valid day"
	slotClosedDay   = "We are closed that day, please choose another day"
	slotFullyBooked = "We are fully booked that day, please choose another day"
)

// ErrSeatingFull is returned when a booking would take a seating past its covers
var ErrSeatingFull = fmt.Errorf("seating full: %w", dialog.ErrSlotTaken)

// Seatings start every 30 minutes: lunch 12:00-2:00 PM, dinner 7:00-9:00 PM.
var defaultSeatings = []int{
	12 * 60, 12*60 + 30, 13 * 60, 13*60 + 30, 14 * 60,
	19 * 60, 19*60 + 30, 20 * 60, 20*60 + 30, 21 * 60,
}

// Floor answers availability questions from the seating plan and the
// covers already booked in the ledger.
type Floor struct {
	info     Info
	seats    int
	seatings []int
	ledger   Ledger
}

// NewFloor creates a Floor with seatsPerSlot covers at every seating
func NewFloor(info Info, seatsPerSlot int, ledger Ledger) *Floor {
	if seatsPerSlot <= 0 {
		seatsPerSlot = DefaultSeatsPerSlot
	}
	return &Floor{
		info:     info,
		seats:    seatsPerSlot,
		seatings: defaultSeatings,
		ledger:   ledger,
	}
}

// CheckAvailability reports whether a party of guests can sit at the given
// day and time. When it cannot, Alternatives holds either a single "another
// day"/"valid day" hint or the nearest seatings that fit the party. The
// covers of replacing, the booking being modified, are counted as free.
func (f *Floor) CheckAvailability(ctx context.Context, day, at string, guests int, replacing *dialog.Reservation) (dialog.Availability, error) {
	if _, ok := weekday(day); !ok {
		return dialog.Availability{Alternatives: []string{slotValidDay}}, nil
	}
	if f.info.IsClosed(day) {
		return dialog.Availability{Alternatives: []string{slotClosedDay}}, nil
	}

	booked, err := f.ledger.Covers(ctx, day)
	if err != nil {
		return dialog.Availability{}, fmt.Errorf("failed to read covers for %s: %w", day, err)
	}
	if replacing != nil && replacing.Day == day {
		booked[replacing.Time] -= replacing.Guests
	}

	var open []int
	for _, s := range f.seatings {
		if f.seats-booked[FormatClock(s)] >= guests {
			open = append(open, s)
		}
	}
	if len(open) == 0 {
		return dialog.Availability{Alternatives: []string{slotFullyBooked}}, nil
	}

	requested, ok := ParseClock(at)
	if ok {
		for _, s := range open {
			if s == requested {
				return dialog.Availability{Available: true}, nil
			}
		}
	}

	nearest := append([]int(nil), open...)
	if ok {
		sort.SliceStable(nearest, func(i, j int) bool {
			return abs(nearest[i]-requested) < abs(nearest[j]-requested)
		})
	}
	if len(nearest) > maxAlternatives {
		nearest = nearest[:maxAlternatives]
	}
	sort.Ints(nearest)

	alternatives := make([]string, 0, len(nearest))
	for _, s := range nearest {
		alternatives = append(alternatives, FormatClock(s))
	}
	return dialog.Availability{Alternatives: alternatives}, nil
}

// Book adds a confirmed reservation's covers to the ledger, failing with
// ErrSeatingFull when the seating cannot take the party. A non-nil replaces
// is released first and put back if r does not fit.
func (f *Floor) Book(ctx context.Context, r dialog.Reservation, replaces *dialog.Reservation) error {
	if replaces != nil {
		if err := f.Release(ctx, *replaces); err != nil {
			return fmt.Errorf("failed to release %s %s: %w", replaces.Day, replaces.Time, err)
		}
	}

	err := f.ledger.Add(ctx, r.Day, r.Time, r.Guests, f.seats)
	if err != nil && replaces != nil {
		if restoreErr := f.ledger.Add(ctx, replaces.Day, replaces.Time, replaces.Guests, 0); restoreErr != nil {
			return errors.Join(err, fmt.Errorf("failed to restore %s %s: %w", replaces.Day, replaces.Time, restoreErr))
		}
	}
	return err
}

// Release removes a reservation's covers from the ledger
func (f *Floor) Release(ctx context.Context, r dialog.Reservation) error {
	return f.ledger.Release(ctx, r.Day, r.Time, r.Guests)
}

// ParseClock converts an "H:MM AM|PM" label to minutes after midnight
func ParseClock(label string) (int, bool) {
	clock, meridiem, found := strings.Cut(strings.TrimSpace(label), " ")
	if !found {
		return 0, false
	}
	h, m, found := strings.Cut(clock, ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 1 || hour > 12 {
		return 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}

	switch strings.ToUpper(meridiem) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, false
	}
	return hour*60 + minute, true
}

// FormatClock renders minutes after midnight as "H:MM AM|PM"
func FormatClock(minutes int) string {
	hour, minute := minutes/60, minutes%60
	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, meridiem)
}

func weekday(day string) (time.Weekday, bool) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if wd.String() == day {
			return wd, true
		}
	}
	return 0, false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
