package dialog

import (
	"context"
	"errors"

	"github.com/room4-2/lamaison/intent"
)

// State is the conversation's control state
type State string

const (
	Idle          State = "idle"
	AskDate       State = "ask_date"
	AskTime       State = "ask_time"
	AskGuests     State = "ask_guests"
	AskName       State = "ask_name"
	AskPhone      State = "ask_phone"
	Confirm       State = "confirm"
	ModifyAsk     State = "modify_ask"
	CancelConfirm State = "cancel_confirm"
)

// Reservation holds the booking fields. Zero values mean "not collected yet".
// Fields are filled in order: Day/Date, Time, Guests, Name, Phone.
type Reservation struct {
	Day    string `json:"day,omitempty"`
	Date   string `json:"date,omitempty"`
	Time   string `json:"time,omitempty"`
	Guests int    `json:"guests,omitempty"`
	Name   string `json:"name,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

// IsZero reports whether no field has been collected
func (r Reservation) IsZero() bool {
	return r == Reservation{}
}

// Context is everything the engine remembers about one conversation
type Context struct {
	State     State        `json:"state"`
	Draft     Reservation  `json:"draft"`
	Confirmed *Reservation `json:"confirmed,omitempty"`
}

// ErrSlotTaken is returned by a booking hook when the seating filled up
// between the availability check and the guest's confirmation
var ErrSlotTaken = errors.New("seating no longer available")

// Availability is the oracle's verdict for a requested seating
type Availability struct {
	Available    bool     `json:"available"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// AvailabilityOracle decides whether a party can be seated. replacing is the
// confirmed booking the new one would supersede, or nil; its covers must not
// count against the request.
type AvailabilityOracle interface {
	CheckAvailability(ctx context.Context, day, time string, guests int, replacing *Reservation) (Availability, error)
}

// MenuCatalog renders menu text
type MenuCatalog interface {
	Summary(ctx context.Context) (string, error)
	ByCategory(ctx context.Context, category intent.Category) (string, error)
}
