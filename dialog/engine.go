// Package dialog runs the reservation assistant's turn-based state machine.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/room4-2/lamaison/intent"
	"github.com/room4-2/lamaison/slots"
)

const minNameLength = 2

var (
	confirmYesPattern = regexp.MustCompile(`\b(yes|yeah|yep|sure|confirm|proceed|ok|okay)\b`)
	confirmNoPattern  = regexp.MustCompile(`\b(no|nope|cancel|nah)\b`)
	cancelYesPattern  = regexp.MustCompile(`\b(yes|yeah|confirm|sure)\b`)

	helloPattern    = regexp.MustCompile(`\b(hi|hello|hey|good morning|good evening|good afternoon)\b`)
	thanksPattern   = regexp.MustCompile(`\b(thank|thanks|thx)\b`)
	farewellPattern = regexp.MustCompile(`\b(bye|goodbye|see you)\b`)
)

var errNoAlternatives = errors.New("unavailable verdict without alternatives")

// Options configures an Engine. Zero values fall back to sensible defaults.
type Options struct {
	RestaurantName string
	HoursText      string
	Now            func() time.Time
	Logger         *zap.Logger
}

// Engine drives one conversation. It is not safe for concurrent use: the
// caller must finish one ProcessMessage before starting the next.
type Engine struct {
	name         string
	hours        string
	now          func() time.Time
	logger       *zap.Logger
	availability AvailabilityOracle
	menu         MenuCatalog

	dc Context

	// OnConfirm commits a booking before the engine records it. replaces is
	// the confirmed booking being superseded, or nil. An error wrapping
	// ErrSlotTaken sends the guest back to pick another time; any other
	// error keeps the draft so the guest can confirm again.
	OnConfirm func(ctx context.Context, r Reservation, replaces *Reservation) error
	// OnCancel fires after a confirmed booking is cancelled
	OnCancel func(ctx context.Context, r Reservation)
}

// NewEngine creates an idle engine backed by the given collaborators
func NewEngine(availability AvailabilityOracle, menu MenuCatalog, opts Options) *Engine {
	if opts.RestaurantName == "" {
		opts.RestaurantName = "La Maison"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.HoursText == "" {
		opts.HoursText = "We are open every day:\n- **Lunch:** 12:00 PM - 3:00 PM\n- **Dinner:** 7:00 PM - 10:00 PM\n\nWould you like to make a reservation?"
	}

	return &Engine{
		name:         opts.RestaurantName,
		hours:        opts.HoursText,
		now:          opts.Now,
		logger:       opts.Logger,
		availability: availability,
		menu:         menu,
		dc:           Context{State: Idle},
	}
}

// Greeting returns the opening line of a conversation
func (e *Engine) Greeting() string {
	return greetingReply(e.name)
}

// State returns the current control state
func (e *Engine) State() State {
	return e.dc.State
}

// Context returns a copy of the conversation memory
func (e *Engine) Context() Context {
	dc := e.dc
	if dc.Confirmed != nil {
		r := *dc.Confirmed
		dc.Confirmed = &r
	}
	return dc
}

// Reset forgets the draft and any confirmed booking
func (e *Engine) Reset() {
	e.dc = Context{State: Idle}
}

// ProcessMessage handles one user turn and returns the assistant's reply
func (e *Engine) ProcessMessage(ctx context.Context, text string) string {
	input := strings.TrimSpace(text)
	from := e.dc.State

	reply := e.step(ctx, input)

	if from != e.dc.State {
		e.logger.Debug("🔀 Dialog transition",
			zap.String("from", string(from)),
			zap.String("to", string(e.dc.State)))
	}
	return reply
}

func (e *Engine) step(ctx context.Context, input string) string {
	switch e.dc.State {
	case AskDate, ModifyAsk:
		return e.askDate(input)
	case AskTime:
		return e.askTime(input)
	case AskGuests:
		return e.askGuests(ctx, input)
	case AskName:
		return e.askName(input)
	case AskPhone:
		return e.askPhone(input)
	case Confirm:
		return e.confirm(ctx, input)
	case CancelConfirm:
		return e.cancelConfirm(ctx, input)
	default:
		e.dc.State = Idle
		return e.route(ctx, input)
	}
}

func (e *Engine) askDate(input string) string {
	day, ok := slots.ParseDay(input, e.now())
	if !ok {
		return replyDayReprompt
	}
	e.dc.Draft.Day = day.Name
	e.dc.Draft.Date = day.Label
	e.dc.State = AskTime
	return askTimeReply(day.Label)
}

func (e *Engine) askTime(input string) string {
	at, ok := slots.ParseTime(input)
	if !ok {
		return replyTimeReprompt
	}
	e.dc.Draft.Time = at
	e.dc.State = AskGuests
	return askGuestsReply(at)
}

func (e *Engine) askGuests(ctx context.Context, input string) string {
	guests, ok := slots.ParseGuests(input)
	if !ok {
		return replyGuestsReprompt
	}

	var result Availability
	err := e.guard("availability", func() error {
		var err error
		result, err = e.availability.CheckAvailability(ctx, e.dc.Draft.Day, e.dc.Draft.Time, guests, e.dc.Confirmed)
		return err
	})
	if err == nil && !result.Available && len(result.Alternatives) == 0 {
		err = errNoAlternatives
	}
	if err != nil {
		e.logger.Warn("⚠️ Availability check failed",
			zap.String("day", e.dc.Draft.Day),
			zap.String("time", e.dc.Draft.Time),
			zap.Int("guests", guests),
			zap.Error(err))
		return replyTryAgain
	}

	e.dc.Draft.Guests = guests

	if result.Available {
		e.dc.State = AskName
		return availableReply(e.dc.Draft)
	}

	first := result.Alternatives[0]
	if strings.Contains(first, "another day") || strings.Contains(first, "valid day") {
		e.dc.State = AskDate
		return noDayReply(e.dc.Draft)
	}

	e.dc.State = AskTime
	return alternativesReply(e.dc.Draft, result.Alternatives)
}

func (e *Engine) askName(input string) string {
	if len([]rune(input)) < minNameLength {
		return replyNameReprompt
	}
	e.dc.Draft.Name = input
	e.dc.State = AskPhone
	return askPhoneReply(input)
}

func (e *Engine) askPhone(input string) string {
	phone, ok := slots.ParsePhone(input)
	if !ok {
		return replyPhoneReprompt
	}
	e.dc.Draft.Phone = phone
	e.dc.State = Confirm
	return summaryReply(e.dc.Draft)
}

func (e *Engine) confirm(ctx context.Context, input string) string {
	lower := strings.ToLower(input)

	switch {
	case confirmYesPattern.MatchString(lower):
		booked := e.dc.Draft
		if err := e.commit(ctx, booked); err != nil {
			e.logger.Warn("⚠️ Booking not recorded",
				zap.String("day", booked.Day),
				zap.String("time", booked.Time),
				zap.Int("guests", booked.Guests),
				zap.Error(err))
			if errors.Is(err, ErrSlotTaken) {
				e.dc.Draft.Time = ""
				e.dc.State = AskTime
				return slotTakenReply(booked)
			}
			return replyTryAgain
		}

		e.dc.Confirmed = &booked
		e.dc.Draft = Reservation{}
		e.dc.State = Idle
		return confirmedReply(e.name, booked)

	case confirmNoPattern.MatchString(lower):
		e.dc.Draft = Reservation{}
		e.dc.State = Idle
		return replyDiscarded
	}

	return replyConfirmReprompt
}

func (e *Engine) cancelConfirm(ctx context.Context, input string) string {
	e.dc.State = Idle

	if !cancelYesPattern.MatchString(strings.ToLower(input)) || e.dc.Confirmed == nil {
		return replyCancelAborted
	}

	cancelled := *e.dc.Confirmed
	e.dc.Confirmed = nil
	e.fire(ctx, "cancel", e.OnCancel, cancelled)
	return replyCancelled
}

func (e *Engine) route(ctx context.Context, input string) string {
	switch intent.Detect(input) {
	case intent.Reserve:
		e.dc.Draft = Reservation{}
		e.dc.State = AskDate
		return replyAskDay

	case intent.Menu:
		return e.menuReply(ctx, intent.DetectCategory(input))

	case intent.Cancel:
		if e.dc.Confirmed == nil {
			return replyNothingToCancel
		}
		e.dc.State = CancelConfirm
		return cancelAskReply(*e.dc.Confirmed)

	case intent.Modify:
		if e.dc.Confirmed == nil {
			return replyNothingToModify
		}
		e.dc.Draft = *e.dc.Confirmed
		e.dc.State = AskDate
		return replyModifyAskDay

	case intent.Hours:
		return e.hours
	}

	lower := strings.ToLower(input)
	switch {
	case helloPattern.MatchString(lower):
		return helloReply(e.name)
	case thanksPattern.MatchString(lower):
		return replyThanks
	case farewellPattern.MatchString(lower):
		return farewellReply(e.name)
	}
	return replyCapabilities
}

func (e *Engine) menuReply(ctx context.Context, category intent.Category) string {
	var text string
	err := e.guard("menu", func() error {
		var err error
		if category == intent.AllCategory {
			text, err = e.menu.Summary(ctx)
		} else {
			text, err = e.menu.ByCategory(ctx, category)
		}
		return err
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty menu text")
	}
	if err != nil {
		e.logger.Warn("⚠️ Menu lookup failed", zap.String("category", string(category)), zap.Error(err))
		return replyTryAgain
	}
	return text
}

// guard runs a collaborator call, turning a panic into an error
func (e *Engine) guard(name string, call func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s collaborator panicked: %v", name, r)
		}
	}()
	return call()
}

// commit runs OnConfirm for r, superseding any confirmed booking
func (e *Engine) commit(ctx context.Context, r Reservation) error {
	if e.OnConfirm == nil {
		return nil
	}
	var replaces *Reservation
	if e.dc.Confirmed != nil {
		previous := *e.dc.Confirmed
		replaces = &previous
	}
	return e.guard("confirm hook", func() error {
		return e.OnConfirm(ctx, r, replaces)
	})
}

func (e *Engine) fire(ctx context.Context, name string, hook func(context.Context, Reservation), r Reservation) {
	if hook == nil {
		return
	}
	err := e.guard(name+" hook", func() error {
		hook(ctx, r)
		return nil
	})
	if err != nil {
		e.logger.Warn("⚠️ Reservation hook failed", zap.String("hook", name), zap.Error(err))
	}
}
