package dialog

import (
	"fmt"
	"strings"
)

const (
	replyAskDay          = "I'd be happy to help with a reservation. Which day would you like to dine with us?"
	replyDayReprompt     = "I didn't catch the day. Could you please specify a day like Monday, Friday, or say 'today' or 'tomorrow'?"
	replyTimeReprompt    = "Could you please provide a time? For example, '7 PM' or '8:30 PM'."
	replyGuestsReprompt  = "Please let me know the number of guests (1-20)."
	replyNameReprompt    = "Could you please share your name for the reservation?"
	replyPhoneReprompt   = "Please provide a valid phone number."
	replyConfirmReprompt = "Please confirm with 'Yes' to proceed or 'No' to cancel."
	replyDiscarded       = "No problem, the reservation has been discarded. Feel free to start over whenever you're ready."
	replyCancelled       = "Your reservation has been cancelled. If you'd like to rebook or need anything else, I'm here to help."
	replyCancelAborted   = "The cancellation has been aborted. Your reservation remains intact. Anything else I can assist with?"
	replyNothingToCancel = "I don't have any active reservation to cancel. Would you like to make a new one?"
	replyNothingToModify = "I don't have an active reservation to modify. Would you like to make a new booking?"
	replyModifyAskDay    = "Sure, let's update your reservation. Which day would you like to change it to?"
	replyThanks          = "You're welcome! It was a pleasure assisting you. Have a wonderful day!"
	replyTryAgain        = "Sorry, I couldn't check that just now. Could you please try again in a moment?"
	replyCapabilities    = "I can help you with:\n- **Table reservations** (book, modify, or cancel)\n- **Menu information** (dishes, categories, dietary options)\n- **Availability** (check open slots)\n\nWhat would you like to do?"
)

func greetingReply(name string) string {
	return fmt.Sprintf("Welcome to %s! I'm here to help you with table reservations, menu inquiries, or anything else you need. How may I assist you today?", name)
}

func helloReply(name string) string {
	return fmt.Sprintf("Hello! Welcome to %s. I can help you with reservations, menu information, or availability. What would you like to do?", name)
}

func farewellReply(name string) string {
	return fmt.Sprintf("Goodbye! We look forward to seeing you at %s. Have a great day!", name)
}

func askTimeReply(label string) string {
	return fmt.Sprintf("Great, %s it is. What time would you prefer? We serve lunch (12-2 PM) and dinner (7-9 PM).", label)
}

func askGuestsReply(at string) string {
	return fmt.Sprintf("%s works. How many guests will be joining?", at)
}

func availableReply(r Reservation) string {
	return fmt.Sprintf("A table for %d on %s at %s is available. May I have your name for the reservation?", r.Guests, r.Date, r.Time)
}

func noDayReply(r Reservation) string {
	return fmt.Sprintf("Unfortunately, no tables are available on %s for %d guests. Would you like to try a different day?", r.Date, r.Guests)
}

func alternativesReply(r Reservation, alternatives []string) string {
	return fmt.Sprintf("Unfortunately, %s is fully booked for %d guests. I can offer: %s. Would any of these work?",
		r.Time, r.Guests, strings.Join(alternatives, ", "))
}

func slotTakenReply(r Reservation) string {
	return fmt.Sprintf("Sorry, the last table at %s on %s was just taken. What other time would suit you?", r.Time, r.Date)
}

func askPhoneReply(name string) string {
	return fmt.Sprintf("Thank you, %s. Could I have a contact phone number?", name)
}

func summaryReply(r Reservation) string {
	return fmt.Sprintf("Just to confirm:\n- **Date:** %s (%s)\n- **Time:** %s\n- **Guests:** %d\n- **Name:** %s\n- **Phone:** %s\n\nShall I proceed with the booking? (Yes/No)",
		r.Date, r.Day, r.Time, r.Guests, r.Name, r.Phone)
}

func confirmedReply(name string, r Reservation) string {
	return fmt.Sprintf("Your reservation is confirmed!\n\n- **Date:** %s (%s)\n- **Time:** %s\n- **Guests:** %d\n- **Name:** %s\n\nWe look forward to welcoming you at %s. Is there anything else I can help with?",
		r.Date, r.Day, r.Time, r.Guests, r.Name, name)
}

func cancelAskReply(r Reservation) string {
	return fmt.Sprintf("I have a reservation under **%s** for %d guests on %s at %s. Would you like to cancel it? (Yes/No)",
		r.Name, r.Guests, r.Date, r.Time)
}
