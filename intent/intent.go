// Package intent classifies idle-state user messages with ordered keyword rules.
package intent

import (
	"regexp"
	"strings"
)

// Intent is the coarse category of what the user wants to do.
type Intent string

const (
	Reserve Intent = "reserve"
	Menu    Intent = "menu"
	Cancel  Intent = "cancel"
	Modify  Intent = "modify"
	Hours   Intent = "hours"
	Unknown Intent = "unknown"
)

type rule struct {
	intent  Intent
	pattern *regexp.Regexp
}

var (
	reservePattern = regexp.MustCompile(`\b(reserve|book|tables?|reservations?|bookings?|seats?)\b`)
	cancelPattern  = regexp.MustCompile(`\b(cancel|remove|delete)\b`)
	modifyPattern  = regexp.MustCompile(`\b(change|modify|update|reschedule)\b`)
	bookVerb       = regexp.MustCompile(`\b(reserve|book)\b`)
)

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{Reserve, reservePattern},
	{Menu, regexp.MustCompile(`\b(menu|dish(es)?|food|eat|starters?|appetizers?|desserts?|drinks?|beverages?|wine|beer|veg|vegetarian|non.?veg|vegan|gluten|entree|biryani|chicken|paneer)\b`)},
	{Cancel, cancelPattern},
	{Modify, modifyPattern},
	{Hours, regexp.MustCompile(`\b(hours?|open|close|timings?|schedule|available|availability)\b`)},
}

// Detect maps text to an Intent.
//
// A booking noun next to a cancel or modify verb ("cancel my booking",
// "change my reservation") is about the existing reservation, so the Reserve
// rule steps aside for those verbs unless the text also says "book" or
// "reserve" ("book a table and update me on the menu" stays Reserve). Every
// other overlap resolves by rule order.
func Detect(text string) Intent {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if !r.pattern.MatchString(lower) {
			continue
		}
		if r.intent == Reserve && !bookVerb.MatchString(lower) &&
			(cancelPattern.MatchString(lower) || modifyPattern.MatchString(lower)) {
			continue
		}
		return r.intent
	}
	return Unknown
}

// Category is a menu section the catalog can list on its own.
type Category string

const (
	Starter     Category = "starter"
	Main        Category = "main"
	Dessert     Category = "dessert"
	Beverage    Category = "beverage"
	Vegetarian  Category = "vegetarian"
	NonVeg      Category = "non-veg"
	Vegan       Category = "vegan"
	GlutenFree  Category = "gluten-free"
	AllCategory Category = ""
)

// Categories lists every listable category in catalog order.
var Categories = []Category{Starter, Main, Dessert, Beverage, Vegetarian, NonVeg, Vegan, GlutenFree}

type categoryRule struct {
	category Category
	match    func(lower string) bool
}

func matcher(expr string) func(string) bool {
	re := regexp.MustCompile(expr)
	return re.MatchString
}

var vegetarianMatch = matcher(`\b(veg|vegetarian)\b`)

var categoryRules = []categoryRule{
	{Starter, matcher(`\b(starters?|appetizers?)\b`)},
	{Main, matcher(`\b(main|course|entree)\b`)},
	{Dessert, matcher(`\b(desserts?|sweets?)\b`)},
	{Beverage, matcher(`\b(drinks?|beverages?|wine|beer)\b`)},
	{Vegetarian, func(lower string) bool {
		return vegetarianMatch(lower) && !strings.Contains(lower, "non")
	}},
	{NonVeg, matcher(`\b(non.?veg|chicken|mutton|fish|prawn|lamb)\b`)},
	{Vegan, matcher(`\bvegan\b`)},
	{GlutenFree, matcher(`\bgluten\b`)},
}

// DetectCategory picks the menu section a menu question is about, or
// AllCategory when it names none.
func DetectCategory(text string) Category {
	lower := strings.ToLower(text)
	for _, r := range categoryRules {
		if r.match(lower) {
			return r.category
		}
	}
	return AllCategory
}
