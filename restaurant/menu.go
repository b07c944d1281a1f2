package restaurant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/room4-2/lamaison/intent"
)

// ErrUnknownCategory is returned for a category the catalog does not list
var ErrUnknownCategory = errors.New("unknown menu category")

// Dish is one menu entry. Course is one of starter, main, dessert or
// beverage; Diet holds the dietary categories the dish belongs to.
type Dish struct {
	Name        string
	Description string
	Price       int
	Course      intent.Category
	Diet        []intent.Category
}

func (d Dish) in(category intent.Category) bool {
	if d.Course == category {
		return true
	}
	for _, c := range d.Diet {
		if c == category {
			return true
		}
	}
	return false
}

var categoryTitles = map[intent.Category]string{
	intent.Starter:    "Starters",
	intent.Main:       "Main Course",
	intent.Dessert:    "Desserts",
	intent.Beverage:   "Beverages",
	intent.Vegetarian: "Vegetarian",
	intent.NonVeg:     "Non-Vegetarian",
	intent.Vegan:      "Vegan",
	intent.GlutenFree: "Gluten-Free",
}

var courses = []intent.Category{intent.Starter, intent.Main, intent.Dessert, intent.Beverage}

// DefaultDishes is the house menu
var DefaultDishes = []Dish{
	{"Paneer Tikka", "Chargrilled cottage cheese with peppers and mint chutney", 320, intent.Starter, []intent.Category{intent.Vegetarian, intent.GlutenFree}},
	{"Chicken Seekh Kebab", "Minced chicken skewers from the tandoor", 380, intent.Starter, []intent.Category{intent.NonVeg, intent.GlutenFree}},
	{"Hara Bhara Kebab", "Spinach and green pea patties", 280, intent.Starter, []intent.Category{intent.Vegetarian, intent.Vegan}},
	{"Prawn Koliwada", "Crisp spiced prawns with lemon", 450, intent.Starter, []intent.Category{intent.NonVeg}},
	{"Hyderabadi Chicken Biryani", "Dum-cooked basmati rice with saffron and tender chicken", 520, intent.Main, []intent.Category{intent.NonVeg, intent.GlutenFree}},
	{"Paneer Butter Masala", "Cottage cheese in a rich tomato and butter gravy", 420, intent.Main, []intent.Category{intent.Vegetarian, intent.GlutenFree}},
	{"Mutton Rogan Josh", "Slow-cooked Kashmiri lamb curry", 580, intent.Main, []intent.Category{intent.NonVeg, intent.GlutenFree}},
	{"Chana Masala", "Chickpeas simmered with onion, tomato and spices", 340, intent.Main, []intent.Category{intent.Vegetarian, intent.Vegan, intent.GlutenFree}},
	{"Goan Fish Curry", "Kingfish in coconut and kokum curry", 540, intent.Main, []intent.Category{intent.NonVeg, intent.GlutenFree}},
	{"Gulab Jamun", "Warm milk dumplings in rose syrup", 180, intent.Dessert, []intent.Category{intent.Vegetarian}},
	{"Mango Sorbet", "Alphonso mango sorbet", 200, intent.Dessert, []intent.Category{intent.Vegetarian, intent.Vegan, intent.GlutenFree}},
	{"Chocolate Fondant", "Molten dark chocolate cake with vanilla ice cream", 260, intent.Dessert, []intent.Category{intent.Vegetarian}},
	{"Masala Chai", "Spiced Indian tea", 120, intent.Beverage, []intent.Category{intent.Vegetarian, intent.GlutenFree}},
	{"Fresh Lime Soda", "Sweet or salted", 140, intent.Beverage, []intent.Category{intent.Vegetarian, intent.Vegan, intent.GlutenFree}},
	{"Mango Lassi", "Yogurt and mango smoothie", 180, intent.Beverage, []intent.Category{intent.Vegetarian, intent.GlutenFree}},
	{"House Red Wine", "Glass of Sula Shiraz", 550, intent.Beverage, []intent.Category{intent.Vegan, intent.GlutenFree}},
}

// Menu is an in-memory menu catalog
type Menu struct {
	name   string
	dishes []Dish
}

// NewMenu creates a catalog for the restaurant; nil dishes means DefaultDishes
func NewMenu(info Info, dishes []Dish) *Menu {
	if dishes == nil {
		dishes = DefaultDishes
	}
	return &Menu{name: info.Name, dishes: dishes}
}

// Summary lists each course with a couple of highlights
func (m *Menu) Summary(ctx context.Context) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's a taste of the %s menu:\n", m.name)
	for _, course := range courses {
		var names []string
		for _, d := range m.dishes {
			if d.Course == course {
				names = append(names, d.Name)
			}
			if len(names) == 2 {
				break
			}
		}
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(&b, "- **%s:** %s\n", categoryTitles[course], strings.Join(names, ", "))
	}
	b.WriteString("\nAsk me about starters, mains, desserts, drinks, or vegetarian, vegan and gluten-free options.")
	return b.String(), nil
}

// ByCategory lists every dish in the category
func (m *Menu) ByCategory(ctx context.Context, category intent.Category) (string, error) {
	title, ok := categoryTitles[category]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", title)
	count := 0
	for _, d := range m.dishes {
		if !d.in(category) {
			continue
		}
		fmt.Fprintf(&b, "- **%s** (₹%d): %s\n", d.Name, d.Price, d.Description)
		count++
	}
	if count == 0 {
		b.WriteString("Nothing in this section today.\n")
	}
	b.WriteString("\nWould you like to reserve a table?")
	return b.String(), nil
}
