package models

// Category is one of the fixed classification buckets used when aggregating
// transfer amounts for reporting. The set is closed: memos that match no
// named category always fall into CategoryOther, never a new bucket.
type Category string

const (
	CategoryBillsUtilities Category = "Bills & Utilities"
	CategoryPersonToPerson Category = "Person to Person"
	CategoryEntertainment  Category = "Entertainment"
	CategoryFoodDrink      Category = "Food & Drink"
	CategoryShopping       Category = "Shopping"
	CategoryOther          Category = "Other"
)

// Categories returns every bucket in display order.
func Categories() []Category {
	return []Category{
		CategoryBillsUtilities,
		CategoryPersonToPerson,
		CategoryEntertainment,
		CategoryFoodDrink,
		CategoryShopping,
		CategoryOther,
	}
}

// CategoryOf classifies a memo by exact match against the named buckets.
func CategoryOf(memo string) Category {
	switch Category(memo) {
	case CategoryBillsUtilities,
		CategoryPersonToPerson,
		CategoryEntertainment,
		CategoryFoodDrink,
		CategoryShopping:
		return Category(memo)
	default:
		return CategoryOther
	}
}
