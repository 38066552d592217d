package categorization

// DefaultRule is an entry of the rule set every new user starts with.
type DefaultRule struct {
	Pattern  string
	Category string
	Priority int
}

// DefaultRules returns the seed rule set. Specific merchant names sit at
// priority 1 so they beat the generic words further down.
func DefaultRules() []DefaultRule {
	return []DefaultRule{
		// food & dining
		{"swiggy", "food_dining", 1},
		{"zomato", "food_dining", 1},
		{"dominos", "food_dining", 1},
		{"starbucks", "food_dining", 1},
		{"bigbasket", "food_dining", 1},
		{"restaurant", "food_dining", 6},
		{"cafe", "food_dining", 6},
		{"coffee", "food_dining", 6},
		{"food", "food_dining", 8},

		// transport
		{"uber", "transport", 1},
		{"ola", "transport", 1},
		{"irctc", "transport", 1},
		{"metro", "transport", 3},
		{"railway", "transport", 3},
		{"rail", "transport", 4},
		{"petrol", "transport", 3},
		{"fuel", "transport", 3},

		// healthcare
		{"pharmacy", "healthcare", 1},
		{"hospital", "healthcare", 1},
		{"clinic", "healthcare", 3},
		{"doctor", "healthcare", 3},
		{"medical", "healthcare", 6},

		// shopping
		{"amazon", "shopping", 1},
		{"flipkart", "shopping", 1},
		{"myntra", "shopping", 1},
		{"shop", "shopping", 6},
		{"store", "shopping", 6},

		// subscriptions
		{"netflix", "subscriptions", 1},
		{"prime", "subscriptions", 1},
		{"spotify", "subscriptions", 1},
		{"subscription", "subscriptions", 6},

		// utilities
		{"electricity", "utilities", 1},
		{"water", "utilities", 1},
		{"gas", "utilities", 1},
		{"internet", "utilities", 1},
		{"airtel", "utilities", 1},
		{"mobile", "utilities", 3},

		// banking
		{"payment received", "payments", 1},
		{"cashback", "payments", 1},
		{"atm", "banking", 1},
		{"neft", "banking", 1},
		{"imps", "banking", 1},
		{"upi", "banking", 3},

		// entertainment
		{"bookmyshow", "entertainment", 1},
		{"movie", "entertainment", 1},
		{"cinema", "entertainment", 1},
		{"theatre", "entertainment", 3},
		{"game", "entertainment", 6},

		// travel
		{"makemytrip", "travel", 1},
		{"hotel", "travel", 1},
		{"flight", "travel", 1},
		{"booking", "travel", 3},
		{"trip", "travel", 6},

		// education
		{"course", "education", 1},
		{"training", "education", 1},
		{"book", "education", 5},
		{"study", "education", 6},
	}
}
