package category

import "strings"

// Label is a spending category produced by the classifier or carried over
// from the aggregation provider's taxonomy.
type Label string

const (
	FoodAndDining    Label = "Food & Dining"
	Transportation   Label = "Transportation"
	Shopping         Label = "Shopping"
	Entertainment    Label = "Entertainment"
	HealthAndFitness Label = "Health & Fitness"
	UtilitiesBills   Label = "Utilities & Bills"
	BankingFinance   Label = "Banking & Finance"
	Income           Label = "Income"
	Other            Label = "Other"
)

// Labels lists every label the classifier can produce, in rule priority order.
func Labels() []Label {
	return []Label{
		FoodAndDining,
		Transportation,
		Shopping,
		Entertainment,
		HealthAndFitness,
		UtilitiesBills,
		BankingFinance,
		Income,
		Other,
	}
}

// IsValid reports whether l is a known classifier label.
func IsValid(l Label) bool {
	for _, known := range Labels() {
		if l == known {
			return true
		}
	}
	return false
}

// ruleGroup maps a set of merchant keywords to a category label.
type ruleGroup struct {
	label    Label
	keywords []string
}

// ruleGroups is evaluated top to bottom, first match wins. The order is
// load-bearing: overlapping keywords exist across groups ("gas" appears in
// fuel brands and in utility providers), so Transportation is checked before
// Utilities & Bills and that resolution is fixed.
var ruleGroups = []ruleGroup{
	{FoodAndDining, []string{
		"restaurant", "starbucks", "mcdonald", "chipotle", "subway", "pizza",
		"doordash", "grubhub", "uber eats", "dunkin", "taco bell", "wendy",
		"burger", "cafe", "coffee", "chick-fil-a", "kfc", "deli", "bakery",
		"grocery", "whole foods", "trader joe", "safeway", "kroger",
	}},
	{Transportation, []string{
		"uber", "lyft", "shell", "chevron", "exxon", "mobil", "bp", "gas",
		"fuel", "parking", "transit", "metro", "amtrak", "toll",
	}},
	{Shopping, []string{
		"amazon", "amzn", "walmart", "target", "costco", "best buy", "ebay", "etsy",
		"ikea", "home depot", "lowes", "macys", "nordstrom", "apple store",
	}},
	{Entertainment, []string{
		"netflix", "spotify", "hulu", "disney", "hbo", "youtube", "twitch",
		"steam", "playstation", "xbox", "nintendo", "cinema", "theater",
		"ticketmaster", "concert",
	}},
	{HealthAndFitness, []string{
		"gym", "fitness", "planet fitness", "equinox", "cvs", "walgreens",
		"pharmacy", "doctor", "dental", "medical", "hospital", "clinic",
	}},
	{UtilitiesBills, []string{
		"verizon", "at&t", "t-mobile", "comcast", "xfinity", "spectrum",
		"electric", "water", "utility", "internet", "phone bill",
	}},
	{BankingFinance, []string{
		"bank", "atm", "interest", "loan", "mortgage", "insurance",
		"credit card", "fee", "overdraft",
	}},
	{Income, []string{
		"deposit", "salary", "payroll", "paycheck", "direct dep", "refund",
		"reimbursement", "transfer in", "venmo from", "zelle from",
	}},
}

// Classify infers a category from a transaction's free-text merchant name.
// Pure and total: it always returns a label, defaulting to Other.
// Matching is case-insensitive substring search over the rule groups above.
func Classify(name string) Label {
	needle := strings.ToLower(name)
	for _, group := range ruleGroups {
		for _, kw := range group.keywords {
			if strings.Contains(needle, kw) {
				return group.label
			}
		}
	}
	return Other
}

// Resolve applies the single system-wide category precedence:
// user override > first provider label > classifier inference.
// Every consumer (budget evaluation, dashboard aggregation, the API layer)
// must attribute categories through this function and nowhere else.
func Resolve(custom *string, provider []string, name string) Label {
	if custom != nil && *custom != "" {
		return Label(*custom)
	}
	if len(provider) > 0 && provider[0] != "" {
		return Label(provider[0])
	}
	return Classify(name)
}
