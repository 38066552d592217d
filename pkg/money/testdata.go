package money

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// StatementGenerator produces synthetic Axis credit-card statement rows for
// tests. A fixed seed yields the same rows every run.
type StatementGenerator struct {
	faker *gofakeit.Faker
}

// NewStatementGenerator creates a generator with a specific seed for reproducibility.
func NewStatementGenerator(seed int64) *StatementGenerator {
	return &StatementGenerator{
		faker: gofakeit.New(seed),
	}
}

// StatementLine is one generated row plus the values a parser should recover
// from it.
type StatementLine struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Credit      bool
	Text        string
}

var merchants = []string{
	"SWIGGY", "ZOMATO", "DOMINOS PIZZA", "STARBUCKS COFFEE",
	"UBER INDIA", "OLA CABS", "INDIAN OIL PETROL", "IRCTC RAIL",
	"AMAZON PAY", "FLIPKART", "MYNTRA", "BIGBASKET",
	"NETFLIX", "BOOKMYSHOW", "AIRTEL PAYMENTS", "APOLLO PHARMACY",
	"MAKEMYTRIP", "SPOTIFY",
}

var cities = []string{
	"BANGALORE", "MUMBAI", "NEW DELHI", "PUNE", "HYDERABAD", "CHENNAI",
}

var creditDescriptions = []string{
	"PAYMENT RECEIVED THANK YOU",
	"REFUND FLIPKART",
	"CASHBACK CREDIT",
}

var dateLayouts = []string{"02 Jan '06", "02 Jan 2006", "02/01/2006"}

// Line generates one statement row dated on.
func (g *StatementGenerator) Line(on time.Time) StatementLine {
	credit := g.faker.Number(1, 6) == 1

	var desc string
	if credit {
		desc = creditDescriptions[g.faker.Number(0, len(creditDescriptions)-1)]
	} else {
		desc = merchants[g.faker.Number(0, len(merchants)-1)] + " " + cities[g.faker.Number(0, len(cities)-1)]
	}

	amount := decimal.New(int64(g.faker.Number(5000, 2500000)), -2)
	marker := "Debit"
	if credit {
		marker = "Credit"
	}
	layout := dateLayouts[g.faker.Number(0, len(dateLayouts)-1)]

	return StatementLine{
		Date:        on,
		Description: desc,
		Amount:      amount,
		Credit:      credit,
		Text:        fmt.Sprintf("%s %s %s %s", on.Format(layout), desc, Format(amount, INR), marker),
	}
}

// Lines generates count rows starting at start, advancing zero to two days
// between rows.
func (g *StatementGenerator) Lines(count int, start time.Time) []StatementLine {
	lines := make([]StatementLine, 0, count)
	day := start
	for i := 0; i < count; i++ {
		lines = append(lines, g.Line(day))
		day = day.AddDate(0, 0, g.faker.Number(0, 2))
	}
	return lines
}

// Document renders rows the way a PDF text extractor hands them over: a
// header block, the rows, and a footer.
func Document(lines []StatementLine) []string {
	out := []string{
		"Axis Bank Credit Card Statement",
		"Credit Card Number XXXX XXXX XXXX 1234",
		"",
		"Transaction Details",
		"DATE TRANSACTION DETAILS AMOUNT",
	}
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return append(out, "End of Transaction Details", "Page 1 of 1")
}

// Debits sums the debit amounts of lines.
func Debits(lines []StatementLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if !l.Credit {
			total = total.Add(l.Amount)
		}
	}
	return total
}

// Credits sums the credit amounts of lines.
func Credits(lines []StatementLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.Credit {
			total = total.Add(l.Amount)
		}
	}
	return total
}
