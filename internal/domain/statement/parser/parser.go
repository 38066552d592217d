// Package parser turns the extracted text of an Axis Bank credit-card
// statement into transaction records.
//
// Each transaction occupies one line:
//
//	<date> <description> [₹|Rs.|INR] <amount> [Debit|Credit|Dr|Cr]
//
// Lines that are neither a leading-date row nor end in an amount with a
// debit/credit marker are skipped. Candidate lines that cannot be read
// unambiguously are reported in Result.Unparsed and left out of the records.
package parser

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ccparser/internal/domain/transaction"
	"github.com/FACorreiaa/ccparser/pkg/money"
)

// Record is a parsed statement line.
type Record struct {
	Line        int // 1-based line number in the extracted text
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Direction   transaction.Direction
}

// Unparsed is a candidate line that was excluded from the records.
type Unparsed struct {
	Line   int
	Text   string
	Reason string
}

// Result contains the outcome of parsing one statement.
type Result struct {
	Records      []Record
	Unparsed     []Unparsed
	TotalLines   int
	SkippedLines int
}

// Empty reports whether no transaction was found. Whether that is an error
// is up to the caller.
func (r *Result) Empty() bool { return len(r.Records) == 0 }

// Period returns the earliest and latest record dates.
func (r *Result) Period() (start, end time.Time) {
	for i, rec := range r.Records {
		if i == 0 || rec.Date.Before(start) {
			start = rec.Date
		}
		if i == 0 || rec.Date.After(end) {
			end = rec.Date
		}
	}
	return start, end
}

const (
	ReasonMissingDate      = "missing date"
	ReasonInvalidDate      = "invalid date"
	ReasonMissingAmount    = "missing amount"
	ReasonMultipleAmounts  = "multiple amounts"
	ReasonEmptyDescription = "empty description"
	ReasonInvalidAmount    = "invalid amount"
)

var (
	leadingDate = regexp.MustCompile(`^(\d{1,2}\s+[A-Za-z]{3,9}\s+(?:'\d{2}|\d{4})|\d{2}/\d{2}/\d{4}|\d{2}-\d{2}-\d{4})(?:\s+|$)`)

	// amount with optional sign, optional currency prefix and optional
	// trailing marker; the sign is dropped, direction comes from the marker
	trailingAmount = regexp.MustCompile(`(?i)[-+]?\s*(?:₹|\bRs\.?|\bINR)?\s*[-+]?\s*(?P<amount>\d[\d,]*\.\d{2})\s*(?P<marker>debit|credit|dr|cr)?\.?\s*$`)
	amountGroup    = trailingAmount.SubexpIndex("amount")
	markerGroup    = trailingAmount.SubexpIndex("marker")

	markedTail = regexp.MustCompile(`(?i)\d[\d,]*\.\d{2}\s*(debit|credit|dr|cr)\.?\s*$`)

	// a marker may follow the amount without a space, as in 1,234.56Cr
	anyAmount = regexp.MustCompile(`(?i)\d[\d,]*\.\d{2}(?:\b|(?:debit|credit|dr|cr)\b)`)

	boilerplate = regexp.MustCompile(`(?i)transaction details|credit card number|end of transaction|^page\s+\d+|\bpage\s+\d+\s+of\s+\d+`)
)

var dateLayouts = []string{
	"2 Jan '06",
	"2 January '06",
	"2 Jan 2006",
	"2 January 2006",
	"02/01/2006",
	"02-01-2006",
}

// Parser reads the single known Axis credit-card layout.
type Parser struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse reads lines in order. source only labels log records.
func (p *Parser) Parse(source string, lines []string) *Result {
	result := &Result{
		Records:    make([]Record, 0, len(lines)/2),
		TotalLines: len(lines),
	}

	for i, raw := range lines {
		lineNo := i + 1
		line := normalizeLine(raw)

		if line == "" || boilerplate.MatchString(line) || !isCandidate(line) {
			result.SkippedLines++
			if line != "" {
				p.logger.Debug("skipping statement line", "source", source, "line", lineNo)
			}
			continue
		}

		rec, reason := parseLine(line)
		if reason != "" {
			result.Unparsed = append(result.Unparsed, Unparsed{Line: lineNo, Text: line, Reason: reason})
			p.logger.Warn("unparsed statement line", "source", source, "line", lineNo, "reason", reason, "text", line)
			continue
		}

		rec.Line = lineNo
		result.Records = append(result.Records, rec)
	}

	return result
}

func isCandidate(line string) bool {
	return leadingDate.MatchString(line) || markedTail.MatchString(line)
}

func parseLine(line string) (Record, string) {
	m := leadingDate.FindStringSubmatchIndex(line)
	if m == nil {
		return Record{}, ReasonMissingDate
	}

	date, ok := parseDate(line[m[2]:m[3]])
	if !ok {
		return Record{}, ReasonInvalidDate
	}

	rest := line[m[1]:]
	switch n := len(anyAmount.FindAllString(rest, -1)); {
	case n == 0:
		return Record{}, ReasonMissingAmount
	case n > 1:
		return Record{}, ReasonMultipleAmounts
	}

	tail := trailingAmount.FindStringSubmatchIndex(rest)
	if tail == nil {
		// the single amount sits in the middle of the line
		return Record{}, ReasonMissingAmount
	}

	amount, err := money.ParseAmount(rest[tail[2*amountGroup]:tail[2*amountGroup+1]])
	if err != nil {
		return Record{}, ReasonInvalidAmount
	}

	direction := transaction.Debit
	if tail[2*markerGroup] >= 0 {
		direction, _ = transaction.ParseDirection(rest[tail[2*markerGroup]:tail[2*markerGroup+1]])
	}

	desc := collapseSpaces(rest[:tail[0]])
	if desc == "" {
		return Record{}, ReasonEmptyDescription
	}

	return Record{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Direction:   direction,
	}, ""
}

func parseDate(s string) (time.Time, bool) {
	s = collapseSpaces(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var quoteReplacer = strings.NewReplacer("’", "'", "‘", "'", "\u00a0", " ")

func normalizeLine(s string) string {
	return strings.TrimSpace(quoteReplacer.Replace(s))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
