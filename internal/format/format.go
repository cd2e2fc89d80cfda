// Package format renders dates, prices and counts for the tour views.
package format

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	NotAvailable = "N/A"
	DatesTBA     = "Dates to be announced"
)

var tagPattern = regexp.MustCompile(`</?[^>]+(>|$)`)

// FormatDate renders t as "Jan 2, 2006".
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// FormatDateRange renders an inclusive range with the earlier day first,
// regardless of argument order. A missing side collapses to the other date.
func FormatDateRange(start, end *time.Time) string {
	switch {
	case start == nil && end == nil:
		return DatesTBA
	case start == nil:
		return FormatDate(*end)
	case end == nil:
		return FormatDate(*start)
	}

	a, b := *start, *end
	if b.Before(a) {
		a, b = b, a
	}

	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay == by && am == bm && ad == bd:
		return FormatDate(a)
	case ay == by:
		return fmt.Sprintf("%s - %s", a.Format("Jan 2"), FormatDate(b))
	default:
		return fmt.Sprintf("%s - %s", FormatDate(a), FormatDate(b))
	}
}

// FormatPrice renders a per-person price with en-US digit grouping.
func FormatPrice(price *float64) string {
	if price == nil {
		return NotAvailable
	}
	return "$" + groupNumber(*price)
}

// FormatAmount renders a paid total with two decimals.
func FormatAmount(total float64) string {
	return fmt.Sprintf("$%.2f", total)
}

// FormatTimestamp renders t the way an en-US browser prints a local date
// and time: "10/17/2026, 3:04:05 PM".
func FormatTimestamp(t time.Time) string {
	return t.Format("1/2/2006, 3:04:05 PM")
}

// NumberOfPeople derives the traveller count from a paid total and the
// per-person price.
func NumberOfPeople(total, unitPrice float64) string {
	if unitPrice <= 0 {
		return NotAvailable
	}
	n := total / unitPrice
	if n == math.Trunc(n) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// StripTags removes HTML tags, as found in place titles from map search.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// groupNumber matches en-US toLocaleString: grouped, at most three
// fraction digits, no trailing zeros.
func groupNumber(v float64) string {
	p := message.NewPrinter(language.AmericanEnglish)
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}
