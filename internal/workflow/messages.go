package workflow

import (
	"fmt"

	"github.com/shopspring/decimal"

	"venue-crm/internal/datetime"
)

func pricingGuideText(name, venue string) string {
	return fmt.Sprintf(
		"Hi %s! Thanks for your interest in %s. Here is our pricing guide: weddings start at $45,000 "+
			"for up to 75 guests, plus a $750 service fee. Reply with a day and time to book a tour.",
		name, venue,
	)
}

func tourConfirmationText(date, clock, venue string) string {
	return fmt.Sprintf("You're booked for a tour of %s on %s at %s. See you then!",
		venue, datetime.PrettyDate(date), datetime.Format12h(clock))
}

func eventConfirmationText(date, venue string) string {
	return fmt.Sprintf("Wonderful! %s is reserved for you at %s.", datetime.PrettyDate(date), venue)
}

func invoiceSubject(venue string) string {
	return "Your invoice from " + venue
}

func invoiceText(id string, total decimal.Decimal, currency, due string) string {
	return fmt.Sprintf("Invoice %s for %s %s is due on %s.", id, total.StringFixed(2), currency, datetime.PrettyDate(due))
}

func receiptSubject(venue string) string {
	return "Payment received by " + venue
}

func receiptText(id string, total decimal.Decimal, currency string) string {
	return fmt.Sprintf("We received your payment of %s %s for invoice %s. Thank you!", total.StringFixed(2), currency, id)
}
