package view

import (
	"fmt"
	"time"
)

const dateTimeLayout = "Mon 02 Jan 2006, 15:04"

// Money formata centavos em euros.
func Money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s€%d.%02d", sign, cents/100, cents%100)
}

func DateTime(t time.Time) string {
	return t.UTC().Format(dateTimeLayout) + " UTC"
}

func Hours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}

// MaskedIBAN shows only the last four characters.
func MaskedIBAN(last4 string) string {
	return "•••• " + last4
}
