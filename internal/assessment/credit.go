package assessment

import (
	"fmt"
	"strconv"
	"strings"
)

// ComputeCreditAmount turns a monthly income/expense pair into the yearly
// credit line: (income - expenses) x 12. The result is not clamped; a
// non-positive amount is a valid output meaning no credit is granted.
func ComputeCreditAmount(monthlyIncome, monthlyExpenses int) int {
	return (monthlyIncome - monthlyExpenses) * 12
}

// ParseAmount converts user-supplied text into an integer amount. Thousands
// separators, surrounding whitespace, and a currency prefix are tolerated;
// decimals are truncated. Unparsable input coerces to 0 so a malformed UI
// event never stalls the flow.
func ParseAmount(raw string) int {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return 0
	}

	if i := strings.IndexByte(cleaned, '.'); i >= 0 {
		cleaned = cleaned[:i]
		if cleaned == "" || cleaned == "-" {
			return 0
		}
	}

	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}

// ParseStep converts a raw step index from the UI into a usable value.
// Unparsable or negative input coerces to step 0.
func ParseStep(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FormatAmount renders an integer amount as a dollar string with comma
// grouping, e.g. 24000 -> "$24,000" and -12000 -> "-$12,000".
func FormatAmount(amount int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.Itoa(amount)
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}

	return fmt.Sprintf("%s$%s", sign, b.String())
}
