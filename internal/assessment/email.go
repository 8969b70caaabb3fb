package assessment

import "strings"

// EmailCheck is the outcome of an address validation: a verdict plus a
// human-readable diagnostic suitable for direct UI display.
type EmailCheck struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// ValidateEmailAddress checks that candidate has the general shape
// local@domain.tld with no embedded whitespace and no empty segment.
// It never fails hard: every input maps to a verdict.
func ValidateEmailAddress(candidate string) EmailCheck {
	if strings.TrimSpace(candidate) == "" {
		return EmailCheck{OK: false, Message: "Email address must not be empty."}
	}

	if strings.ContainsAny(candidate, " \t\r\n") {
		return EmailCheck{OK: false, Message: "Email address must not contain whitespace."}
	}

	parts := strings.Split(candidate, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return EmailCheck{OK: false, Message: "Email address must look like name@example.com."}
	}

	domain := parts[1]
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return EmailCheck{OK: false, Message: "Email address must look like name@example.com."}
	}

	return EmailCheck{OK: true, Message: "Email address looks good."}
}

// ValidateEmailValue is the tolerant entry point for untyped input from the
// wire: anything that is not a string is invalid with an explanatory
// message instead of a panic.
func ValidateEmailValue(candidate interface{}) EmailCheck {
	s, ok := candidate.(string)
	if !ok {
		return EmailCheck{OK: false, Message: "Email address input must be text."}
	}
	return ValidateEmailAddress(s)
}
