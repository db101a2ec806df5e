package redaction

import "strings"

const maskToken = "***"

// MaskEmail keeps the first two characters of the local part and the full
// domain: "client@example.com" -> "cl***@example.com".
func MaskEmail(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	at := strings.LastIndex(trimmed, "@")
	if at <= 0 {
		return MaskIdentifier(trimmed)
	}

	local := trimmed[:at]
	domain := trimmed[at:]
	if len(local) <= 2 {
		return local[:1] + maskToken + domain
	}
	return local[:2] + maskToken + domain
}

// MaskPhone strips formatting and keeps only the last two digits, padding the
// rest with '*' so the digit count is preserved.
func MaskPhone(value string) string {
	digits := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		if value[i] >= '0' && value[i] <= '9' {
			digits = append(digits, value[i])
		}
	}
	if len(digits) == 0 {
		return ""
	}
	if len(digits) <= 2 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-2) + string(digits[len(digits)-2:])
}

// MaskIdentifier keeps the first two and last two characters of identifiers
// long enough to stay unambiguous, and only the first character otherwise.
func MaskIdentifier(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) < 6 {
		return trimmed[:1] + maskToken
	}
	return trimmed[:2] + maskToken + trimmed[len(trimmed)-2:]
}
