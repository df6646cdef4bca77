package notification

import "strings"

// Failure classes recorded for operator diagnostics. Classification
// never changes workflow state.
const (
	ClassRateLimited      = "rate-limited"
	ClassAuthentication   = "authentication"
	ClassInvalidRecipient = "invalid-recipient"
	ClassUnknown          = "unknown"
)

// Classify buckets provider error text by substring, matching the
// phrasing Twilio-style APIs use for the common failure modes.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "exceeded") || strings.Contains(text, "limit"):
		return ClassRateLimited
	case strings.Contains(text, "authentication"):
		return ClassAuthentication
	case strings.Contains(text, "phone number"):
		return ClassInvalidRecipient
	default:
		return ClassUnknown
	}
}
