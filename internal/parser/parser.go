// Package parser extracts blood requests from free-text inbound SMS.
//
// Expected shapes:
//
//	"A+ 2 near Andheri"
//	"Need B- urgent 1 bag Bandra"
//	"Emergency O+ 3 units at Dadar station"
//	"AB+ 1"
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"BloodLink/internal/models"
	"BloodLink/pkg/errors"
)

// Result is the structured reading of one inbound message. Only the
// blood group is mandatory; everything else falls back to defaults.
type Result struct {
	BloodGroup string
	Quantity   int
	Location   string
	Urgency    string
}

// Ordered most-specific first: AB before A and B, symbol forms before
// the spelled-out POS/NEG forms.
var bloodGroupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(AB[+-])`),
	regexp.MustCompile(`(A[+-])`),
	regexp.MustCompile(`(B[+-])`),
	regexp.MustCompile(`(O[+-])`),
	regexp.MustCompile(`(AB)\s*(POS|POSITIVE)`),
	regexp.MustCompile(`(AB)\s*(NEG|NEGATIVE)`),
	regexp.MustCompile(`(A)\s*(POS|POSITIVE)`),
	regexp.MustCompile(`(A)\s*(NEG|NEGATIVE)`),
	regexp.MustCompile(`(B)\s*(POS|POSITIVE)`),
	regexp.MustCompile(`(B)\s*(NEG|NEGATIVE)`),
	regexp.MustCompile(`(O)\s*(POS|POSITIVE)`),
	regexp.MustCompile(`(O)\s*(NEG|NEGATIVE)`),
}

var quantityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d+)\s*(BAG|BAGS|UNIT|UNITS|BOTTLE|BOTTLES)\b`),
	regexp.MustCompile(`\b(\d+)\b`),
}

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:NEAR|AT|IN|FROM)\s+([A-Za-z ,]+?)(?:\s*$|\s+(?:URGENT|CRITICAL|EMERGENCY))`),
	regexp.MustCompile(`(?:BAG|BAGS|UNIT|UNITS)\s+([A-Za-z ,]{3,}?)(?:\s*$|\s+(?:URGENT|CRITICAL))`),
	regexp.MustCompile(`\b([A-Za-z ,]{5,})\s*$`),
}

var (
	criticalWords = regexp.MustCompile(`\b(?:CRITICAL|EMERGENCY|URGENT|ASAP|IMMEDIATE)\b`)
	routineWords  = regexp.MustCompile(`\b(?:ROUTINE|NORMAL|REGULAR)\b`)
)

// Parse reads one message. A missing or unrecognizable blood group is
// the only hard failure; quantity, location and urgency fail soft to
// their defaults.
func Parse(body string) (Result, error) {
	message := strings.ToUpper(strings.TrimSpace(body))

	res := Result{Quantity: 1, Urgency: models.UrgencyUrgent}

	group := extractBloodGroup(message)
	if group == "" {
		return res, errors.WithCode(errors.CodeInvalidInput,
			"could not identify blood group, specify like 'A+', 'B-', 'O+'")
	}
	res.BloodGroup = group
	res.Quantity = extractQuantity(message)
	res.Location = extractLocation(message)
	res.Urgency = extractUrgency(message)
	return res, nil
}

func extractBloodGroup(message string) string {
	for _, re := range bloodGroupPatterns {
		m := re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		group := m[1]
		if !strings.HasSuffix(group, "+") && !strings.HasSuffix(group, "-") && len(m) >= 3 {
			if strings.HasPrefix(m[2], "POS") {
				group += "+"
			} else {
				group += "-"
			}
		}
		if models.ValidBloodGroup(group) {
			return group
		}
	}
	return ""
}

func extractQuantity(message string) int {
	for _, re := range quantityPatterns {
		m := re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n < 1 {
			return 1
		}
		if n > 10 {
			return 10
		}
		return n
	}
	return 1
}

func extractLocation(message string) string {
	for _, re := range locationPatterns {
		m := re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		loc := strings.TrimSpace(m[1])
		if len(loc) >= 3 {
			return titleCase(loc)
		}
	}
	return ""
}

func extractUrgency(message string) string {
	if criticalWords.MatchString(message) {
		return models.UrgencyCritical
	}
	if routineWords.MatchString(message) {
		return models.UrgencyRoutine
	}
	return models.UrgencyUrgent
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
