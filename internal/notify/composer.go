package notify

import (
	"fmt"
	"strings"

	"BloodLink/internal/matcher"
	"BloodLink/internal/models"
)

// Message text stays plain 7-bit ASCII. Emoji and medical buzzwords
// trip carrier spam filters and break the GSM character budget.

// AreaName classifies coordinates into a named locality, falling back
// to the free-text location and then a generic phrase.
func AreaName(req *models.EmergencyRequest) string {
	if req.UserLatitude == nil || req.UserLongitude == nil {
		if req.UserLocationText != "" {
			return req.UserLocationText
		}
		return "your area"
	}
	lat, lng := *req.UserLatitude, *req.UserLongitude

	if lat >= 18.9 && lat <= 19.3 && lng >= 72.7 && lng <= 73.2 {
		switch {
		case lat <= 19.1 && lng >= 73.0:
			return "Panvel area"
		case lat >= 19.0 && lat <= 19.2 && lng >= 72.8 && lng <= 73.0:
			return "Mumbai Central area"
		case lat >= 19.1 && lng >= 72.8 && lng <= 73.0:
			return "Bandra-Andheri area"
		default:
			return "Mumbai area"
		}
	}
	return "your area"
}

func urgencyLine(urgency string) string {
	switch urgency {
	case models.UrgencyCritical:
		return "Call now."
	case models.UrgencyRoutine:
		return "Contact during business hours."
	default:
		return "Contact within hours."
	}
}

func distanceText(c matcher.Candidate) string {
	if c.TravelTime == "N/A" {
		return "N/A"
	}
	return fmt.Sprintf("%.1fkm (~%s minutes)", c.DistanceKM, c.TravelTime)
}

// RequesterSMS builds the requester-facing message. Pure given the
// request and candidate list; the only timestamp used is CreatedAt.
func RequesterSMS(req *models.EmergencyRequest, candidates []matcher.Candidate) string {
	if len(candidates) == 0 {
		return fmt.Sprintf(
			"No hospitals found with %s blood in your area. Call 108 (Emergency Services) or contact local hospitals directly. Request ID: %s",
			req.BloodGroup, req.ShortID())
	}

	area := AreaName(req)
	primary := candidates[0]

	var b strings.Builder
	fmt.Fprintf(&b, "BLOOD AVAILABLE near %s\n", area)
	fmt.Fprintf(&b, "%d bag %s found\n\n", req.QuantityNeeded, req.BloodGroup)

	fmt.Fprintf(&b, "NEAREST HOSPITAL: %s\n", primary.Hospital.Name)
	fmt.Fprintf(&b, "PHONE: %s\n", primary.Hospital.EmergencyPhone)
	fmt.Fprintf(&b, "ADDRESS: %s\n", primary.Hospital.Address)
	fmt.Fprintf(&b, "DISTANCE: %s\n\n", distanceText(primary))

	if len(candidates) > 1 {
		b.WriteString("BACKUP OPTIONS:\n")
		for _, c := range backups(candidates) {
			fmt.Fprintf(&b, "%s (%.1fkm) - %s\n", c.Hospital.Name, c.DistanceKM, c.Hospital.EmergencyPhone)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s\n", urgencyLine(req.Urgency))
	fmt.Fprintf(&b, "Request ID: %s\n", req.ShortID())
	fmt.Fprintf(&b, "Time: %s from %s", req.CreatedAt.Format("15:04"), area)
	return b.String()
}

func backups(candidates []matcher.Candidate) []matcher.Candidate {
	rest := candidates[1:]
	if len(rest) > 2 {
		rest = rest[:2]
	}
	return rest
}

// OperatorAlert is the fixed-destination message sent for every
// request, matched or not.
func OperatorAlert(req *models.EmergencyRequest, candidates []matcher.Candidate) string {
	location := req.UserLocationText
	if location == "" {
		location = "Unknown location"
	}

	var b strings.Builder
	b.WriteString("BLOOD REQUEST ALERT\n\n")
	fmt.Fprintf(&b, "Blood Type: %s\n", req.BloodGroup)
	fmt.Fprintf(&b, "Quantity: %d bags\n", req.QuantityNeeded)
	fmt.Fprintf(&b, "Location: %s\n", location)
	fmt.Fprintf(&b, "Time: %s\n", req.CreatedAt.Format("15:04 on 02-Jan-2006"))
	fmt.Fprintf(&b, "Contact: %s\n", req.ContactPhone)
	fmt.Fprintf(&b, "Request ID: %s", req.ShortID())

	if len(candidates) > 0 {
		primary := candidates[0]
		fmt.Fprintf(&b, "\n\nNearest Hospital: %s\n", primary.Hospital.Name)
		fmt.Fprintf(&b, "Distance: %s\n", distanceText(primary))
		fmt.Fprintf(&b, "Phone: %s", primary.Hospital.EmergencyPhone)
	} else {
		b.WriteString("\n\nNo eligible hospitals matched.")
	}
	return b.String()
}

func EmailSubject(req *models.EmergencyRequest) string {
	return fmt.Sprintf("URGENT: Emergency Blood Request - %s (%d bags)", req.BloodGroup, req.QuantityNeeded)
}

// RequesterEmail is the long-form variant with up to five hospitals.
func RequesterEmail(req *models.EmergencyRequest, candidates []matcher.Candidate) string {
	name := req.ContactName
	if name == "" {
		name = "Emergency Contact"
	}

	var b strings.Builder
	if len(candidates) == 0 {
		b.WriteString("EMERGENCY BLOOD ALERT - NO IMMEDIATE MATCHES FOUND\n\n")
		fmt.Fprintf(&b, "Dear %s,\n\n", name)
		fmt.Fprintf(&b, "No hospitals in your immediate area currently have %s blood available in the quantity requested.\n\n", req.BloodGroup)
		b.WriteString("YOUR REQUEST:\n")
		fmt.Fprintf(&b, "Blood Type: %s\n", req.BloodGroup)
		fmt.Fprintf(&b, "Quantity: %d bags\n", req.QuantityNeeded)
		fmt.Fprintf(&b, "Request ID: %s\n", req.RequestID)
		fmt.Fprintf(&b, "Time: %s\n\n", req.CreatedAt.Format("15:04 on January 2, 2006"))
		b.WriteString("IMMEDIATE ACTION REQUIRED:\n")
		b.WriteString("1. Call 108 (National Emergency Services) immediately\n")
		b.WriteString("2. Contact nearby hospitals directly, stock changes rapidly\n")
		b.WriteString("3. Keep your Request ID ready when calling\n\n")
		b.WriteString("Emergency Blood Bank Network\n")
		b.WriteString("This is an automated emergency alert. Please do not reply to this email.")
		return b.String()
	}

	b.WriteString("EMERGENCY BLOOD REQUEST - IMMEDIATE ACTION REQUIRED\n\n")
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	b.WriteString("This is an urgent notification regarding your emergency blood request.\n\n")

	b.WriteString("REQUEST DETAILS:\n")
	fmt.Fprintf(&b, "Blood Type Required: %s\n", req.BloodGroup)
	fmt.Fprintf(&b, "Quantity Needed: %d bags\n", req.QuantityNeeded)
	fmt.Fprintf(&b, "Request ID: %s\n", req.RequestID)
	fmt.Fprintf(&b, "Request Time: %s\n", req.CreatedAt.Format("15:04 on January 2, 2006"))
	fmt.Fprintf(&b, "Contact Phone: %s\n\n", req.ContactPhone)

	b.WriteString("AVAILABLE HOSPITALS (ranked by priority):\n\n")
	shown := candidates
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for i, c := range shown {
		hours := "Limited Hours"
		if c.Hospital.Operates24x7 {
			hours = "24/7 Emergency Care"
		}
		fmt.Fprintf(&b, "#%d - %s\n", i+1, c.Hospital.Name)
		fmt.Fprintf(&b, "    Distance: %s\n", distanceText(c))
		fmt.Fprintf(&b, "    Emergency Phone: %s\n", c.Hospital.EmergencyPhone)
		fmt.Fprintf(&b, "    Address: %s, %s\n", c.Hospital.Address, c.Hospital.City)
		fmt.Fprintf(&b, "    Operating Hours: %s\n\n", hours)
	}
	if len(candidates) > 5 {
		fmt.Fprintf(&b, "%d additional hospitals available with %s blood.\n\n", len(candidates)-5, req.BloodGroup)
	}

	b.WriteString("IMMEDIATE ACTION STEPS:\n")
	b.WriteString("1. Call the nearest hospital immediately\n")
	fmt.Fprintf(&b, "2. Quote your Request ID: %s\n", req.RequestID)
	fmt.Fprintf(&b, "3. Confirm availability of %s blood (%d bags)\n", req.BloodGroup, req.QuantityNeeded)
	b.WriteString("4. Proceed to the hospital for immediate assistance\n\n")

	b.WriteString("IMPORTANT NOTES:\n")
	b.WriteString("- Blood availability changes rapidly, call ahead to confirm\n")
	b.WriteString("- Have identification and medical records ready\n")
	b.WriteString("- In case of extreme emergency, call 108 (Emergency Services)\n\n")

	b.WriteString("Emergency Blood Bank Network\n")
	b.WriteString("This is an automated emergency alert. Please do not reply to this email.")
	return b.String()
}
