package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"BloodLink/internal/models"
	"BloodLink/internal/parser"
	"BloodLink/pkg/notification"
)

const helpReply = "Emergency Blood Request Help:\n\n" +
	"Format: [Blood Group] [Quantity] [Location]\n" +
	"Examples:\n" +
	"- A+ 2 near Andheri\n" +
	"- O- urgent 1 bag Bandra\n" +
	"- AB+ 3 at Dadar station\n\n" +
	"Add 'urgent' or 'critical' for priority."

var helpKeywords = []string{"HELP", "INFO", "FORMAT", "HOW"}

// SMSWebhook receives inbound Twilio messages, parses them into a
// request and runs the pipeline, answering with TwiML.
func (h *Handlers) SMSWebhook(c *gin.Context) {
	body := strings.TrimSpace(c.PostForm("Body"))
	from := c.PostForm("From")
	messageSID := c.PostForm("MessageSid")

	h.log.Info("inbound sms", zap.String("from", from))

	if body == "" {
		twiml(c, "Please send a blood request. Example: 'A+ 2 near Andheri'")
		return
	}
	upper := strings.ToUpper(body)
	for _, kw := range helpKeywords {
		if strings.Contains(upper, kw) {
			twiml(c, helpReply)
			return
		}
	}

	parsed, err := parser.Parse(body)
	if err != nil {
		twiml(c, err.Error()+"\n\nFormat: [Blood Group] [Quantity] [Location]\nExample: 'A+ 2 near Andheri'\nSend 'HELP' for more info.")
		return
	}

	phone := notification.NormalizePhone(from)
	req := &models.EmergencyRequest{
		RequestID:        uuid.NewString(),
		BloodGroup:       parsed.BloodGroup,
		QuantityNeeded:   parsed.Quantity,
		Urgency:          parsed.Urgency,
		UserLocationText: parsed.Location,
		ContactPhone:     phone,
		ContactName:      smsContactName(phone),
		IPAddress:        c.ClientIP(),
		UserAgent:        "SMS via Twilio",
		SessionID:        "sms_" + messageSID,
		Status:           models.StatusPending,
	}
	if err := h.requests.Create(c.Request.Context(), req); err != nil {
		h.log.Error("sms request persistence failed", zap.Error(err))
		twiml(c, "Could not create emergency request. Please try again or call 108 for immediate help.")
		return
	}

	h.pipeline.Run(c.Request.Context(), req)

	location := parsed.Location
	if location == "" {
		location = "Location detecting..."
	}
	twiml(c, fmt.Sprintf(
		"Emergency Request Created!\n%s - %d bag(s)\n%s\nID: %s\n\nSearching hospitals... You'll receive results shortly.",
		parsed.BloodGroup, parsed.Quantity, location, req.ShortID()))
}

// SMSStatusCallback applies Twilio delivery receipts to the matching
// notification record.
func (h *Handlers) SMSStatusCallback(c *gin.Context) {
	sid := c.PostForm("MessageSid")
	status := c.PostForm("MessageStatus")
	if sid == "" || status == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := h.records.UpdateDeliveryStatus(c.Request.Context(), sid, status); err != nil {
		h.log.Warn("delivery status update failed",
			zap.String("sid", sid),
			zap.String("status", status),
			zap.Error(err))
	}
	c.Status(http.StatusOK)
}

func smsContactName(phone string) string {
	if len(phone) >= 4 {
		return "SMS User " + phone[len(phone)-4:]
	}
	return "SMS User"
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func twiml(c *gin.Context, message string) {
	c.XML(http.StatusOK, twimlResponse{Message: message})
}
