package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mssola/user_agent"
	"go.uber.org/zap"

	"BloodLink/internal/models"
	"BloodLink/pkg/errors"
	"BloodLink/pkg/notification"
	"BloodLink/pkg/response"
)

type createRequestInput struct {
	BloodGroup   string   `json:"blood_group" binding:"required"`
	Quantity     *int     `json:"quantity"`
	Urgency      string   `json:"urgency"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	LocationText string   `json:"location_text"`
	ContactPhone string   `json:"contact_phone" binding:"required"`
	ContactEmail string   `json:"contact_email"`
	ContactName  string   `json:"contact_name"`
}

// CreateRequest accepts an emergency request and runs the pipeline
// synchronously. A tracking id and status always come back, even under
// total provider outage.
func (h *Handlers) CreateRequest(c *gin.Context) {
	var in createRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	if !models.ValidBloodGroup(in.BloodGroup) {
		response.Fail(c, "unknown blood group, expected one of A+/A-/B+/B-/AB+/AB-/O+/O-", nil)
		return
	}
	quantity := 1
	if in.Quantity != nil {
		if *in.Quantity < 1 || *in.Quantity > 10 {
			response.Fail(c, "quantity must be between 1 and 10", nil)
			return
		}
		quantity = *in.Quantity
	}
	switch in.Urgency {
	case models.UrgencyCritical, models.UrgencyUrgent, models.UrgencyRoutine:
	default:
		in.Urgency = models.UrgencyUrgent
	}

	req := &models.EmergencyRequest{
		RequestID:        uuid.NewString(),
		BloodGroup:       in.BloodGroup,
		QuantityNeeded:   quantity,
		Urgency:          in.Urgency,
		UserLatitude:     in.Latitude,
		UserLongitude:    in.Longitude,
		UserLocationText: in.LocationText,
		ContactPhone:     notification.NormalizePhone(in.ContactPhone),
		ContactEmail:     in.ContactEmail,
		ContactName:      in.ContactName,
		IPAddress:        c.ClientIP(),
		UserAgent:        describeAgent(c.GetHeader("User-Agent")),
		SessionID:        c.GetHeader("X-Session-ID"),
		Status:           models.StatusPending,
	}
	if err := h.requests.Create(c.Request.Context(), req); err != nil {
		h.log.Error("request persistence failed", zap.Error(err))
		response.Error(c, "could not create emergency request")
		return
	}

	h.pipeline.Run(c.Request.Context(), req)

	response.Created(c, "emergency request created", h.requestView(req))
}

// GetRequest returns the tracking view for one request id.
func (h *Handlers) GetRequest(c *gin.Context) {
	req, err := h.requests.GetByTrackingID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.GetCode(err) == errors.CodeNotFound {
			response.NotFound(c, "request not found")
			return
		}
		h.log.Error("request lookup failed", zap.Error(err))
		response.Error(c, "could not load request")
		return
	}
	response.Success(c, "ok", h.requestView(req))
}

// CompleteRequest applies the external completion signal.
func (h *Handlers) CompleteRequest(c *gin.Context) {
	ctx := c.Request.Context()
	req, err := h.requests.GetByTrackingID(ctx, c.Param("id"))
	if err != nil {
		if errors.GetCode(err) == errors.CodeNotFound {
			response.NotFound(c, "request not found")
			return
		}
		h.log.Error("request lookup failed", zap.Error(err))
		response.Error(c, "could not load request")
		return
	}
	if err := h.requests.Complete(ctx, req); err != nil {
		if errors.GetCode(err) == errors.CodeInvalidInput {
			response.Fail(c, err.Error(), nil)
			return
		}
		h.log.Error("completion failed", zap.Error(err))
		response.Error(c, "could not complete request")
		return
	}
	response.Success(c, "request completed", h.requestView(req))
}

func (h *Handlers) requestView(req *models.EmergencyRequest) gin.H {
	hospitals := make([]gin.H, 0, len(req.Hospitals))
	for _, hosp := range req.Hospitals {
		hospitals = append(hospitals, gin.H{
			"name":            hosp.Name,
			"address":         hosp.Address,
			"city":            hosp.City,
			"emergency_phone": hosp.EmergencyPhone,
		})
	}
	view := gin.H{
		"request_id":        req.RequestID,
		"status":            req.Status,
		"blood_group":       req.BloodGroup,
		"quantity":          req.QuantityNeeded,
		"urgency":           req.Urgency,
		"location_source":   req.LocationSource,
		"location_accuracy": req.LocationAccuracy,
		"notification_sent": req.NotificationSent,
		"sms_sent":          req.SMSSent,
		"email_sent":        req.EmailSent,
		"hospitals":         hospitals,
		"created_at":        req.CreatedAt,
	}
	if req.ReservedHospitalID != nil {
		view["reserved_hospital_id"] = *req.ReservedHospitalID
	}
	if req.CompletedAt != nil {
		view["completed_at"] = *req.CompletedAt
	}
	return view
}

// describeAgent keeps a compact browser/OS summary instead of the raw
// header.
func describeAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := user_agent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	return name + " " + version + " (" + ua.OS() + ")"
}
