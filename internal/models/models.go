package models

import (
	"time"
)

// Canonical ABO/Rh blood groups. Everything that accepts a group
// validates against this set.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func ValidBloodGroup(g string) bool {
	for _, v := range BloodGroups {
		if v == g {
			return true
		}
	}
	return false
}

// Request lifecycle. Transitions are monotone; COMPLETED only comes from
// the external completion signal.
const (
	StatusPending   = "PENDING"
	StatusSearching = "SEARCHING"
	StatusFound     = "FOUND"
	StatusNotified  = "NOTIFIED"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

const (
	UrgencyCritical = "CRITICAL"
	UrgencyUrgent   = "URGENT"
	UrgencyRoutine  = "ROUTINE"
)

type Hospital struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"size:200"`
	Address        string
	City           string `gorm:"size:100;default:Mumbai"`
	State          string `gorm:"size:100;default:Maharashtra"`
	Phone          string `gorm:"size:20"`
	EmergencyPhone string `gorm:"size:20"` // 24/7 contact, used in all notifications
	Email          string
	Latitude       float64
	Longitude      float64

	IsActive           bool `gorm:"default:true"`
	IsEmergencyPartner bool `gorm:"default:true"`
	Operates24x7       bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BloodStock is unique per (hospital, group). UnitsAvailable is the one
// row in the system needing true mutual exclusion; only
// StockStore.Reserve and inventory updates touch it.
type BloodStock struct {
	ID             uint   `gorm:"primaryKey"`
	HospitalID     uint   `gorm:"uniqueIndex:idx_hospital_group"`
	Hospital       Hospital
	BloodGroup     string `gorm:"size:5;uniqueIndex:idx_hospital_group"`
	UnitsAvailable int    // bags
	LastUpdated    time.Time `gorm:"autoUpdateTime"`
}

// EmergencyRequest is the audit record of one request. Never deleted;
// mutated only by the pipeline.
type EmergencyRequest struct {
	ID        uint   `gorm:"primaryKey"`
	RequestID string `gorm:"size:36;uniqueIndex"` // uuid, tracking id

	BloodGroup     string `gorm:"size:5"`
	QuantityNeeded int    // bags, > 0
	Urgency        string `gorm:"size:20;default:URGENT"`

	UserLatitude     *float64
	UserLongitude    *float64
	UserLocationText string `gorm:"size:500"`
	LocationSource   string `gorm:"size:20"` // gps|geocoded|ip|unknown
	LocationAccuracy string `gorm:"size:20"`

	ContactPhone string `gorm:"size:20"`
	ContactEmail string
	ContactName  string `gorm:"size:100"`

	IPAddress string `gorm:"size:45"`
	UserAgent string
	SessionID string `gorm:"size:100"`

	Status             string     `gorm:"size:20;default:PENDING"`
	Hospitals          []Hospital `gorm:"many2many:request_hospitals"`
	ReservedHospitalID *uint
	NotificationSent   bool
	SMSSent            bool
	EmailSent          bool

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// ShortID is the 8 character tracking prefix quoted in messages.
func (r *EmergencyRequest) ShortID() string {
	if len(r.RequestID) >= 8 {
		return r.RequestID[:8]
	}
	return r.RequestID
}

// Notification channels and outcomes.
const (
	ChannelSMS   = "SMS"
	ChannelEmail = "EMAIL"

	NotifyPending   = "PENDING"
	NotifySent      = "SENT"
	NotifyFailed    = "FAILED"
	NotifyDelivered = "DELIVERED"
)

// NotificationRecord is append-only: exactly one row per dispatch
// attempt, regardless of outcome. ProviderResponse holds the provider id
// or the literal "SIMULATED".
type NotificationRecord struct {
	ID               uint `gorm:"primaryKey"`
	RequestID        uint
	NotificationType string `gorm:"size:10"` // SMS | EMAIL
	Recipient        string `gorm:"size:200"`
	Subject          string `gorm:"size:200"`
	Message          string
	Status           string `gorm:"size:20;default:PENDING"`
	ProviderResponse string
	ErrorMessage     string
	ErrorClass       string `gorm:"size:30"` // rate-limited|authentication|invalid-recipient|unknown
	Simulated        bool
	SentAt           *time.Time
	DeliveredAt      *time.Time
	CreatedAt        time.Time
}

// Stock alert levels, thresholds in bags.
const (
	AlertLow       = "LOW"       // < 10
	AlertCritical  = "CRITICAL"  // < 5
	AlertEmergency = "EMERGENCY" // < 2
	AlertDepleted  = "DEPLETED"  // 0

	AlertActive       = "ACTIVE"
	AlertAcknowledged = "ACKNOWLEDGED"
	AlertResolved     = "RESOLVED"
	AlertEscalated    = "ESCALATED"
)

// AlertLevelFor maps a stock count to an alert level; empty means the
// level is healthy and no alert applies.
func AlertLevelFor(units int) string {
	switch {
	case units <= 0:
		return AlertDepleted
	case units < 2:
		return AlertEmergency
	case units < 5:
		return AlertCritical
	case units < 10:
		return AlertLow
	default:
		return ""
	}
}

// StockAlert keeps at most one active row per (hospital, group).
type StockAlert struct {
	ID           uint `gorm:"primaryKey"`
	HospitalID   uint
	Hospital     Hospital
	BloodGroup   string `gorm:"size:5"`
	CurrentStock int
	AlertLevel   string `gorm:"size:20"`
	Status       string `gorm:"size:20;default:ACTIVE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
