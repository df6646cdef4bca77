package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"BloodLink/internal/models"
	"BloodLink/pkg/errors"
)

// statusRank orders the lifecycle so updates can enforce monotone
// transitions. FAILED is terminal alongside COMPLETED.
var statusRank = map[string]int{
	models.StatusPending:   0,
	models.StatusSearching: 1,
	models.StatusFound:     2,
	models.StatusNotified:  3,
	models.StatusCompleted: 4,
	models.StatusFailed:    4,
}

// StatusRank exposes the ordering for the pipeline's idempotency checks.
func StatusRank(status string) int {
	return statusRank[status]
}

type RequestStore struct {
	db *gorm.DB
}

func NewRequestStore(db *gorm.DB) *RequestStore {
	return &RequestStore{db: db}
}

// Create persists the core request record. This is the only persistence
// failure that is fatal to the caller.
func (s *RequestStore) Create(ctx context.Context, req *models.EmergencyRequest) error {
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return errors.Wrap(err, "create emergency request")
	}
	return nil
}

func (s *RequestStore) GetByTrackingID(ctx context.Context, trackingID string) (*models.EmergencyRequest, error) {
	var req models.EmergencyRequest
	err := s.db.WithContext(ctx).
		Preload("Hospitals").
		Where("request_id = ?", trackingID).
		First(&req).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.WithCode(errors.CodeNotFound, "request not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load emergency request")
	}
	return &req, nil
}

// Advance moves the request forward; a transition to an earlier or equal
// rank is ignored so re-runs stay idempotent. Saves only when it moved.
// FAILED is reachable from SEARCHING only; a request that already found
// or notified hospitals cannot fail afterwards.
func (s *RequestStore) Advance(ctx context.Context, req *models.EmergencyRequest, status string) error {
	if statusRank[status] <= statusRank[req.Status] {
		return nil
	}
	if status == models.StatusFailed && req.Status != models.StatusSearching {
		return nil
	}
	req.Status = status
	return s.Save(ctx, req)
}

func (s *RequestStore) Save(ctx context.Context, req *models.EmergencyRequest) error {
	if err := s.db.WithContext(ctx).Save(req).Error; err != nil {
		return errors.Wrap(err, "save emergency request")
	}
	return nil
}

// SetHospitals records the matched set; populated only once the request
// reaches FOUND.
func (s *RequestStore) SetHospitals(ctx context.Context, req *models.EmergencyRequest, hospitals []models.Hospital) error {
	if err := s.db.WithContext(ctx).Model(req).Association("Hospitals").Replace(hospitals); err != nil {
		return errors.Wrap(err, "associate hospitals")
	}
	req.Hospitals = hospitals
	return nil
}

// Complete applies the external completion signal.
func (s *RequestStore) Complete(ctx context.Context, req *models.EmergencyRequest) error {
	if req.Status == models.StatusCompleted {
		return nil
	}
	if req.Status == models.StatusFailed {
		return errors.WithCode(errors.CodeInvalidInput, "failed request cannot be completed")
	}
	now := time.Now()
	req.Status = models.StatusCompleted
	req.CompletedAt = &now
	return s.Save(ctx, req)
}
