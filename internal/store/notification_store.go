package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"BloodLink/internal/models"
	"BloodLink/pkg/errors"
)

type NotificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Append writes one immutable record per dispatch attempt.
func (s *NotificationStore) Append(ctx context.Context, rec *models.NotificationRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return errors.Wrap(err, "append notification record")
	}
	return nil
}

// RecentRateFailures counts SMS failures classified as rate/limit errors
// inside the trailing window. Three or more trips the simulate switch.
func (s *NotificationStore) RecentRateFailures(ctx context.Context, window time.Duration) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.NotificationRecord{}).
		Where("notification_type = ? AND status = ? AND error_class = ? AND created_at >= ?",
			models.ChannelSMS, models.NotifyFailed, "rate-limited", time.Now().Add(-window)).
		Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "count recent failures")
	}
	return n, nil
}

// UpdateDeliveryStatus applies a provider status callback, matched by
// the provider message id recorded at send time.
func (s *NotificationStore) UpdateDeliveryStatus(ctx context.Context, providerID, status string) error {
	var rec models.NotificationRecord
	err := s.db.WithContext(ctx).
		Where("provider_response = ?", providerID).
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return errors.WithCode(errors.CodeNotFound, "notification not found for provider id")
	}
	if err != nil {
		return errors.Wrap(err, "load notification record")
	}

	switch status {
	case "sent":
		rec.Status = models.NotifySent
	case "delivered":
		now := time.Now()
		rec.Status = models.NotifyDelivered
		rec.DeliveredAt = &now
	case "failed", "undelivered":
		rec.Status = models.NotifyFailed
	default:
		return nil
	}
	return s.db.WithContext(ctx).Save(&rec).Error
}

func (s *NotificationStore) ForRequest(ctx context.Context, requestID uint) ([]models.NotificationRecord, error) {
	var recs []models.NotificationRecord
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at").
		Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(err, "list notification records")
	}
	return recs, nil
}
