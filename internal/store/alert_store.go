package store

import (
	"context"

	"gorm.io/gorm"

	"BloodLink/internal/models"
	"BloodLink/pkg/errors"
)

type AlertStore struct {
	db *gorm.DB
}

func NewAlertStore(db *gorm.DB) *AlertStore {
	return &AlertStore{db: db}
}

// Upsert maintains the single active alert per (hospital, group):
// healthy stock resolves it, unhealthy stock creates it or updates the
// level and count in place.
func (s *AlertStore) Upsert(ctx context.Context, hospitalID uint, bloodGroup string, units int) error {
	level := models.AlertLevelFor(units)

	var alert models.StockAlert
	err := s.db.WithContext(ctx).
		Where("hospital_id = ? AND blood_group = ? AND status = ?", hospitalID, bloodGroup, models.AlertActive).
		First(&alert).Error

	switch {
	case err == gorm.ErrRecordNotFound:
		if level == "" {
			return nil
		}
		return s.db.WithContext(ctx).Create(&models.StockAlert{
			HospitalID:   hospitalID,
			BloodGroup:   bloodGroup,
			CurrentStock: units,
			AlertLevel:   level,
			Status:       models.AlertActive,
		}).Error
	case err != nil:
		return errors.Wrap(err, "load stock alert")
	}

	if level == "" {
		alert.Status = models.AlertResolved
		alert.CurrentStock = units
		return s.db.WithContext(ctx).Save(&alert).Error
	}
	alert.AlertLevel = level
	alert.CurrentStock = units
	return s.db.WithContext(ctx).Save(&alert).Error
}

func (s *AlertStore) Active(ctx context.Context) ([]models.StockAlert, error) {
	var alerts []models.StockAlert
	err := s.db.WithContext(ctx).
		Preload("Hospital").
		Where("status = ?", models.AlertActive).
		Order("created_at desc").
		Find(&alerts).Error
	if err != nil {
		return nil, errors.Wrap(err, "list active alerts")
	}
	return alerts, nil
}

func (s *AlertStore) ActiveFor(ctx context.Context, hospitalID uint, bloodGroup string) (*models.StockAlert, error) {
	var alert models.StockAlert
	err := s.db.WithContext(ctx).
		Where("hospital_id = ? AND blood_group = ? AND status = ?", hospitalID, bloodGroup, models.AlertActive).
		First(&alert).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load stock alert")
	}
	return &alert, nil
}
