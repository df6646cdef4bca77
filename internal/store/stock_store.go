package store

import (
	"context"

	"gorm.io/gorm"

	"BloodLink/internal/models"
	"BloodLink/pkg/errors"
)

type StockStore struct {
	db *gorm.DB
}

func NewStockStore(db *gorm.DB) *StockStore {
	return &StockStore{db: db}
}

// ErrInsufficientStock reports a reservation that lost the race or found
// less stock than matching saw. Callers advance to the next candidate.
var ErrInsufficientStock = errors.New("insufficient stock")

// Reserve atomically subtracts quantity from the (hospital, group) row.
// The guard lives in the UPDATE's WHERE clause, so under any
// interleaving of concurrent attempts the balance can never go
// negative: the row either still holds enough units and the statement
// lands, or RowsAffected is zero and the caller moves on.
func (s *StockStore) Reserve(ctx context.Context, hospitalID uint, bloodGroup string, quantity int) (remaining int, err error) {
	if quantity <= 0 {
		return 0, errors.WithCode(errors.CodeInvalidInput, "quantity must be positive")
	}

	res := s.db.WithContext(ctx).
		Model(&models.BloodStock{}).
		Where("hospital_id = ? AND blood_group = ? AND units_available >= ?", hospitalID, bloodGroup, quantity).
		UpdateColumn("units_available", gorm.Expr("units_available - ?", quantity))
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		return 0, ErrInsufficientStock
	}

	var row models.BloodStock
	err = s.db.WithContext(ctx).
		Where("hospital_id = ? AND blood_group = ?", hospitalID, bloodGroup).
		First(&row).Error
	if err != nil {
		return 0, errors.Wrap(err, "reload stock after reserve")
	}
	return row.UnitsAvailable, nil
}

// SetUnits is the external inventory-update path (absolute set).
func (s *StockStore) SetUnits(ctx context.Context, hospitalID uint, bloodGroup string, units int) error {
	if units < 0 {
		return errors.WithCode(errors.CodeInvalidInput, "units cannot be negative")
	}
	var row models.BloodStock
	err := s.db.WithContext(ctx).
		Where("hospital_id = ? AND blood_group = ?", hospitalID, bloodGroup).
		First(&row).Error
	switch err {
	case nil:
		row.UnitsAvailable = units
		return s.db.WithContext(ctx).Save(&row).Error
	case gorm.ErrRecordNotFound:
		return s.db.WithContext(ctx).Create(&models.BloodStock{
			HospitalID:     hospitalID,
			BloodGroup:     bloodGroup,
			UnitsAvailable: units,
		}).Error
	default:
		return errors.Wrap(err, "load stock")
	}
}

func (s *StockStore) All(ctx context.Context) ([]models.BloodStock, error) {
	var rows []models.BloodStock
	if err := s.db.WithContext(ctx).Preload("Hospital").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list stock")
	}
	return rows, nil
}
