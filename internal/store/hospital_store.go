package store

import (
	"context"

	"gorm.io/gorm"

	"BloodLink/internal/models"
	"BloodLink/pkg/errors"
)

type HospitalStore struct {
	db *gorm.DB
}

func NewHospitalStore(db *gorm.DB) *HospitalStore {
	return &HospitalStore{db: db}
}

// StockedHospital pairs a hospital with its stock level for one group.
type StockedHospital struct {
	Hospital models.Hospital
	Units    int
}

// ListPartnersWithStock returns active emergency partners holding at
// least minUnits of the group. Distance filtering happens in the
// matcher; this only prunes on eligibility flags and stock.
func (s *HospitalStore) ListPartnersWithStock(ctx context.Context, bloodGroup string, minUnits int) ([]StockedHospital, error) {
	var rows []models.BloodStock
	err := s.db.WithContext(ctx).
		Preload("Hospital").
		Where("blood_group = ? AND units_available >= ?", bloodGroup, minUnits).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list hospital stock")
	}

	out := make([]StockedHospital, 0, len(rows))
	for _, row := range rows {
		if !row.Hospital.IsActive || !row.Hospital.IsEmergencyPartner {
			continue
		}
		out = append(out, StockedHospital{Hospital: row.Hospital, Units: row.UnitsAvailable})
	}
	return out, nil
}

func (s *HospitalStore) ListActive(ctx context.Context, city string) ([]models.Hospital, error) {
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	if city != "" {
		q = q.Where("city LIKE ?", "%"+city+"%")
	}
	var hospitals []models.Hospital
	if err := q.Find(&hospitals).Error; err != nil {
		return nil, errors.Wrap(err, "list hospitals")
	}
	return hospitals, nil
}

func (s *HospitalStore) StocksFor(ctx context.Context, hospitalID uint) ([]models.BloodStock, error) {
	var rows []models.BloodStock
	err := s.db.WithContext(ctx).
		Where("hospital_id = ?", hospitalID).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list stock for hospital")
	}
	return rows, nil
}
