package store

import (
	"context"

	"gorm.io/gorm"

	"BloodLink/internal/models"
)

// SeedHospital is a dev/test fixture: one hospital and its per-group
// stock in a single call.
func SeedHospital(ctx context.Context, db *gorm.DB, h models.Hospital, stock map[string]int) (models.Hospital, error) {
	if err := db.WithContext(ctx).Create(&h).Error; err != nil {
		return h, err
	}
	for group, units := range stock {
		row := models.BloodStock{HospitalID: h.ID, BloodGroup: group, UnitsAvailable: units}
		if err := db.WithContext(ctx).Create(&row).Error; err != nil {
			return h, err
		}
	}
	return h, nil
}

// SeedMumbaiHospitals loads the Panvel-area fixture set used by dev
// environments and the matcher tests.
func SeedMumbaiHospitals(ctx context.Context, db *gorm.DB) error {
	fixtures := []struct {
		hospital models.Hospital
		stock    map[string]int
	}{
		{
			hospital: models.Hospital{
				Name: "MGM Hospital, New Panvel", Address: "Sector 3, New Panvel",
				City: "Panvel", Phone: "+91-22-27452627", EmergencyPhone: "+91-22-27452628",
				Latitude: 19.0330, Longitude: 73.1180,
				IsActive: true, IsEmergencyPartner: true, Operates24x7: true,
			},
			stock: map[string]int{"A+": 12, "B+": 8, "O+": 15, "O-": 3, "AB+": 5},
		},
		{
			hospital: models.Hospital{
				Name: "Noble Hospital, Panvel", Address: "Sector 2, New Panvel",
				City: "Panvel", Phone: "+91-22-27452000", EmergencyPhone: "+91-22-27452001",
				Latitude: 19.0083, Longitude: 73.1095,
				IsActive: true, IsEmergencyPartner: true, Operates24x7: true,
			},
			stock: map[string]int{"A+": 6, "A-": 2, "B+": 10, "O+": 20, "AB-": 1},
		},
		{
			hospital: models.Hospital{
				Name: "City General Hospital", Address: "123 Main St, Downtown",
				City: "Mumbai", Phone: "+91-9876543210", EmergencyPhone: "+91-9876543211",
				Latitude: 19.0760, Longitude: 72.8777,
				IsActive: true, IsEmergencyPartner: true, Operates24x7: true,
			},
			stock: map[string]int{"A+": 25, "B-": 4, "O+": 30, "O-": 8, "AB+": 12},
		},
	}

	for _, f := range fixtures {
		var existing models.Hospital
		err := db.WithContext(ctx).Where("name = ?", f.hospital.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if _, err := SeedHospital(ctx, db, f.hospital, f.stock); err != nil {
			return err
		}
	}
	return nil
}
