package store

import (
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"BloodLink/internal/models"
)

// Open connects per DB_DRIVER (sqlite default, "pg", "mysql") and
// migrates the pipeline tables.
func Open(driver, dsn string) (*gorm.DB, error) {
	db, err := createDatabaseInstance(&gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}, driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&models.Hospital{},
		&models.BloodStock{},
		&models.EmergencyRequest{},
		&models.NotificationRecord{},
		&models.StockAlert{},
	); err != nil {
		return nil, err
	}
	return db, nil
}
