package db

import (
	"fmt"

	"github.com/chitworks/chitfund-api/internal/models"
	"gorm.io/gorm"
)

// Migrate applies the schema for all persisted models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.ChitScheme{},
		&models.CustomerScheme{},
		&models.Collection{},
		&models.Auction{},
		&models.PassbookEntry{},
		&models.Setting{},
	)
}
