package models

import (
	"log"

	"gorm.io/gorm"
)

// AutoMigrate migrates the core schema. The RADIUS schema is owned by
// FreeRADIUS and is never migrated from here.
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&User{},
		&ServiceNode{},
		&Plan{},
		&Customer{},
		&CustomerDevice{},
		&ServiceRequest{},
		&Invoice{},
		&InvoiceItem{},
		&Transaction{},
		&Voucher{},
	)
	if err != nil {
		return err
	}

	log.Println("Database migrations completed")
	return nil
}
