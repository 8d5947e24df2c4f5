package models

import (
	"log"

	"bitbucket.org/afyadata/medsupply_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Invoice{},
		&Payment{}, &PaymentAllocation{},
		&Tax{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
