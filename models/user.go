package models

import "time"

// User exists here only to resolve created_by on the payment audit trail.
// Account management lives in the admin service.
type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId string    `gorm:"index;not null" json:"company_id"`
	FullName  string    `gorm:"size:255;not null" json:"full_name"`
	Email     string    `gorm:"size:255;index" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
